package roadmap

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Candidate is the untrusted, partial view of a model response: per-item
// annotations keyed by item id. It carries no tree structure, so it cannot
// be mistaken for (or merged as) a Roadmap.
type Candidate struct {
	Items map[string]CandidateItem
}

// CandidateItem holds whatever the model set for one item. Nil means absent.
type CandidateItem struct {
	Check           *bool
	Personalization *CandidatePersonalization
}

type CandidatePersonalization struct {
	Status                  *Status
	Priority                *int
	PersonalizedDescription *string
	Reason                  *string
}

// ParseCandidate reads per-item annotations out of a decoded JSON value.
// It reports false unless v is an object with a "stages" key; anything below
// that is read leniently: wrong types count as absent, items without an id
// are ignored and the last occurrence of a repeated id wins.
func ParseCandidate(v any) (*Candidate, bool) {
	root, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	stages, ok := root["stages"]
	if !ok {
		return nil, false
	}

	c := &Candidate{Items: map[string]CandidateItem{}}
	for _, st := range objects(stages) {
		for _, ar := range objects(st["areas"]) {
			for _, it := range objects(ar["items"]) {
				id := idString(it["id"])
				if id == "" {
					continue
				}
				c.Items[id] = CandidateItem{
					Check:           boolField(it["check"]),
					Personalization: parsePersonalization(it["personalization"]),
				}
			}
		}
	}
	return c, true
}

// Len returns the number of distinct annotated item ids.
func (c *Candidate) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

func parsePersonalization(v any) *CandidatePersonalization {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return &CandidatePersonalization{
		Status:                  statusField(m["status"]),
		Priority:                priorityField(m["priority"]),
		PersonalizedDescription: stringField(m["personalized_description"]),
		Reason:                  stringField(m["reason"]),
	}
}

func objects(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	case json.Number:
		return t.String()
	}
	return ""
}

func boolField(v any) *bool {
	switch t := v.(type) {
	case bool:
		return &t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return &b
		}
	}
	return nil
}

func stringField(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

// statusField lowercases and trims; values outside the known set become not_assigned.
func statusField(v any) *Status {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !knownStatuses[st] {
		st = StatusNotAssigned
	}
	return &st
}

// priorityField accepts non-negative whole numbers, also when sent as strings.
func priorityField(v any) *int {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return nil
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		f = n
	default:
		return nil
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}
