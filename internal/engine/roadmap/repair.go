package roadmap

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// RepairState is the position in the repair chain that produced (or failed to produce) an object.
type RepairState int

const (
	StateRaw RepairState = iota
	StateCleanedDirect
	StateFencedExtracted
	StateSpanExtracted
	StateFailed
)

func (s RepairState) String() string {
	switch s {
	case StateRaw:
		return "raw"
	case StateCleanedDirect:
		return "cleaned_direct"
	case StateFencedExtracted:
		return "fenced_extracted"
	case StateSpanExtracted:
		return "span_extracted"
	}
	return "failed"
}

// Repaired is the outcome of Repair. Value is a decoded JSON object unless
// State is StateFailed, in which case it is nil and Raw holds the original text.
type Repaired struct {
	Value map[string]any
	State RepairState
	Raw   string
}

// OK reports whether a structured object was recovered.
func (r Repaired) OK() bool { return r.State != StateFailed && r.Value != nil }

var errNotObject = errors.New("not a JSON object")

type repairStrategy struct {
	state RepairState
	parse func(text string) (map[string]any, error)
}

// repairChain is tried in order; the first strategy that yields an object wins.
var repairChain = []repairStrategy{
	{StateCleanedDirect, cleanAndParse},
	{StateFencedExtracted, parseFenced},
	{StateSpanExtracted, parseOuterSpan},
}

// Repair recovers one JSON object from model text. It never fails: when no
// strategy succeeds the result is in StateFailed and carries the raw text.
func Repair(text string) Repaired {
	trimmed := strings.TrimSpace(text)
	for _, s := range repairChain {
		if v, err := s.parse(trimmed); err == nil {
			return Repaired{Value: v, State: s.state, Raw: text}
		}
	}
	return Repaired{State: StateFailed, Raw: text}
}

// ellipsisLines are whole-line omission markers models emit despite being told not to.
var ellipsisLines = map[string]bool{
	"...": true, ",...": true, "...,": true, ", ...": true,
	"…": true, ",…": true, "…,": true, ", …": true,
}

var trailingComma = regexp.MustCompile(`,(\s*[\]}])`)

// cleanup drops ellipsis lines and trailing commas before ] or }.
func cleanup(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, ln := range lines {
		if ellipsisLines[strings.TrimSpace(ln)] {
			continue
		}
		kept = append(kept, ln)
	}
	return trailingComma.ReplaceAllString(strings.Join(kept, "\n"), "$1")
}

func cleanAndParse(s string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(cleanup(s)), &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return obj, nil
}

func parseFenced(s string) (map[string]any, error) {
	if !strings.Contains(s, "```") {
		return nil, errors.New("no fenced block")
	}
	for _, seg := range strings.Split(s, "```") {
		seg = stripLanguageTag(strings.TrimSpace(seg))
		if seg == "" {
			continue
		}
		if v, err := cleanAndParse(seg); err == nil {
			return v, nil
		}
	}
	return nil, errors.New("no fenced block parsed")
}

var languageTag = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_+.-]{0,19}$`)

// stripLanguageTag removes the info string after an opening fence:
// "json{...}" on one line, or a first line holding a single word.
func stripLanguageTag(seg string) string {
	if len(seg) >= 4 && strings.EqualFold(seg[:4], "json") {
		return strings.TrimSpace(seg[4:])
	}
	first, rest, found := strings.Cut(seg, "\n")
	if found && languageTag.MatchString(strings.TrimSpace(first)) {
		return strings.TrimSpace(rest)
	}
	return seg
}

func parseOuterSpan(s string) (map[string]any, error) {
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first < 0 || last <= first {
		return nil, errors.New("no object span")
	}
	return cleanAndParse(s[first : last+1])
}
