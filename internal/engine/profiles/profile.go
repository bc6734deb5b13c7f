// Package profiles turns loosely-structured student records into canonical
// Profile values and serves them from an immutable, rebuildable snapshot.
package profiles

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Raw is a profile record as stored: nested groups, every key optional.
type Raw map[string]any

// Course is one graded course, in transcript order.
type Course struct {
	Code  string   `json:"code"`
	Name  string   `json:"name"`
	Grade *float64 `json:"grade,omitempty"`
}

// Profile is the canonical, fully-defaulted student profile.
// Built once per snapshot and shared read-only between requests.
type Profile struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`

	CurrentSemester *int     `json:"current_semester,omitempty"`
	GPA             *float64 `json:"gpa,omitempty"`
	Courses         []Course `json:"course_scores"`

	TargetCareerID   string   `json:"target_career_id"`
	ActualCareer     string   `json:"actual_career"`
	TargetConfidence *float64 `json:"target_confidence,omitempty"`

	HoursPerWeek *float64 `json:"time_per_week_hours,omitempty"`

	ITSkills        []string       `json:"it_skills"`
	SoftSkills      []string       `json:"soft_skills"`
	TechnicalSkills map[string]int `json:"skills_technical"`
	GeneralSkills   map[string]int `json:"skills_general"`

	Interests []string       `json:"interests"`
	Projects  []string       `json:"projects"`
	Meta      map[string]any `json:"meta"`
}

// Normalize maps a raw record onto Profile. Missing groups and fields fall back
// to empty values; values of the wrong type are treated as missing. Never fails.
func Normalize(raw Raw) Profile {
	academic := asMap(raw["academic"])
	career := asMap(raw["career"])
	availability := asMap(raw["availability"])
	skills := asMap(raw["skills"])

	return Profile{
		UserID:   asString(raw["user_id"]),
		FullName: asString(raw["full_name"]),

		CurrentSemester: asIntPtr(academic["current_semester"]),
		GPA:             asFloatPtr(academic["gpa"]),
		Courses:         asCourses(academic["courses"]),

		TargetCareerID:   asString(career["target_career_id"]),
		ActualCareer:     asString(career["actual_career"]),
		TargetConfidence: asFloatPtr(career["target_confidence"]),

		HoursPerWeek: asFloatPtr(availability["time_per_week_hours"]),

		ITSkills:        asStrings(raw["it_skill"]),
		SoftSkills:      asStrings(raw["soft_skill"]),
		TechnicalSkills: asLevels(skills["technical"]),
		GeneralSkills:   asLevels(skills["general"]),

		Interests: asStrings(raw["interests"]),
		Projects:  asStrings(raw["projects"]),
		Meta:      asMap(raw["meta"]),
	}
}

// merge overlays extra onto base (shallow, extra wins), the way a user record
// is completed by its linked student record.
func merge(base, extra Raw) Raw {
	out := make(Raw, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	if m, ok := v.(Raw); ok {
		return m
	}
	return map[string]any{}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func asFloatPtr(v any) *float64 {
	f, ok := asFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func asIntPtr(v any) *int {
	f, ok := asFloat(v)
	if !ok {
		return nil
	}
	n := int(math.Round(f))
	return &n
}

func asStrings(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []string:
		out = append(out, t...)
	case []any:
		for _, e := range t {
			if s := asString(e); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func asLevels(v any) map[string]int {
	out := map[string]int{}
	for k, raw := range asMap(v) {
		if f, ok := asFloat(raw); ok {
			out[k] = int(math.Round(f))
		}
	}
	return out
}

func asCourses(v any) []Course {
	out := []Course{}
	list, _ := v.([]any)
	for _, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Course{
			Code:  asString(m["code"]),
			Name:  asString(m["name"]),
			Grade: asFloatPtr(m["grade"]),
		})
	}
	return out
}
