package roadmap

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SemesterSpan is a stage's recommended_semesters. Roadmap files write it as a
// single number, a list of numbers or free text ("1-2"); the original form is kept
// so that a tree survives a decode/encode cycle unchanged.
type SemesterSpan struct {
	Semesters []int
	Text      string
	list      bool
}

// Semesters builds a list-form span.
func Semesters(n ...int) SemesterSpan {
	return SemesterSpan{Semesters: n, list: true}
}

func (s SemesterSpan) IsZero() bool {
	return len(s.Semesters) == 0 && s.Text == "" && !s.list
}

func (s SemesterSpan) clone() SemesterSpan {
	if s.Semesters != nil {
		s.Semesters = append([]int(nil), s.Semesters...)
	}
	return s
}

// String renders the span the way it appears in corpus text: "3", "[3, 4]" or the text form.
func (s SemesterSpan) String() string {
	if s.Text != "" {
		return s.Text
	}
	if !s.list && len(s.Semesters) == 1 {
		return strconv.Itoa(s.Semesters[0])
	}
	if len(s.Semesters) == 0 && !s.list {
		return ""
	}
	parts := make([]string, len(s.Semesters))
	for i, n := range s.Semesters {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (s SemesterSpan) value() any {
	switch {
	case s.Text != "":
		return s.Text
	case !s.list && len(s.Semesters) == 1:
		return s.Semesters[0]
	case s.Semesters == nil:
		return []int{}
	}
	return s.Semesters
}

func (s SemesterSpan) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.value())
}

func (s *SemesterSpan) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return s.set(v)
}

func (s SemesterSpan) MarshalYAML() (any, error) {
	return s.value(), nil
}

func (s *SemesterSpan) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	return s.set(v)
}

func (s *SemesterSpan) set(v any) error {
	*s = SemesterSpan{}
	switch t := v.(type) {
	case nil:
	case string:
		s.Text = t
	case []any:
		s.list = true
		s.Semesters = make([]int, 0, len(t))
		for _, e := range t {
			n, ok := wholeNumber(e)
			if !ok {
				return fmt.Errorf("recommended_semesters: %v is not a semester number", e)
			}
			s.Semesters = append(s.Semesters, n)
		}
	default:
		n, ok := wholeNumber(t)
		if !ok {
			return fmt.Errorf("recommended_semesters: unsupported value %v", t)
		}
		s.Semesters = []int{n}
	}
	return nil
}

// wholeNumber accepts integral numbers of any decoded numeric type.
func wholeNumber(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case uint64:
		return int(t), true
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		return int(n), err == nil
	}
	return 0, false
}
