package profiles

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleUser = `{
  "user_id": "u1",
  "full_name": "Nguyen Van A",
  "studentID": "S001",
  "academic": {
    "current_semester": 5,
    "gpa": 3.2,
    "courses": [
      {"code": "INT1306", "name": "Data Structures", "grade": 8.5},
      {"code": "INT1340", "name": "Probability", "grade": "7"}
    ]
  },
  "career": {"target_career_id": "ml_engineer", "actual_career": "", "target_confidence": 0.8},
  "availability": {"time_per_week_hours": 12},
  "it_skill": ["python", "sql"],
  "soft_skill": ["teamwork"],
  "skills": {"technical": {"python": 7, "linear_algebra": 5.6}, "general": {"english": 6}},
  "interests": ["computer vision"],
  "projects": ["Face detection demo"],
  "meta": {"source": "survey"}
}`

func decodeRaw(t *testing.T, s string) Raw {
	t.Helper()
	var r Raw
	require.NoError(t, json.Unmarshal([]byte(s), &r))
	return r
}

func TestNormalize_Full(t *testing.T) {
	p := Normalize(decodeRaw(t, sampleUser))

	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "Nguyen Van A", p.FullName)
	require.NotNil(t, p.CurrentSemester)
	assert.Equal(t, 5, *p.CurrentSemester)
	require.NotNil(t, p.GPA)
	assert.InDelta(t, 3.2, *p.GPA, 1e-9)

	require.Len(t, p.Courses, 2)
	assert.Equal(t, "INT1306", p.Courses[0].Code)
	require.NotNil(t, p.Courses[1].Grade)
	assert.InDelta(t, 7.0, *p.Courses[1].Grade, 1e-9)

	assert.Equal(t, "ml_engineer", p.TargetCareerID)
	require.NotNil(t, p.HoursPerWeek)
	assert.InDelta(t, 12.0, *p.HoursPerWeek, 1e-9)

	assert.Equal(t, []string{"python", "sql"}, p.ITSkills)
	assert.Equal(t, []string{"teamwork"}, p.SoftSkills)
	assert.Equal(t, map[string]int{"python": 7, "linear_algebra": 6}, p.TechnicalSkills)
	assert.Equal(t, map[string]int{"english": 6}, p.GeneralSkills)
	assert.Equal(t, []string{"computer vision"}, p.Interests)
	assert.Equal(t, []string{"Face detection demo"}, p.Projects)
	assert.Equal(t, "survey", p.Meta["source"])
}

func TestNormalize_EmptyRecord(t *testing.T) {
	for _, raw := range []Raw{nil, {}, {"academic": "oops", "skills": []any{1, 2}}} {
		p := Normalize(raw)
		assert.Empty(t, p.UserID)
		assert.Nil(t, p.CurrentSemester)
		assert.Nil(t, p.GPA)
		assert.Nil(t, p.HoursPerWeek)
		assert.NotNil(t, p.Courses)
		assert.NotNil(t, p.ITSkills)
		assert.NotNil(t, p.SoftSkills)
		assert.NotNil(t, p.TechnicalSkills)
		assert.NotNil(t, p.GeneralSkills)
		assert.NotNil(t, p.Interests)
		assert.NotNil(t, p.Projects)
		assert.NotNil(t, p.Meta)
	}
}

func TestNormalize_WrongTypesAreMissing(t *testing.T) {
	p := Normalize(Raw{
		"user_id":  "u2",
		"academic": map[string]any{"gpa": "n/a", "courses": []any{"bad", map[string]any{"code": "X"}}},
		"it_skill": "python",
	})
	assert.Nil(t, p.GPA)
	require.Len(t, p.Courses, 1)
	assert.Equal(t, "X", p.Courses[0].Code)
	assert.Nil(t, p.Courses[0].Grade)
	assert.Empty(t, p.ITSkills)
}

func TestMerge_ExtraWins(t *testing.T) {
	base := Raw{"user_id": "u1", "studentID": "S1", "interests": []any{"a"}}
	extra := Raw{"studentID": "S1", "interests": []any{"b"}, "projects": []any{"p"}}

	got := merge(base, extra)
	assert.Equal(t, []any{"b"}, got["interests"])
	assert.Equal(t, []any{"p"}, got["projects"])
	assert.Equal(t, "u1", got["user_id"])
	assert.Equal(t, []any{"a"}, base["interests"], "base must not be modified")
}
