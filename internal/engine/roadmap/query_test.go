package roadmap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anatolykoptev/go_roadmap/internal/engine/profiles"
)

func sampleProfile() profiles.Profile {
	return profiles.Normalize(profiles.Raw{
		"user_id":   "u1",
		"full_name": "Tran B",
		"academic": map[string]any{
			"current_semester": 4.0,
			"gpa":              3.25,
			"courses":          []any{map[string]any{"code": "INT1", "name": "Calculus", "grade": 8.5}},
		},
		"career":       map[string]any{"target_career_id": "ml_engineer"},
		"availability": map[string]any{"time_per_week_hours": 10.0},
		"it_skill":     []any{"python"},
		"skills": map[string]any{
			"technical": map[string]any{"sql": 4.0, "python": 7.0, "numpy": 5.0},
		},
		"interests": []any{"nlp", "vision"},
		"projects":  []any{"Chatbot"},
	})
}

func TestBuildQuery_Deterministic(t *testing.T) {
	p := sampleProfile()
	first := BuildQuery(p, "")
	for range 20 {
		assert.Equal(t, first, BuildQuery(sampleProfile(), ""))
	}
	assert.Contains(t, first, "Technical skills (1-10): numpy:5, python:7, sql:4\n")
}

func TestBuildQuery_SectionOrder(t *testing.T) {
	q := BuildQuery(sampleProfile(), "")
	markers := []string{
		"user_id: u1",
		"Họ tên: Tran B",
		"Kỳ hiện tại: 4",
		"GPA (thang 4): 3.25",
		"INT1 | Calculus: 8.5/10",
		"Target career: ml_engineer",
		"Thời gian có thể học mỗi tuần (giờ): 10",
		"IT skills (label): python",
		"Technical skills",
		"Interests: nlp, vision",
		"  - Chatbot",
		"Mục tiêu:",
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(q, m)
		if !assert.GreaterOrEqual(t, idx, 0, "missing %q", m) {
			continue
		}
		assert.Greater(t, idx, last, "%q out of order", m)
		last = idx
	}
}

func TestBuildQuery_QuestionReplacesGoal(t *testing.T) {
	q := BuildQuery(sampleProfile(), "  Nên học gì trước?  ")
	assert.True(t, strings.HasSuffix(q, "Câu hỏi: Nên học gì trước?"))
	assert.NotContains(t, q, "Mục tiêu:")

	goal := BuildQuery(sampleProfile(), "   ")
	assert.Contains(t, goal, "không vượt quá thời gian học 10h/tuần")
}

func TestBuildQuery_EmptyProfile(t *testing.T) {
	q := BuildQuery(profiles.Normalize(nil), "")
	assert.Contains(t, q, "user_id: N/A")
	assert.Contains(t, q, "GPA (thang 4): N/A")
	assert.Contains(t, q, "IT skills (label): \n")
	assert.NotContains(t, q, "h/tuần")
	assert.True(t, strings.HasPrefix(ProfileText(profiles.Normalize(nil)), "Hồ sơ sinh viên:\n"))
}
