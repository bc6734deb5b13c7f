package roadmap

import (
	"sort"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_roadmap/internal/engine/profiles"
)

const missingValue = "N/A"

// ProfileText renders a profile in a fixed order: identity, academic, career,
// availability, skills, interests, projects. Equal profiles render byte-identically;
// skill maps are emitted in key order.
func ProfileText(p profiles.Profile) string {
	var b strings.Builder
	line := func(label, value string) {
		b.WriteString("- ")
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte('\n')
	}

	b.WriteString("Hồ sơ sinh viên:\n")
	line("user_id", orMissing(p.UserID))
	line("Họ tên", orMissing(p.FullName))

	line("Kỳ hiện tại", intOrMissing(p.CurrentSemester))
	line("GPA (thang 4)", floatOrMissing(p.GPA))
	b.WriteString("- Điểm các môn (thang 10):\n")
	for _, c := range p.Courses {
		b.WriteString("  - ")
		b.WriteString(orMissing(c.Code))
		b.WriteString(" | ")
		b.WriteString(orMissing(c.Name))
		b.WriteString(": ")
		b.WriteString(floatOrMissing(c.Grade))
		b.WriteString("/10\n")
	}

	line("Target career", orMissing(p.TargetCareerID))
	line("Actual career (nếu có)", orMissing(p.ActualCareer))

	line("Thời gian có thể học mỗi tuần (giờ)", floatOrMissing(p.HoursPerWeek))

	line("IT skills (label)", strings.Join(p.ITSkills, ", "))
	line("Soft skills (label)", strings.Join(p.SoftSkills, ", "))
	line("Technical skills (1-10)", levels(p.TechnicalSkills))
	line("General skills (1-10)", levels(p.GeneralSkills))

	line("Interests", strings.Join(p.Interests, ", "))
	b.WriteString("- Projects:\n")
	for _, pr := range p.Projects {
		b.WriteString("  - ")
		b.WriteString(pr)
		b.WriteByte('\n')
	}
	return b.String()
}

// BuildQuery renders the profile followed by the question, or by a goal clause
// asking for weak or uncovered items within the weekly time budget when the
// question is blank. The result is used as the embedding query.
func BuildQuery(p profiles.Profile, question string) string {
	base := ProfileText(p)
	if q := strings.TrimSpace(question); q != "" {
		return base + "Câu hỏi: " + q
	}
	goal := "Mục tiêu: tìm các mục trong roadmap phù hợp nhất với hồ sơ này, " +
		"ưu tiên các mục nền tảng sinh viên còn yếu hoặc chưa học"
	if p.HoursPerWeek != nil {
		goal += ", và không vượt quá thời gian học " + formatFloat(*p.HoursPerWeek) + "h/tuần nếu có thể"
	}
	return base + goal + "."
}

func levels(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + strconv.Itoa(m[k])
	}
	return strings.Join(parts, ", ")
}

func orMissing(s string) string {
	if s == "" {
		return missingValue
	}
	return s
}

func intOrMissing(n *int) string {
	if n == nil {
		return missingValue
	}
	return strconv.Itoa(*n)
}

func floatOrMissing(f *float64) string {
	if f == nil {
		return missingValue
	}
	return formatFloat(*f)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
