package engine

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeJobKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Machine Learning", "machine_learning"},
		{"  machine   learning ", "machine_learning"},
		{"DATA\tENGINEER", "data_engineer"},
		{"backend", "backend"},
		{"Kỹ Sư Dữ Liệu", "kỹ_sư_dữ_liệu"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeJobKey(tt.in); got != tt.want {
			t.Errorf("NormalizeJobKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("short", 10, "..."); got != "short" {
		t.Errorf("got %q", got)
	}
	const long = "Giai đoạn nền tảng"
	got := TruncateRunes(long, 9, "")
	if utf8.RuneCountInString(got) > 9 || !strings.HasPrefix(long, got) || !utf8.ValidString(got) {
		t.Errorf("TruncateRunes(%q, 9) = %q", long, got)
	}
}
