package engine

import (
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Pass suffix="" for no suffix. Safe for UTF-8 (Vietnamese diacritics included).
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}

// NormalizeJobKey turns a job name into its storage key:
// trimmed, lowercased, inner whitespace collapsed to single underscores.
// "Machine Learning" and " machine  learning " both map to "machine_learning".
func NormalizeJobKey(job string) string {
	// Casers carry state, so each call gets its own.
	fields := strings.Fields(cases.Lower(language.Und).String(job))
	return strings.Join(fields, "_")
}
