package notes

import (
	"unicode/utf8"

	"github.com/kartik-py12/NoteScript/internal/stringsx"
)

// MaxTagLen is the per-tag character limit.
const MaxTagLen = 30

// NormalizeTags canonicalizes raw tag input: trim, lowercase, drop
// empty and over-length entries, deduplicate keeping first occurrence
// order. Two tags differing only in case or surrounding whitespace are
// the same tag.
func NormalizeTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		t = stringsx.Normalize(t)
		if t == "" || utf8.RuneCountInString(t) > MaxTagLen {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
