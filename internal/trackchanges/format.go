package trackchanges

import (
	"strings"

	"github.com/rivo/uniseg"
)

const (
	contextHeader    = "TRACKED CHANGES REFERENCE (Original→Final editing patterns):"
	truncationNotice = "(Additional examples truncated to save space)"
)

// FormatContext renders pairs as a prompt block of at most budget
// characters, counted as grapheme clusters. Returns "" for no pairs.
func FormatContext(pairs []Pair, budget int) string {
	if len(pairs) == 0 {
		return ""
	}
	lines := []string{contextHeader}
	length := uniseg.GraphemeClusterCount(contextHeader)
	for i, p := range pairs {
		line := `• "` + p.Original + `" → "` + p.Final + `"`
		n := uniseg.GraphemeClusterCount(line)
		if length+n > budget {
			if i > 0 {
				lines = append(lines, truncationNotice)
			}
			break
		}
		lines = append(lines, line)
		length += n
	}
	return strings.Join(lines, "\n") + "\n"
}
