// Package figures resolves figure references in patent text ("Figure 1A",
// "Fig. 1-A", "figuur 3") and drawing filenames to a shared lookup key.
package figures

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// An identifier may continue past "." or "-" ("1-A", "2.b"). With spaces
	// around the separator ("1 - A", "2 . b") or a bare space ("1 A") only a
	// single letter or a number may follow, so "Figure 1 shows" and
	// "Fig. 1. The housing" keep "1".
	refPattern    = regexp.MustCompile(`(?i)\b(?:figures?|figuren|figuur|figs?\.?)\s*([\p{L}\p{N}_]+(?:[.\-]+[\p{L}\p{N}_]+|\s*[.\-]+\s*(?:\p{L}|\p{N}+)\b|\s+\p{L}\b)?)`)
	prefixPattern = regexp.MustCompile(`(?i)\b(?:figures?|figuren|figuur|figs?\.?)\s*`)
	separators    = regexp.MustCompile(`[\s.\-]`)
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// Normalize returns the canonical key for a figure reference or a drawing
// filename, or "" when nothing identifying remains.
//
//	Normalize("Figure 1A") == Normalize("Fig. 1-A") == Normalize("fig1a.png") == "1a"
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	if imageExtensions[strings.ToLower(filepath.Ext(text))] {
		text = strings.TrimSuffix(text, filepath.Ext(text))
	}
	if m := refPattern.FindStringSubmatch(text); m != nil {
		return strings.ToLower(separators.ReplaceAllString(m[1], ""))
	}
	base := strings.TrimSuffix(text, filepath.Ext(text))
	base = prefixPattern.ReplaceAllString(base, "")
	return strings.ToLower(separators.ReplaceAllString(base, ""))
}

// FindRefs returns the raw identifiers of every figure reference in text,
// in order of appearance, e.g. ["1A", "2"] for "Figure 1A and fig. 2".
func FindRefs(text string) []string {
	matches := refPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, m[1])
	}
	return refs
}

// RefKey normalizes a raw identifier returned by FindRefs.
func RefKey(ref string) string {
	return Normalize("fig " + ref)
}
