// Package trackchanges loads (original, final) editing pairs from tracked
// changes documents and picks the ones relevant to a batch of segments.
package trackchanges

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/oukeidos/vertaal/internal/apperrors"
	"github.com/oukeidos/vertaal/internal/logger"
)

const (
	DefaultMaxPairs = 10
	DefaultBudget   = 1000

	// Words of this many characters or fewer are ignored by the overlap pass.
	minWordLen = 3
)

// Pair is one editing example: the text before and after revision.
type Pair struct {
	Original string
	Final    string
}

// Matcher holds every pair loaded for a run. Loading is not concurrency
// safe; lookups are once loading has finished.
type Matcher struct {
	pairs []Pair
	files []string
}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// Load picks the reader by extension: .docx is read as a Word document,
// anything else as a two-column TSV.
func (m *Matcher) Load(path string) (int, error) {
	if strings.EqualFold(filepath.Ext(path), ".docx") {
		return m.LoadDOCX(path)
	}
	return m.LoadTSV(path)
}

func (m *Matcher) LoadDOCX(path string) (int, error) {
	pairs, err := parseDOCX(path)
	if err != nil {
		return 0, apperrors.Parse(path, err)
	}
	m.add(path, pairs)
	return len(pairs), nil
}

func (m *Matcher) LoadTSV(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, apperrors.Parse(path, err)
	}
	defer f.Close()

	var pairs []Pair
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if lineNum == 1 {
			lower := strings.ToLower(line)
			if strings.Contains(lower, "original") && strings.Contains(lower, "final") {
				continue
			}
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			logger.Warn("Skipping tracked-changes line: insufficient columns", "path", filepath.Base(path), "line", lineNum)
			continue
		}
		original := strings.TrimSpace(fields[0])
		final := strings.TrimSpace(fields[1])
		if original != "" && final != "" && original != final {
			pairs = append(pairs, Pair{Original: original, Final: final})
		}
	}
	if err := sc.Err(); err != nil {
		return 0, apperrors.Parse(path, err)
	}
	m.add(path, pairs)
	return len(pairs), nil
}

func (m *Matcher) add(path string, pairs []Pair) {
	m.pairs = append(m.pairs, pairs...)
	m.files = append(m.files, filepath.Base(path))
	logger.Info("Tracked changes loaded", "file", filepath.Base(path), "pairs", len(pairs), "total_pairs", len(m.pairs))
}

func (m *Matcher) Pairs() []Pair {
	if m == nil {
		return nil
	}
	return m.pairs
}

func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.pairs)
}

// Files lists the base names of every loaded file, in load order.
func (m *Matcher) Files() []string {
	if m == nil {
		return nil
	}
	return m.files
}

func (m *Matcher) Clear() {
	m.pairs = nil
	m.files = nil
}

// Search returns pairs whose original or final contains text,
// case-insensitively. With exact set, one side must equal text verbatim.
// An empty query returns every pair.
func (m *Matcher) Search(text string, exact bool) []Pair {
	if m == nil {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return m.pairs
	}
	needle := strings.ToLower(text)
	var out []Pair
	for _, p := range m.pairs {
		if exact {
			if text == p.Original || text == p.Final {
				out = append(out, p)
			}
			continue
		}
		if strings.Contains(strings.ToLower(p.Original), needle) || strings.Contains(strings.ToLower(p.Final), needle) {
			out = append(out, p)
		}
	}
	return out
}

// FindRelevant returns at most max pairs for segments. Exact matches on the
// lowercased, trimmed text come first; if those leave room, pairs sharing
// enough significant words with a segment are added. A pair is never
// returned twice.
func (m *Matcher) FindRelevant(segments []string, max int) []Pair {
	if m.Len() == 0 || len(segments) == 0 || max <= 0 {
		return nil
	}

	var out []Pair
	seen := make(map[Pair]bool)
	include := func(p Pair) bool {
		seen[p] = true
		out = append(out, p)
		return len(out) >= max
	}

	for _, seg := range segments {
		needle := strings.ToLower(strings.TrimSpace(seg))
		for _, p := range m.pairs {
			if seen[p] || needle != strings.ToLower(strings.TrimSpace(p.Original)) {
				continue
			}
			if include(p) {
				return out
			}
		}
	}

	originals := make([]map[string]struct{}, len(m.pairs))
	for i, p := range m.pairs {
		originals[i] = significantWords(p.Original)
	}
	for _, seg := range segments {
		words := significantWords(seg)
		if len(words) == 0 {
			continue
		}
		threshold := min(2, len(words)/2)
		for i, p := range m.pairs {
			if seen[p] || len(originals[i]) == 0 {
				continue
			}
			if overlap(words, originals[i]) >= threshold && include(p) {
				return out
			}
		}
	}
	return out
}

func significantWords(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		if len([]rune(w)) > minWordLen {
			words[strings.ToLower(w)] = struct{}{}
		}
	}
	return words
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
