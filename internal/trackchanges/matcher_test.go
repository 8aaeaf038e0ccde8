package trackchanges

import (
	"archive/zip"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/oukeidos/vertaal/internal/apperrors"
)

func writeDOCX(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "review.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip entry: %v", err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func writeTSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "changes.tsv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write tsv: %v", err)
	}
	return path
}

func TestLoadDOCX(t *testing.T) {
	body := `<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>` +
		`<w:r><w:t xml:space="preserve">The </w:t></w:r>` +
		`<w:del w:id="1" w:author="r"><w:r><w:delText>valve</w:delText></w:r></w:del>` +
		`<w:ins w:id="2" w:author="r"><w:r><w:t>check valve</w:t></w:r></w:ins>` +
		`<w:r><w:t xml:space="preserve"> opens.</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Unchanged paragraph.</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Line one</w:t><w:tab/><w:t>tabbed</w:t></w:r>` +
		`<w:ins w:id="3" w:author="r"><w:r><w:t xml:space="preserve">  </w:t><w:br/><w:br/><w:t>Line two</w:t></w:r></w:ins></w:p>`

	m := NewMatcher()
	n, err := m.LoadDOCX(writeDOCX(t, body))
	if err != nil {
		t.Fatalf("LoadDOCX() error = %v", err)
	}
	want := []Pair{
		{Original: "The valve opens.", Final: "The check valve opens."},
		{Original: "Line one\ttabbed", Final: "Line one\ttabbed\nLine two"},
	}
	if n != len(want) || !reflect.DeepEqual(m.Pairs(), want) {
		t.Fatalf("pairs = %#v, want %#v", m.Pairs(), want)
	}
	if got := m.Files(); len(got) != 1 || got[0] != "review.docx" {
		t.Fatalf("Files() = %v", got)
	}
}

func TestLoadDOCX_Invalid(t *testing.T) {
	m := NewMatcher()
	_, err := m.LoadDOCX(writeTSV(t, "not a zip"))
	if !apperrors.Is(err, apperrors.KindParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("failed load must not add pairs")
	}
}

func TestLoadTSV(t *testing.T) {
	content := "Original\tFinal\n" +
		"the housing\tthe casing\n" +
		"\n" +
		"single column\n" +
		"same\tsame\n" +
		"  padded  \t  trimmed  \n" +
		"\tempty original\n"
	m := NewMatcher()
	n, err := m.Load(writeTSV(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []Pair{
		{Original: "the housing", Final: "the casing"},
		{Original: "padded", Final: "trimmed"},
	}
	if n != 2 || !reflect.DeepEqual(m.Pairs(), want) {
		t.Fatalf("pairs = %#v, want %#v", m.Pairs(), want)
	}
}

func TestLoadTSV_HeaderOnlySkippedOnFirstLine(t *testing.T) {
	content := "a\tb\noriginal text\tfinal text\n"
	m := NewMatcher()
	if _, err := m.LoadTSV(writeTSV(t, content)); err != nil {
		t.Fatalf("LoadTSV() error = %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
}

func TestLoad_AppendsWithoutDedup(t *testing.T) {
	path := writeTSV(t, "x\ty\n")
	m := NewMatcher()
	for i := 0; i < 2; i++ {
		if _, err := m.Load(path); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	m.Clear()
	if m.Len() != 0 || len(m.Files()) != 0 {
		t.Fatalf("Clear() left state behind")
	}
}

func matcherWith(pairs ...Pair) *Matcher {
	return &Matcher{pairs: pairs}
}

func TestFindRelevant(t *testing.T) {
	housing := Pair{"The housing is sealed.", "The casing is sealed."}
	valve := Pair{"a rotating valve member", "a rotatable valve member"}
	spring := Pair{"The spring biases the lever", "The spring urges the lever"}
	short := Pair{"is a", "is an"}

	tests := []struct {
		name     string
		pairs    []Pair
		segments []string
		max      int
		want     []Pair
	}{
		{
			name:     "exact match ignores case and padding",
			pairs:    []Pair{valve, housing},
			segments: []string{"  the HOUSING is sealed.  "},
			max:      10,
			want:     []Pair{housing},
		},
		{
			name:     "overlap needs two shared significant words",
			pairs:    []Pair{housing, valve, spring},
			segments: []string{"Each valve member is rotating freely"},
			max:      10,
			want:     []Pair{valve},
		},
		{
			name:     "exact matches come before overlap matches",
			pairs:    []Pair{spring, housing},
			segments: []string{"The spring biases the lever arm", "The housing is sealed."},
			max:      10,
			want:     []Pair{housing, spring},
		},
		{
			name:     "max stops the exact pass",
			pairs:    []Pair{housing, housing, valve},
			segments: []string{"The housing is sealed.", "a rotating valve member"},
			max:      1,
			want:     []Pair{housing},
		},
		{
			name:     "duplicate pairs are returned once",
			pairs:    []Pair{housing, housing},
			segments: []string{"The housing is sealed."},
			max:      10,
			want:     []Pair{housing},
		},
		{
			name:     "segment without significant words matches nothing by overlap",
			pairs:    []Pair{short},
			segments: []string{"it is a"},
			max:      10,
			want:     nil,
		},
		{
			name:     "single significant word lowers the threshold to zero",
			pairs:    []Pair{housing, short},
			segments: []string{"lever"},
			max:      10,
			want:     []Pair{housing},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matcherWith(tt.pairs...).FindRelevant(tt.segments, tt.max)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("FindRelevant() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestFindRelevant_Empty(t *testing.T) {
	var m *Matcher
	if got := m.FindRelevant([]string{"x"}, 10); got != nil {
		t.Fatalf("nil matcher returned %v", got)
	}
	if got := matcherWith(Pair{"a", "b"}).FindRelevant(nil, 10); got != nil {
		t.Fatalf("no segments returned %v", got)
	}
}

func TestSearch(t *testing.T) {
	m := matcherWith(
		Pair{"The Housing", "The casing"},
		Pair{"a valve", "a check valve"},
	)
	tests := []struct {
		name  string
		text  string
		exact bool
		want  int
	}{
		{"empty returns all", "  ", false, 2},
		{"substring is case insensitive", "HOUSING", false, 1},
		{"substring matches final side", "check", false, 1},
		{"exact requires whole text", "a valve", true, 1},
		{"exact is case sensitive", "the housing", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Search(tt.text, tt.exact); len(got) != tt.want {
				t.Fatalf("Search(%q, %v) = %v, want %d results", tt.text, tt.exact, got, tt.want)
			}
		})
	}
}

func TestFormatContext(t *testing.T) {
	pairs := []Pair{{"a", "b"}, {"c", "d"}, {"e", "f"}}

	t.Run("all pairs fit", func(t *testing.T) {
		got := FormatContext(pairs, DefaultBudget)
		want := "TRACKED CHANGES REFERENCE (Original→Final editing patterns):\n" +
			"• \"a\" → \"b\"\n" +
			"• \"c\" → \"d\"\n" +
			"• \"e\" → \"f\"\n"
		if got != want {
			t.Fatalf("FormatContext() = %q, want %q", got, want)
		}
	})

	t.Run("budget truncates after first example", func(t *testing.T) {
		// Header is 60 characters and each example line 11.
		got := FormatContext(pairs, 71)
		want := contextHeader + "\n• \"a\" → \"b\"\n" + truncationNotice + "\n"
		if got != want {
			t.Fatalf("FormatContext() = %q, want %q", got, want)
		}
	})

	t.Run("no notice when nothing fits", func(t *testing.T) {
		got := FormatContext(pairs, 65)
		if got != contextHeader+"\n" {
			t.Fatalf("FormatContext() = %q", got)
		}
	})

	t.Run("counts graphemes not bytes", func(t *testing.T) {
		wide := []Pair{{"überprüfung", "prüfung"}}
		n := len([]rune(`• "überprüfung" → "prüfung"`))
		got := FormatContext(wide, 60+n)
		if strings.Contains(got, truncationNotice) || !strings.Contains(got, "überprüfung") {
			t.Fatalf("FormatContext() = %q", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if got := FormatContext(nil, DefaultBudget); got != "" {
			t.Fatalf("FormatContext(nil) = %q", got)
		}
	})
}
