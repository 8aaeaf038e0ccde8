// Package tm provides exact-match translation memory lookups loaded from
// TMX or two-column tab-delimited files.
package tm

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oukeidos/vertaal/internal/apperrors"
	"github.com/oukeidos/vertaal/internal/language"
	"github.com/oukeidos/vertaal/internal/logger"
	"golang.org/x/text/unicode/norm"
)

// Memory maps normalized source segments to target segments.
// It is safe for concurrent reads once loading has finished.
type Memory struct {
	entries map[string]string
}

func New() *Memory {
	return &Memory{entries: make(map[string]string)}
}

// Key normalizes a segment for storage and lookup.
func Key(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// Add stores a pair; later additions of the same key win.
func (m *Memory) Add(source, target string) {
	key := Key(source)
	if key == "" {
		return
	}
	m.entries[key] = target
}

// Lookup returns the stored target for source.
func (m *Memory) Lookup(source string) (string, bool) {
	if m == nil || len(m.entries) == 0 {
		return "", false
	}
	target, ok := m.entries[Key(source)]
	return target, ok
}

func (m *Memory) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Load reads a .tmx, .txt or .tsv file. srcLang and tgtLang may be names
// ("Dutch") or codes ("nl-NL"); TMX units are filtered by their base code.
//
// The returned Memory is never nil. When err is non-nil it still holds
// every entry read before the failure.
func Load(path, srcLang, tgtLang string) (*Memory, error) {
	m := New()
	src := language.SimpleCode(srcLang)
	tgt := language.SimpleCode(tgtLang)
	if src == "" || tgt == "" {
		return m, apperrors.New(apperrors.KindParse, "source and target languages are required to load a TM", nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return m, apperrors.Parse(path, err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".tmx":
		err = m.readTMX(f, src, tgt)
	case ".txt", ".tsv":
		err = m.readDelimited(f)
	default:
		err = fmt.Errorf("unsupported TM file type %q", ext)
	}
	if err != nil {
		return m, apperrors.Parse(path, err)
	}
	logger.Info("TM loaded", "path", path, "entries", m.Len(), "source_lang", src, "target_lang", tgt)
	return m, nil
}

func (m *Memory) readDelimited(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		src, tgt, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		m.Add(src, tgt)
	}
	return sc.Err()
}

type tmxUnit struct {
	Variants []tmxVariant `xml:"tuv"`
}

type tmxVariant struct {
	Attrs []xml.Attr `xml:",any,attr"`
	Seg   *tmxSeg    `xml:"seg"`
}

// tmxSeg holds the text of a <seg> in document order, including text
// nested in inline markup such as <bpt> or <hi>.
type tmxSeg struct {
	text string
}

func (s *tmxSeg) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			b.Write(t)
		}
	}
	s.text = b.String()
	return nil
}

func (s *tmxSeg) String() string {
	if s == nil {
		return ""
	}
	return s.text
}

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// lang returns xml:lang, or the plain lang attribute written by TMX 1.1 tools.
func (v tmxVariant) lang() string {
	var legacy string
	for _, a := range v.Attrs {
		if a.Name.Local != "lang" {
			continue
		}
		if a.Name.Space == xmlNamespace {
			return a.Value
		}
		if a.Name.Space == "" {
			legacy = a.Value
		}
	}
	return legacy
}

// readTMX streams <tu> elements so a truncated file keeps the units that
// were decoded before the syntax error.
func (m *Memory) readTMX(r io.Reader, src, tgt string) error {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "tu" {
			continue
		}
		var unit tmxUnit
		if err := dec.DecodeElement(&unit, &start); err != nil {
			return err
		}
		var srcSeg, tgtSeg *tmxSeg
		for _, v := range unit.Variants {
			lang := v.lang()
			if lang == "" || v.Seg == nil {
				continue
			}
			switch language.BaseCode(lang) {
			case src:
				srcSeg = v.Seg
			case tgt:
				tgtSeg = v.Seg
			}
		}
		if srcSeg == nil || tgtSeg == nil {
			continue
		}
		source := strings.TrimSpace(srcSeg.String())
		if source == "" {
			continue
		}
		m.Add(source, strings.TrimSpace(tgtSeg.String()))
	}
}
