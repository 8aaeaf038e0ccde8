package trackchanges

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

var (
	spaceBeforeNewline = regexp.MustCompile(`[ \t]+\n`)
	repeatedNewlines   = regexp.MustCompile(`\n+`)
)

func tidy(s string) string {
	s = spaceBeforeNewline.ReplaceAllString(s, "\n")
	s = repeatedNewlines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// paragraph accumulates both readings of one <w:p>.
type paragraph struct {
	original strings.Builder
	final    strings.Builder
}

// parseDOCX returns (original, final) pairs for every paragraph whose
// reading with deletions differs from its reading with insertions.
func parseDOCX(path string) ([]Pair, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, errors.New("word/document.xml not found; is this a valid .docx?")
	}
	rc, err := doc.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return parseDocumentXML(rc)
}

func parseDocumentXML(r io.Reader) ([]Pair, error) {
	dec := xml.NewDecoder(r)

	var (
		pairs     []Pair
		open      []*paragraph
		insDepth  int
		delDepth  int
		propDepth int
		inText    bool
		inDelText bool
	)

	emit := func(s string, original, final bool) {
		for _, p := range open {
			if original {
				p.original.WriteString(s)
			}
			if final {
				p.final.WriteString(s)
			}
		}
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return pairs, fmt.Errorf("document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				open = append(open, &paragraph{})
			case "pPr", "rPr", "sectPr":
				propDepth++
			case "ins":
				insDepth++
			case "del":
				delDepth++
			case "t":
				inText = true
			case "delText":
				inDelText = true
			case "tab":
				if propDepth == 0 {
					emit("\t", insDepth == 0, delDepth == 0)
				}
			case "br", "cr":
				if propDepth == 0 {
					emit("\n", insDepth == 0, delDepth == 0)
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				if len(open) == 0 {
					continue
				}
				p := open[len(open)-1]
				open = open[:len(open)-1]
				original, final := tidy(p.original.String()), tidy(p.final.String())
				if original != final {
					pairs = append(pairs, Pair{Original: original, Final: final})
				}
			case "pPr", "rPr", "sectPr":
				propDepth--
			case "ins":
				insDepth--
			case "del":
				delDepth--
			case "t":
				inText = false
			case "delText":
				inDelText = false
			}
		case xml.CharData:
			switch {
			case inText:
				emit(string(t), insDepth == 0, delDepth == 0)
			case inDelText:
				emit(string(t), insDepth == 0, false)
			}
		}
	}
	return pairs, nil
}
