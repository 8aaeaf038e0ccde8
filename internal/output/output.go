// Package output writes the tab-separated result file and, for translation
// runs, a TMX 1.4 memory next to it.
package output

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oukeidos/vertaal/internal/files"
	"github.com/oukeidos/vertaal/internal/ingest"
	"github.com/oukeidos/vertaal/internal/language"
	"github.com/oukeidos/vertaal/internal/logger"
	"github.com/oukeidos/vertaal/internal/version"
)

const creationTool = "vertaal"

var now = time.Now

// Files lists what Write produced. TMX is empty when no memory was written.
type Files struct {
	Text string
	TMX  string
}

// Langs are the run languages as names or codes; TMX uses their base codes.
type Langs struct {
	Source string
	Target string
}

// Write stores one row per segment. Columns are truncated to the shortest of
// sources and targets; comments are padded with empty strings and only
// written when proofreading. A failing TMX write is logged and not returned.
func Write(path string, mode ingest.Mode, sources, targets, comments []string, langs Langs) (Files, error) {
	n := min(len(sources), len(targets))
	if len(sources) != len(targets) {
		logger.Warn("Source and target counts differ; truncating output", "sources", len(sources), "targets", len(targets), "rows", n)
	}
	sources, targets = sources[:n], targets[:n]

	err := files.WriteAtomic(path, 0o644, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		for i := 0; i < n; i++ {
			var err error
			if mode == ingest.ModeProofread {
				comment := ""
				if i < len(comments) {
					comment = comments[i]
				}
				_, err = fmt.Fprintf(bw, "%s\t%s\t%s\n", sources[i], targets[i], comment)
			} else {
				_, err = fmt.Fprintf(bw, "%s\t%s\n", sources[i], targets[i])
			}
			if err != nil {
				return err
			}
		}
		return bw.Flush()
	})
	if err != nil {
		return Files{}, fmt.Errorf("write output %s: %w", filepath.Base(path), err)
	}
	logger.Info("Output written", "path", path, "rows", n)

	out := Files{Text: path}
	if mode != ingest.ModeTranslate {
		return out, nil
	}
	tmxPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".tmx"
	units, err := WriteTMX(tmxPath, sources, targets, langs)
	if err != nil {
		logger.Warn("TMX not written", "path", tmxPath, "error", err)
		return out, nil
	}
	logger.Info("TMX written", "path", tmxPath, "units", units)
	out.TMX = tmxPath
	return out, nil
}

type tmxDoc struct {
	XMLName xml.Name  `xml:"tmx"`
	Version string    `xml:"version,attr"`
	Header  tmxHeader `xml:"header"`
	Units   []tmxUnit `xml:"body>tu"`
}

type tmxHeader struct {
	CreationDate        string `xml:"creationdate,attr"`
	SrcLang             string `xml:"srclang,attr"`
	AdminLang           string `xml:"adminlang,attr"`
	SegType             string `xml:"segtype,attr"`
	CreationTool        string `xml:"creationtool,attr"`
	CreationToolVersion string `xml:"creationtoolversion,attr"`
	DataType            string `xml:"datatype,attr"`
}

type tmxUnit struct {
	Variants []tmxVariant `xml:"tuv"`
}

type tmxVariant struct {
	Lang string `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
	Seg  string `xml:"seg"`
}

// Exportable reports whether a pair belongs in a TMX export.
func Exportable(source, target string) bool {
	if strings.TrimSpace(source) == "" || target == "" {
		return false
	}
	return !strings.Contains(target, "[ERR") &&
		!strings.Contains(target, "[Err") &&
		!strings.Contains(target, "[Missing")
}

// WriteTMX writes exportable pairs as a TMX 1.4 document and returns the
// number of translation units.
func WriteTMX(path string, sources, targets []string, langs Langs) (int, error) {
	src := language.SimpleCode(langs.Source)
	if src == "" {
		src = "en"
	}
	tgt := language.SimpleCode(langs.Target)
	if tgt == "" {
		tgt = "en"
	}

	doc := tmxDoc{
		Version: "1.4",
		Header: tmxHeader{
			CreationDate:        now().UTC().Format("20060102T150405Z"),
			SrcLang:             src,
			AdminLang:           "en",
			SegType:             "sentence",
			CreationTool:        creationTool,
			CreationToolVersion: version.Version,
			DataType:            "plaintext",
		},
	}
	for i := 0; i < min(len(sources), len(targets)); i++ {
		if !Exportable(sources[i], targets[i]) {
			continue
		}
		doc.Units = append(doc.Units, tmxUnit{Variants: []tmxVariant{
			{Lang: src, Seg: strings.TrimSpace(sources[i])},
			{Lang: tgt, Seg: strings.TrimSpace(targets[i])},
		}})
	}

	err := files.WriteAtomic(path, 0o644, func(w io.Writer) error {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	})
	if err != nil {
		return 0, err
	}
	return len(doc.Units), nil
}

// DefaultPath derives an output path from the input path, e.g.
// claims.txt -> claims_nl.txt, avoiding existing files.
func DefaultPath(inputPath string, mode ingest.Mode, targetLang string) string {
	ext := filepath.Ext(inputPath)
	if ext == "" {
		ext = ".txt"
	}
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	suffix := "_" + language.SimpleCode(targetLang)
	if mode == ingest.ModeProofread {
		suffix += "_proofread"
	}

	primary := base + suffix + ext
	if _, err := os.Stat(primary); os.IsNotExist(err) {
		return primary
	}
	for i := 0; i <= 9; i++ {
		candidate := fmt.Sprintf("%s%s_%d%s", base, suffix, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
	u, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("%s%s_%s%s", base, suffix, uuid.NewString()[:8], ext)
	}
	return fmt.Sprintf("%s%s_%s%s", base, suffix, u.String(), ext)
}
