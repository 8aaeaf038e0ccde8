// Package ingest reads the line-oriented input files for both run modes.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oukeidos/vertaal/internal/apperrors"
	"github.com/oukeidos/vertaal/internal/logger"
)

type Mode string

const (
	ModeTranslate Mode = "translate"
	ModeProofread Mode = "proofread"
)

// ParseMode accepts either mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeTranslate:
		return ModeTranslate, nil
	case ModeProofread:
		return ModeProofread, nil
	}
	return "", apperrors.Configf("unknown mode %q (want translate or proofread)", s)
}

// Segment is one unit of input. Line is its 1-based position among the
// accepted segments, which is also its number in model prompts.
type Segment struct {
	Line   int
	Source string
	// Target and Comment are only set in proofread mode.
	Target     string
	Comment    string
	HasComment bool
}

// ReadFile opens path and parses it for mode.
func ReadFile(path string, mode Mode) ([]Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Parse(path, err)
	}
	defer f.Close()

	segments, err := Read(f, mode)
	if err != nil {
		return nil, apperrors.Parse(path, err)
	}
	logger.Info("Input loaded", "path", path, "mode", string(mode), "segments", len(segments))
	return segments, nil
}

// Read parses r line by line. Blank lines are skipped in both modes.
//
// Translate: the first tab-separated field, trimmed, is the source.
// Proofread: each line must hold source, target and an optional comment,
// separated by tabs; the comment keeps any further tabs. Other lines are
// skipped with a warning.
func Read(r io.Reader, mode Mode) ([]Segment, error) {
	if mode != ModeTranslate && mode != ModeProofread {
		return nil, fmt.Errorf("unsupported mode %q", mode)
	}

	var segments []Segment
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	fileLine := 0
	for sc.Scan() {
		fileLine++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		seg := Segment{Line: len(segments) + 1}
		switch mode {
		case ModeTranslate:
			if strings.Contains(line, "\t") {
				fields := strings.Split(line, "\t")
				logger.Debug("Using first tab-separated field as source", "line", fileLine, "fields", len(fields))
				line = fields[0]
			}
			seg.Source = strings.TrimSpace(line)
			if seg.Source == "" {
				logger.Warn("Empty source after trimming; skipping line", "line", fileLine)
				continue
			}
		case ModeProofread:
			fields := strings.SplitN(line, "\t", 3)
			if len(fields) < 2 {
				logger.Warn("Skipping proofread line: needs 2 or 3 tab-separated columns", "line", fileLine, "fields", len(fields))
				continue
			}
			seg.Source = fields[0]
			seg.Target = fields[1]
			if len(fields) == 3 {
				seg.Comment = fields[2]
				seg.HasComment = true
			}
		}
		segments = append(segments, seg)
	}
	if err := sc.Err(); err != nil {
		return segments, err
	}
	return segments, nil
}

// Sources returns the source text of every segment, in order.
func Sources(segments []Segment) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Source
	}
	return out
}

// Targets returns the existing target text of every segment, in order.
func Targets(segments []Segment) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Target
	}
	return out
}
