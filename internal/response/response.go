// Package response reconciles a model's numbered-list reply with the line
// numbers that were requested.
package response

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/oukeidos/vertaal/internal/logger"
)

const (
	SummaryStart = "---CHANGES SUMMARY START---"
	SummaryEnd   = "---CHANGES SUMMARY END---"
	NoChanges    = "No changes made to any segment in this batch."
)

var numberedLine = regexp.MustCompile(`^\s*(\d+)\.\s*(.*)`)

// MissingTranslation is the placeholder for a requested line the model
// did not return.
func MissingTranslation(line int) string {
	return fmt.Sprintf("[TL Missing line %d]", line)
}

// Split separates the revised list from the changes summary. Without a
// start sentinel the whole reply is the list and the summary is empty. A
// missing end sentinel extends the summary to the end of the reply.
func Split(raw string) (list, summary string) {
	before, after, found := strings.Cut(raw, SummaryStart)
	if !found {
		return strings.TrimSpace(raw), ""
	}
	if s, _, ok := strings.Cut(after, SummaryEnd); ok {
		after = s
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

// Numbered extracts "N. text" lines whose N is in allowed. When a number
// appears more than once the last occurrence wins.
func Numbered(block string, allowed []int) map[int]string {
	want := make(map[int]bool, len(allowed))
	for _, n := range allowed {
		want[n] = true
	}
	out := make(map[int]string)
	for _, line := range strings.Split(block, "\n") {
		m := numberedLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || !want[n] {
			continue
		}
		out[n] = strings.TrimSpace(m[2])
	}
	return out
}

// Summaries parses the per-line change descriptions. It returns nil when the
// block is empty or states that nothing changed.
func Summaries(block string, allowed []int) map[int]string {
	if strings.TrimSpace(block) == "" || strings.Contains(block, NoChanges) {
		return nil
	}
	return Numbered(block, allowed)
}

// Translation maps every requested line to its parsed translation, or to a
// missing-line placeholder.
func Translation(raw string, lines []int) map[int]string {
	parsed := Numbered(raw, lines)
	out := make(map[int]string, len(lines))
	for _, n := range lines {
		if text, ok := parsed[n]; ok {
			out[n] = text
			continue
		}
		logger.Warn("Missing translation in model reply; using placeholder", "line", n)
		out[n] = MissingTranslation(n)
	}
	return out
}

// Revision is the proofreading outcome for one line.
type Revision struct {
	Revised  string
	Summary  string
	Original string
	// Failed marks lines whose model call errored; Summary then holds the error.
	Failed bool
}

// Proofread maps every requested line to a Revision. originals holds the
// existing target text keyed by line number. A missing or empty revised
// line falls back to the original text.
func Proofread(raw string, lines []int, originals map[int]string) map[int]Revision {
	list, summary := Split(raw)
	revised := Numbered(list, lines)
	summaries := Summaries(summary, lines)

	out := make(map[int]Revision, len(lines))
	for _, n := range lines {
		original := originals[n]
		text, ok := revised[n]
		if !ok || strings.TrimSpace(text) == "" {
			logger.Info("Keeping original translation (missing or empty revised output)", "line", n)
			text = original
		}
		out[n] = Revision{
			Revised:  text,
			Summary:  summaries[n],
			Original: original,
		}
	}
	return out
}
