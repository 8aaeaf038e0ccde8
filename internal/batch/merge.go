package batch

import (
	"strings"

	"github.com/oukeidos/vertaal/internal/chunker"
	"github.com/oukeidos/vertaal/internal/ingest"
)

const (
	NoTranslation = "[ERR - No TL]"
	NotProcessed  = "[Segment not processed by AI Proofreader]"

	originalCommentLabel = "ORIGINAL COMMENT:\n"
	aiCommentLabel       = "PROOFREADER COMMENT (AI):\n"
	modifiedNote         = "Segment was modified by AI."
	identicalNote        = " (Note: Text appears identical to original despite summary.)"
)

// Markers that identify a placeholder rather than model output.
var placeholderMarkers = []string{"[Err", "[ERR", "[TL Err", "[Missing", "[TL Missing", "[SYS ERR"}

// Row is one output line. Comment is only filled when proofreading.
type Row struct {
	Line    int
	Source  string
	Target  string
	Comment string
	// Placeholder is set when Target is not a usable model or TM result.
	Placeholder bool
}

// Outcome is the merged result of a run, one row per input segment in
// input order.
type Outcome struct {
	RunID string
	Mode  ingest.Mode
	Rows  []Row

	TMHits           int
	ModelLines       int
	Chunks           int
	FailedChunks     int
	ModifiedLines    int
	PlaceholderLines int
	Canceled         bool
}

// HasErrors reports whether any row carries a placeholder.
func (o *Outcome) HasErrors() bool {
	return o.PlaceholderLines > 0 || o.FailedChunks > 0
}

// Sources, Targets and Comments return the row columns.
func (o *Outcome) Sources() []string {
	out := make([]string, len(o.Rows))
	for i, r := range o.Rows {
		out[i] = r.Source
	}
	return out
}

func (o *Outcome) Targets() []string {
	out := make([]string, len(o.Rows))
	for i, r := range o.Rows {
		out[i] = r.Target
	}
	return out
}

func (o *Outcome) Comments() []string {
	out := make([]string, len(o.Rows))
	for i, r := range o.Rows {
		out[i] = r.Comment
	}
	return out
}

// IsPlaceholder reports whether text contains one of the error or missing
// line markers.
func IsPlaceholder(text string) bool {
	for _, m := range placeholderMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func merge(job Job, chunks []chunker.Chunk, results []chunkResult, tmHits map[int]string) *Outcome {
	out := &Outcome{
		Mode:   job.Mode,
		Rows:   make([]Row, len(job.Segments)),
		TMHits: len(tmHits),
		Chunks: len(chunks),
	}

	chunkOf := make(map[int]int, len(job.Segments))
	for ci, c := range chunks {
		for _, idx := range c.Indices {
			chunkOf[idx] = ci
		}
		if results[ci].failed {
			out.FailedChunks++
		} else {
			out.ModelLines += len(c.Indices)
		}
	}

	for i, seg := range job.Segments {
		row := Row{Line: seg.Line, Source: seg.Source}
		ci, routed := chunkOf[i]
		var res chunkResult
		if routed {
			res = results[ci]
		}

		if job.Mode == ingest.ModeTranslate {
			row.Target = translated(seg, tmHits, i, res)
			row.Placeholder = IsPlaceholder(row.Target) || res.failed
		} else {
			var modified bool
			row.Target, row.Comment, modified = proofread(seg, res)
			row.Placeholder = IsPlaceholder(row.Target) || res.failed
			if modified {
				out.ModifiedLines++
			}
		}
		if row.Placeholder {
			out.PlaceholderLines++
		}
		out.Rows[i] = row
	}
	return out
}

func translated(seg ingest.Segment, tmHits map[int]string, idx int, res chunkResult) string {
	if hit, ok := tmHits[idx]; ok {
		return hit
	}
	if text, ok := res.translate[seg.Line]; ok {
		return text
	}
	return NoTranslation
}

// proofread returns the revised target and the output comment, and whether
// the revised text differs from the existing translation.
func proofread(seg ingest.Segment, res chunkResult) (string, string, bool) {
	revised := seg.Target
	summary := NotProcessed
	failed := false
	if rev, ok := res.proofread[seg.Line]; ok {
		revised = rev.Revised
		summary = rev.Summary
		failed = rev.Failed
	}

	var parts []string
	if seg.Comment != "" {
		parts = append(parts, originalCommentLabel+seg.Comment)
	}

	modified := strings.TrimSpace(revised) != strings.TrimSpace(seg.Target)
	hasSummary := summary != "" && !strings.Contains(summary, "No changes made")
	switch {
	case failed && hasSummary:
		parts = append(parts, aiCommentLabel+summary)
	case modified && hasSummary:
		parts = append(parts, aiCommentLabel+summary)
	case modified:
		parts = append(parts, aiCommentLabel+modifiedNote)
	case hasSummary:
		parts = append(parts, aiCommentLabel+summary+identicalNote)
	}
	return revised, strings.TrimSpace(strings.Join(parts, "\n\n")), modified
}
