package pipeline

import "github.com/oukeidos/vertaal/internal/llm"

// Status is the terminal state of a run.
type Status string

const (
	StatusSuccess        Status = "Success"
	StatusPartialSuccess Status = "Partial Success"
	StatusFailure        Status = "Failure"
	StatusSkipped        Status = "Skipped"
)

// Result contains structured outputs from Run.
type Result struct {
	Status     Status
	RunID      string
	OutputPath string
	TMXPath    string

	Provider string
	Model    string
	Usage    llm.Usage

	Segments         int
	TMHits           int
	ModelLines       int
	ModifiedLines    int
	PlaceholderLines int
	FailedChunks     int
	TotalChunks      int
	ChangePairs      int
	Figures          int
	Canceled         bool
}

// statusFor maps the write outcome and error presence to a status. Any
// placeholder in a written file makes the run partial.
func statusFor(written, hadErrors bool) Status {
	switch {
	case !written:
		return StatusFailure
	case hadErrors:
		return StatusPartialSuccess
	default:
		return StatusSuccess
	}
}
