package batch

// State is the lifecycle of a single chunk request.
type State int

const (
	StatePending State = iota
	StateSent
	StateParsed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateSent:
		return "SENT"
	case StateParsed:
		return "PARSED"
	case StateFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// Progress reports a chunk state transition. Lines holds the chunk's 1-based
// line numbers; Error is set for StateFailed.
type Progress struct {
	ChunkIndex  int
	TotalChunks int
	Lines       []int
	State       State
	Error       error
}
