package version

import "fmt"

// Build metadata, set with:
// go build -ldflags "-X github.com/oukeidos/vertaal/internal/version.Version=0.3.0 -X ...Commit=abcdef1"
var (
	Version   = "0.3.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns a multi-line version string for CLI output.
func Info() string {
	return fmt.Sprintf("vertaal %s\ncommit: %s\nbuild: %s", Version, Commit, BuildDate)
}
