package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/oukeidos/vertaal/internal/apperrors"
	"github.com/oukeidos/vertaal/internal/batch"
	"github.com/oukeidos/vertaal/internal/ingest"
	"github.com/oukeidos/vertaal/internal/provider"
	"github.com/oukeidos/vertaal/internal/trackchanges"
)

// Config holds everything a translation or proofreading run needs.
type Config struct {
	// IO Paths
	InputPath  string
	OutputPath string

	Mode ingest.Mode

	// Provider
	Provider string
	APIKey   string
	Model    string

	// Processing Parameters
	ChunkSize     int
	Concurrency   int
	MaxChanges    int
	ChangesBudget int

	// Languages, as names ("Dutch") or codes ("nl-NL")
	SourceLang string
	TargetLang string

	// Prompt
	Instructions   string
	SystemTemplate string

	// Context resources, all optional
	TMPath       string
	ChangesPaths []string
	FiguresDir   string

	// Overwrite replaces an existing output file without asking.
	Overwrite bool

	// Callbacks
	OnProgress func(batch.Progress)

	// OnConfirmOverwrite is called when the output file exists and Overwrite
	// is false. Returning false skips the run.
	OnConfirmOverwrite func(path string) bool

	// NewProvider replaces provider.New, mainly for tests.
	NewProvider func(ctx context.Context, cfg provider.Config) (provider.Provider, error)
}

const (
	MinConcurrency = 1
	MaxConcurrency = 10
	MaxChangePairs = 100
)

func ClampConcurrency(value int) (int, bool) {
	if value < MinConcurrency {
		return MinConcurrency, true
	}
	if value > MaxConcurrency {
		return MaxConcurrency, true
	}
	return value, false
}

// Normalize applies defaults and safe bounds and returns a note for every
// adjustment.
func (c Config) Normalize() (Config, []string) {
	var notes []string
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.Mode = ingest.Mode(strings.ToLower(strings.TrimSpace(string(c.Mode))))
	if c.Mode == "" {
		c.Mode = ingest.ModeTranslate
	}
	if clamped, changed := ClampConcurrency(c.Concurrency); changed {
		notes = append(notes, fmt.Sprintf("concurrency clamped from %d to %d (max %d)", c.Concurrency, clamped, MaxConcurrency))
		c.Concurrency = clamped
	}
	if c.MaxChanges <= 0 {
		c.MaxChanges = trackchanges.DefaultMaxPairs
	} else if c.MaxChanges > MaxChangePairs {
		notes = append(notes, fmt.Sprintf("max-changes clamped from %d to %d", c.MaxChanges, MaxChangePairs))
		c.MaxChanges = MaxChangePairs
	}
	if c.ChangesBudget <= 0 {
		c.ChangesBudget = trackchanges.DefaultBudget
	}
	return c, notes
}

// Validate checks the configuration. Every error is a config error.
func (c Config) Validate() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return apperrors.Configf("input path is required")
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return apperrors.Configf("output path is required")
	}
	if c.Mode != ingest.ModeTranslate && c.Mode != ingest.ModeProofread {
		return apperrors.Configf("unknown mode %q (use translate or proofread)", c.Mode)
	}
	if c.ChunkSize <= 0 {
		return apperrors.Configf("chunk size must be greater than 0, got %d", c.ChunkSize)
	}
	if c.Concurrency <= 0 {
		return apperrors.Configf("concurrency must be greater than 0, got %d", c.Concurrency)
	}
	if _, ok := provider.Canonical(c.Provider); !ok {
		return apperrors.Configf("unknown provider %q (supported: %s)", c.Provider, strings.Join(provider.Names(), ", "))
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return apperrors.Configf("API key is required")
	}
	return nil
}
