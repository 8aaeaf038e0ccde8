package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oukeidos/vertaal/internal/apperrors"
	"github.com/oukeidos/vertaal/internal/batch"
	"github.com/oukeidos/vertaal/internal/figures"
	"github.com/oukeidos/vertaal/internal/files"
	"github.com/oukeidos/vertaal/internal/ingest"
	"github.com/oukeidos/vertaal/internal/language"
	"github.com/oukeidos/vertaal/internal/logger"
	"github.com/oukeidos/vertaal/internal/output"
	"github.com/oukeidos/vertaal/internal/provider"
	"github.com/oukeidos/vertaal/internal/tm"
	"github.com/oukeidos/vertaal/internal/trackchanges"
)

func defaultProvider(ctx context.Context, cfg provider.Config) (provider.Provider, error) {
	a, err := provider.New(ctx, cfg)
	if err != nil {
		if a != nil {
			a.Close()
		}
		return nil, err
	}
	return a, nil
}

// Run executes a full translation or proofreading run: load, dispatch,
// merge and write. Provider failures never abort the run; they surface as
// placeholders and a Partial Success status.
func Run(ctx context.Context, cfg Config) (Result, error) {
	var notes []string
	cfg, notes = cfg.Normalize()
	for _, note := range notes {
		logger.Warn("Config normalized", "detail", note)
	}
	if err := cfg.Validate(); err != nil {
		return Result{Status: StatusFailure}, err
	}

	// 1. Validation & Setup
	same, err := files.SameFile(cfg.InputPath, cfg.OutputPath)
	if err != nil {
		return Result{Status: StatusFailure}, fmt.Errorf("failed to compare input and output paths: %w", err)
	}
	if same {
		return Result{Status: StatusFailure}, apperrors.Configf("input and output files are the same (%s)", cfg.InputPath)
	}
	if err := files.RejectSymlinkPath(cfg.OutputPath); err != nil {
		return Result{Status: StatusFailure}, apperrors.New(apperrors.KindConfig, err.Error(), err)
	}

	shouldOverwrite := cfg.Overwrite
	outputExists := false
	if _, err := os.Stat(cfg.OutputPath); err == nil {
		outputExists = true
		if !shouldOverwrite && cfg.OnConfirmOverwrite != nil {
			shouldOverwrite = cfg.OnConfirmOverwrite(cfg.OutputPath)
		}
		if !shouldOverwrite {
			logger.Info("Output file exists. Aborted by user.", "path", cfg.OutputPath)
			return Result{Status: StatusSkipped}, nil
		}
		logger.Info("Overwriting output file", "path", cfg.OutputPath)
	}

	srcLang, srcKnown := language.Lookup(cfg.SourceLang)
	if srcLang.Name == "" {
		return Result{Status: StatusFailure}, apperrors.Configf("source language is required")
	}
	tgtLang, tgtKnown := language.Lookup(cfg.TargetLang)
	if tgtLang.Name == "" {
		return Result{Status: StatusFailure}, apperrors.Configf("target language is required")
	}
	if language.Same(srcLang, tgtLang, srcKnown && tgtKnown) {
		return Result{Status: StatusFailure}, apperrors.Configf("source and target languages must be different (%s)", srcLang.Name)
	}
	if !srcKnown {
		logger.Warn("Unrecognised source language; using the name as given", "source_lang", srcLang.Name)
	}
	if !tgtKnown {
		logger.Warn("Unrecognised target language; using the name as given", "target_lang", tgtLang.Name)
	}

	// 2. Load input and context resources
	segments, err := ingest.ReadFile(cfg.InputPath, cfg.Mode)
	if err != nil {
		return Result{Status: StatusFailure}, err
	}
	if len(segments) == 0 {
		return Result{Status: StatusFailure}, apperrors.Configf("no segments found in %s", filepath.Base(cfg.InputPath))
	}

	var memory *tm.Memory
	if cfg.Mode == ingest.ModeTranslate && cfg.TMPath != "" {
		memory, err = tm.Load(cfg.TMPath, srcLang.Name, tgtLang.Name)
		if err != nil {
			logger.Error("Translation memory not fully loaded; continuing", "path", cfg.TMPath, "entries", memory.Len(), "error", err)
		}
	}

	changes := trackchanges.NewMatcher()
	for _, path := range cfg.ChangesPaths {
		if _, err := changes.Load(path); err != nil {
			logger.Error("Tracked changes not loaded; continuing", "path", path, "error", err)
		}
	}

	var figureSet figures.Set
	if cfg.FiguresDir != "" {
		figureSet, err = figures.LoadDir(ctx, cfg.FiguresDir)
		if err != nil {
			logger.Error("Figures not loaded; continuing", "dir", cfg.FiguresDir, "error", err)
			figureSet = nil
		}
	}

	// 3. Provider
	newProvider := cfg.NewProvider
	if newProvider == nil {
		newProvider = defaultProvider
	}
	p, err := newProvider(ctx, provider.Config{Name: cfg.Provider, APIKey: cfg.APIKey, Model: cfg.Model})
	if err != nil {
		return Result{Status: StatusFailure}, fmt.Errorf("failed to initialize %s provider: %w", cfg.Provider, err)
	}
	defer p.Close()

	// 4. Dispatch
	logger.Info("Starting run", "mode", string(cfg.Mode), "provider", p.Name(), "model", p.Model(), "segments", len(segments), "source_lang", srcLang.Name, "target_lang", tgtLang.Name)
	outcome, err := batch.New(p).Run(ctx, batch.Job{
		Mode:           cfg.Mode,
		Segments:       segments,
		ChunkSize:      cfg.ChunkSize,
		Concurrency:    cfg.Concurrency,
		TM:             memory,
		Changes:        changes,
		MaxChanges:     cfg.MaxChanges,
		ChangesBudget:  cfg.ChangesBudget,
		Figures:        figureSet,
		SourceLang:     srcLang.Name,
		TargetLang:     tgtLang.Name,
		Instructions:   cfg.Instructions,
		SystemTemplate: cfg.SystemTemplate,
		OnProgress:     cfg.OnProgress,
	})
	if err != nil {
		return Result{Status: StatusFailure, Usage: p.Usage()}, err
	}

	result := Result{
		RunID:            outcome.RunID,
		Provider:         p.Name(),
		Model:            p.Model(),
		Usage:            p.Usage(),
		Segments:         len(segments),
		TMHits:           outcome.TMHits,
		ModelLines:       outcome.ModelLines,
		ModifiedLines:    outcome.ModifiedLines,
		PlaceholderLines: outcome.PlaceholderLines,
		FailedChunks:     outcome.FailedChunks,
		TotalChunks:      outcome.Chunks,
		ChangePairs:      changes.Len(),
		Figures:          len(figureSet),
		Canceled:         outcome.Canceled,
	}

	// 5. Write
	effectiveOutputPath := cfg.OutputPath
	if !(outputExists && shouldOverwrite) {
		safePath, changed, err := files.SafePath(cfg.OutputPath)
		if err != nil {
			result.Status = StatusFailure
			return result, fmt.Errorf("failed to resolve output path: %w", err)
		}
		if changed {
			logger.Warn("Output path adjusted to avoid overwrite", "original", cfg.OutputPath, "effective", safePath)
			effectiveOutputPath = safePath
		}
	}

	written, err := output.Write(effectiveOutputPath, cfg.Mode,
		outcome.Sources(), outcome.Targets(), outcome.Comments(),
		output.Langs{Source: srcLang.Code, Target: tgtLang.Code})
	result.Status = statusFor(err == nil, outcome.HasErrors() || outcome.Canceled)
	if err != nil {
		logger.Error("Output not written", "path", effectiveOutputPath, "error", err)
		return result, err
	}
	result.OutputPath = written.Text
	result.TMXPath = written.TMX

	switch result.Status {
	case StatusSuccess:
		logger.Info("Run finished", "status", string(result.Status), "path", result.OutputPath)
	default:
		logger.Warn("Run finished with errors; check placeholders in output", "status", string(result.Status), "path", result.OutputPath, "placeholders", result.PlaceholderLines, "failed_chunks", result.FailedChunks)
	}
	return result, nil
}
