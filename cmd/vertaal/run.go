package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/oukeidos/vertaal/internal/apperrors"
	"github.com/oukeidos/vertaal/internal/batch"
	"github.com/oukeidos/vertaal/internal/cleanup"
	"github.com/oukeidos/vertaal/internal/files"
	"github.com/oukeidos/vertaal/internal/ingest"
	"github.com/oukeidos/vertaal/internal/logger"
	"github.com/oukeidos/vertaal/internal/metadata"
	"github.com/oukeidos/vertaal/internal/output"
	"github.com/oukeidos/vertaal/internal/pipeline"
	"github.com/oukeidos/vertaal/internal/prompt"
	"github.com/oukeidos/vertaal/internal/promptlib"
	"github.com/oukeidos/vertaal/internal/provider"
	"github.com/spf13/cobra"
)

type runOptions struct {
	providerName     string
	model            string
	sourceLang       string
	targetLang       string
	chunkSize        int
	concurrency      int
	maxChanges       int
	changesBudget    int
	tmPath           string
	changesPaths     []string
	figuresDir       string
	instructions     string
	instructionsFile string
	systemPromptFile string
	promptSet        string
	yes              bool
	logFilePath      string
	allowEnv         bool
	envOnly          bool
	debug            bool
	configPath       string
}

var (
	runPipeline     = pipeline.Run
	promptLibraryAt = promptlib.DefaultDir
)

func newRunCmd(mode ingest.Mode) *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:          fmt.Sprintf("%s <input.txt> [output.txt]", mode),
		Short:        "Translate a patent segment file, one segment per line",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return fmt.Errorf("input file is required")
			}
			return runJob(cmd, args, mode, &opts)
		},
	}
	if mode == ingest.ModeProofread {
		cmd.Short = "Proofread a tab-separated source/target file"
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addRunFlags(cmd, &opts)
	return cmd
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.providerName, "provider", "p", provider.Gemini, "LLM provider ("+strings.Join(provider.Names(), ", ")+")")
	f.StringVarP(&opts.model, "model", "m", "", "Model identifier (default: the provider's first catalog model)")
	f.StringVarP(&opts.sourceLang, "source", "s", "English", "Source language name or code")
	f.StringVarP(&opts.targetLang, "target", "t", "Dutch", "Target language name or code")
	f.IntVar(&opts.chunkSize, "chunk-size", batch.DefaultChunkSize, "Number of segments per request")
	f.IntVar(&opts.concurrency, "concurrency", 1, fmt.Sprintf("Number of concurrent requests (%d-%d)", pipeline.MinConcurrency, pipeline.MaxConcurrency))
	f.IntVar(&opts.maxChanges, "max-changes", 0, "Maximum tracked-change examples per request (default 10)")
	f.IntVar(&opts.changesBudget, "changes-budget", 0, "Character budget for tracked-change examples (default 1000)")
	f.StringVar(&opts.tmPath, "tm", "", "Translation memory file (.tmx, .tsv or .txt)")
	f.StringArrayVar(&opts.changesPaths, "changes", nil, "Tracked-changes file (.docx or .tsv); repeatable")
	f.StringVar(&opts.figuresDir, "figures", "", "Folder of figure images (png, jpg, webp)")
	f.StringVar(&opts.instructions, "instructions", "", "Extra instructions appended to every request")
	f.StringVar(&opts.instructionsFile, "instructions-file", "", "Read extra instructions from a file")
	f.StringVar(&opts.systemPromptFile, "system-prompt", "", "File with a custom system prompt ({source_lang}, {target_lang})")
	f.StringVar(&opts.promptSet, "prompt-set", "", "Use the system prompt from a saved prompt set")
	f.BoolVarP(&opts.yes, "yes", "y", false, "Overwrite output file without asking")
	f.StringVar(&opts.logFilePath, "log-file", "", "Path to save machine-readable JSONL logs")
	f.BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading API key from environment variables")
	f.BoolVar(&opts.envOnly, "env-only", false, "Use only environment variables for API keys")
	f.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	f.StringVar(&opts.configPath, "config", "", "Config file (yaml, toml or json) supplying flag defaults")
}

func runJob(cmd *cobra.Command, args []string, mode ingest.Mode, opts *runOptions) error {
	if len(args) > 2 {
		fmt.Fprintf(os.Stderr, "Warning: expected at most 2 arguments but got %d. Did you forget quotes around file paths?\n", len(args))
		fmt.Fprintf(os.Stderr, "  Using input: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "  Using output: %s\n", args[1])
	}
	if err := applyConfig(cmd, opts.configPath); err != nil {
		return err
	}

	logLevel := logger.LevelInfo
	if opts.debug {
		logLevel = logger.LevelDebug
	}
	var logFileW io.Writer
	if opts.logFilePath != "" {
		if err := files.RejectSymlinkPath(opts.logFilePath); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		cleanup.Register("log file", f.Close)
		logFileW = f
	}
	logger.Init(logLevel, logFileW)

	providerName, ok := provider.Canonical(opts.providerName)
	if !ok {
		return fmt.Errorf("unknown provider %q (supported: %s)", opts.providerName, strings.Join(provider.Names(), ", "))
	}

	systemTemplate, err := loadSystemTemplate(opts, mode)
	if err != nil {
		return err
	}
	instructions := opts.instructions
	if opts.instructionsFile != "" {
		data, err := os.ReadFile(opts.instructionsFile)
		if err != nil {
			return fmt.Errorf("failed to read instructions file: %w", err)
		}
		instructions = strings.TrimSpace(string(data))
	}

	startTime := time.Now()

	apiKey, source, err := resolveAPIKey(providerName, opts.allowEnv, opts.envOnly)
	if err != nil {
		return err
	}
	logger.Info("Using API Key", "provider", providerName, "origin", source)

	outputPath := output.DefaultPath(args[0], mode, opts.targetLang)
	if len(args) > 1 {
		outputPath = args[1]
	}

	cfg := pipeline.Config{
		InputPath:      args[0],
		OutputPath:     outputPath,
		Mode:           mode,
		Provider:       providerName,
		APIKey:         apiKey,
		Model:          opts.model,
		ChunkSize:      opts.chunkSize,
		Concurrency:    opts.concurrency,
		MaxChanges:     opts.maxChanges,
		ChangesBudget:  opts.changesBudget,
		SourceLang:     opts.sourceLang,
		TargetLang:     opts.targetLang,
		Instructions:   instructions,
		SystemTemplate: systemTemplate,
		TMPath:         opts.tmPath,
		ChangesPaths:   opts.changesPaths,
		FiguresDir:     opts.figuresDir,
		Overwrite:      opts.yes,
		OnProgress:     logProgress,
		OnConfirmOverwrite: func(path string) bool {
			confirmed, err := prompt.DefaultConfirmer().ConfirmOverwrite(path, opts.yes)
			if err != nil {
				logger.Error("Overwrite confirmation failed", "error", err)
				return false
			}
			return confirmed
		},
	}

	ctx, stop := signalContext()
	defer stop()
	result, err := runPipeline(ctx, cfg)

	// Always print stats (even on partial success)
	out := cmd.OutOrStdout()
	model := result.Model
	if model == "" {
		model = opts.model
	}
	if model == "" {
		model = metadata.DefaultModel(providerName)
	}
	printUsageStats(out, result.Usage, time.Since(startTime), providerName, model)
	printRunSummary(out, result)

	if err != nil {
		return err
	}
	if result.Canceled {
		logger.Warn("Run canceled; unprocessed segments were written as placeholders", "path", result.OutputPath)
		return nil
	}
	return runStatusError(mode, result)
}

// loadSystemTemplate prefers an explicit --system-prompt file over a saved
// prompt set.
func loadSystemTemplate(opts *runOptions, mode ingest.Mode) (string, error) {
	if opts.systemPromptFile != "" {
		data, err := os.ReadFile(opts.systemPromptFile)
		if err != nil {
			return "", fmt.Errorf("failed to read system prompt file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if opts.promptSet == "" {
		return "", nil
	}
	dir, err := promptLibraryAt()
	if err != nil {
		return "", err
	}
	set, err := promptlib.New(dir).Load(opts.promptSet)
	if err != nil {
		return "", err
	}
	tmpl := strings.TrimSpace(set.Prompt(mode))
	if tmpl == "" {
		return "", fmt.Errorf("prompt set %q has no %s prompt", opts.promptSet, mode)
	}
	return tmpl, nil
}

func logProgress(p batch.Progress) {
	switch p.State {
	case batch.StateSent:
		logger.Debug("Chunk sent", "chunk", p.ChunkIndex+1, "total", p.TotalChunks, "lines", len(p.Lines))
	case batch.StateParsed:
		logger.Info("Chunk completed", "chunk", p.ChunkIndex+1, "total", p.TotalChunks)
	case batch.StateFailed:
		first := 0
		if len(p.Lines) > 0 {
			first = p.Lines[0]
		}
		logger.Warn("Chunk failed", "chunk", p.ChunkIndex+1, "total", p.TotalChunks, "first_line", first, "error", apperrors.PublicMessage(p.Error))
	}
}

func printRunSummary(w io.Writer, r pipeline.Result) {
	if r.Status == "" || r.Status == pipeline.StatusSkipped {
		return
	}
	fmt.Fprintf(w, "Status: %s\n", r.Status)
	if r.OutputPath != "" {
		fmt.Fprintf(w, "Output: %s\n", r.OutputPath)
	}
	if r.TMXPath != "" {
		fmt.Fprintf(w, "TMX: %s\n", r.TMXPath)
	}
	if r.Segments == 0 {
		return
	}
	fmt.Fprintf(w, "Segments: %d (TM hits=%d, model=%d, placeholders=%d)\n", r.Segments, r.TMHits, r.ModelLines, r.PlaceholderLines)
	fmt.Fprintf(w, "Chunks: %d (failed=%d)\n", r.TotalChunks, r.FailedChunks)
	if r.ModifiedLines > 0 {
		fmt.Fprintf(w, "Modified: %d\n", r.ModifiedLines)
	}
}

func runStatusError(mode ingest.Mode, result pipeline.Result) error {
	switch result.Status {
	case pipeline.StatusSuccess, pipeline.StatusSkipped:
		return nil
	case pipeline.StatusPartialSuccess, pipeline.StatusFailure:
		return fmt.Errorf("%s finished with status: %s", mode, result.Status)
	default:
		return fmt.Errorf("%s finished with unknown status: %q", mode, result.Status)
	}
}
