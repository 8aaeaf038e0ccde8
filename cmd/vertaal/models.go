package main

import (
	"context"
	"fmt"
	"time"

	"github.com/oukeidos/vertaal/internal/llm/gemini"
	"github.com/oukeidos/vertaal/internal/logger"
	"github.com/oukeidos/vertaal/internal/metadata"
	"github.com/oukeidos/vertaal/internal/provider"
	"github.com/spf13/cobra"
)

type modelsOptions struct {
	providerName string
	live         bool
	allowEnv     bool
	envOnly      bool
}

const liveListTimeout = 30 * time.Second

var listGeminiModels = func(ctx context.Context, apiKey string) ([]gemini.ModelInfo, error) {
	client, err := gemini.NewClient(ctx, apiKey, metadata.DefaultModel(provider.Gemini))
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return client.ListModels(ctx)
}

func newModelsCmd() *cobra.Command {
	opts := modelsOptions{}
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List known models and their pricing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd, &opts)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().StringVarP(&opts.providerName, "provider", "p", "", "Only list models of this provider")
	cmd.Flags().BoolVar(&opts.live, "live", false, "Query the Gemini API for available models")
	cmd.Flags().BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading API key from environment variables")
	cmd.Flags().BoolVar(&opts.envOnly, "env-only", false, "Use only environment variables for API keys")
	return cmd
}

func runModels(cmd *cobra.Command, opts *modelsOptions) error {
	providers := metadata.Providers()
	if opts.providerName != "" {
		name, ok := provider.Canonical(opts.providerName)
		if !ok {
			return fmt.Errorf("unknown provider %q", opts.providerName)
		}
		providers = []string{name}
	}

	out := cmd.OutOrStdout()
	for _, name := range providers {
		if opts.live && name == provider.Gemini {
			if printLiveGemini(cmd, opts) {
				continue
			}
		}
		fmt.Fprintf(out, "%s:\n", name)
		for i, m := range metadata.Models(name) {
			marker := " "
			if i == 0 {
				marker = "*"
			}
			fmt.Fprintf(out, " %s %-28s %-20s $%.3f / $%.3f per 1M tokens\n", marker, m.ID, m.Label, m.InputPerMillion, m.OutputPerMillion)
		}
	}
	return nil
}

// printLiveGemini reports whether the live listing succeeded. On failure the
// caller prints the static catalog instead.
func printLiveGemini(cmd *cobra.Command, opts *modelsOptions) bool {
	key, _, err := resolveAPIKey(provider.Gemini, opts.allowEnv, opts.envOnly)
	if err != nil {
		logger.Warn("Live model listing unavailable; showing catalog", "error", err)
		return false
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), liveListTimeout)
	defer cancel()
	models, err := listGeminiModels(ctx, key)
	if err != nil || len(models) == 0 {
		logger.Warn("Live model listing failed; showing catalog", "error", err)
		return false
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (live):\n", provider.Gemini)
	for _, m := range models {
		fmt.Fprintf(out, "   %-36s %s\n", m.ID, m.DisplayName)
	}
	return true
}
