package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/oukeidos/vertaal/internal/auth"
	"github.com/oukeidos/vertaal/internal/llm"
	"github.com/oukeidos/vertaal/internal/logger"
	"github.com/oukeidos/vertaal/internal/metadata"
	"golang.org/x/term"
)

var (
	isTerminal   = term.IsTerminal
	getKey       = auth.GetKey
	getEnvKey    = auth.GetEnvKey
	getStatus    = auth.GetStatus
	promptForKey = auth.PromptForAPIKey
)

// resolveAPIKey handles the logic for finding the API key.
func resolveAPIKey(service string, allowEnv, envOnly bool) (string, string, error) {
	svc, err := auth.Lookup(service)
	if err != nil {
		return "", "", err
	}
	if envOnly {
		if key, ok := getEnvKey(svc.Name); ok {
			return key, auth.SourceEnv, nil
		}
		return "", "", fmt.Errorf("env-only set but %s is not set", svc.EnvVar)
	}

	if key, source := getKey(svc.Name, false); key != "" {
		return key, source, nil
	}

	if allowEnv {
		if key, ok := getEnvKey(svc.Name); ok {
			return key, auth.SourceEnv, nil
		}
	}

	if isTerminal(int(os.Stdin.Fd())) {
		key, err := promptForKey(fmt.Sprintf("%s API Key (press Enter to skip): ", svc.Label))
		if err != nil {
			return "", "", fmt.Errorf("error reading API key: %w", err)
		}
		if strings.TrimSpace(key) != "" {
			return strings.TrimSpace(key), auth.SourcePrompt, nil
		}
		if allowEnv {
			return "", "", fmt.Errorf("%s API key is required; not found in keychain or %s", svc.Label, svc.EnvVar)
		}
		return "", "", fmt.Errorf("%s API key is required; not found in keychain (environment disabled by default; use --allow-env)", svc.Label)
	}
	return "", "", fmt.Errorf("no %s API key available (non-interactive shell); run `vertaal env setup --service %s` or use --allow-env", svc.Label, svc.Name)
}

func printUsageStats(w io.Writer, usage llm.Usage, duration time.Duration, providerName, model string) {
	fmt.Fprintln(w, "\n--- Execution Stats ---")
	fmt.Fprintf(w, "Time: %s\n", duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Provider: %s\n", providerName)
	fmt.Fprintf(w, "Model: %s\n", model)
	if usage.Requests == 0 {
		return
	}
	fmt.Fprintf(w, "Requests: %d\n", usage.Requests)
	fmt.Fprintf(w, "Tokens: In=%d, Out=%d, Total=%d\n", usage.InputTokens, usage.OutputTokens, usage.TotalTokens())
	cost := metadata.EstimateCost(providerName, model, usage.InputTokens, usage.OutputTokens)
	if _, known := metadata.Pricing(providerName, model); known {
		fmt.Fprintf(w, "Estimated Cost: $%.5f\n", cost)
	} else {
		fmt.Fprintf(w, "Estimated Cost: $%.5f (model not in catalog; %s default rates)\n", cost, providerName)
	}
}

func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("Cancellation requested")
			cancel()
		case <-ctx.Done():
		}
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}
