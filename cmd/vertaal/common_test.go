package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/oukeidos/vertaal/internal/auth"
	"github.com/oukeidos/vertaal/internal/llm"
)

type keyStubs struct {
	promptCalls int
	keyCalls    int
	envCalls    int
	services    []string
}

func withKeyStubs(t *testing.T, terminal bool, promptVal string, keychainVal string, envVal string) (*keyStubs, func()) {
	t.Helper()
	stubs := &keyStubs{}

	prevIsTerminal := isTerminal
	prevPrompt := promptForKey
	prevGetKey := getKey
	prevGetEnv := getEnvKey

	isTerminal = func(_ int) bool { return terminal }
	promptForKey = func(_ string) (string, error) {
		stubs.promptCalls++
		return promptVal, nil
	}
	getKey = func(service string, _ bool) (string, string) {
		stubs.keyCalls++
		stubs.services = append(stubs.services, service)
		if keychainVal == "" {
			return "", ""
		}
		return keychainVal, auth.SourceKeychain
	}
	getEnvKey = func(service string) (string, bool) {
		stubs.envCalls++
		if envVal == "" {
			return "", false
		}
		return envVal, true
	}

	restore := func() {
		isTerminal = prevIsTerminal
		promptForKey = prevPrompt
		getKey = prevGetKey
		getEnvKey = prevGetEnv
	}

	return stubs, restore
}

func TestResolveAPIKey_KeychainFallback(t *testing.T) {
	stubs, restore := withKeyStubs(t, true, "", "keychain-key", "env-key")
	defer restore()

	key, source, err := resolveAPIKey("claude", true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "keychain-key" || source != auth.SourceKeychain {
		t.Fatalf("expected keychain key/source, got key=%q source=%q", key, source)
	}
	if stubs.envCalls != 0 {
		t.Fatalf("expected no env calls, got envCalls=%d", stubs.envCalls)
	}
	if len(stubs.services) != 1 || stubs.services[0] != "claude" {
		t.Fatalf("expected claude keychain lookup, got %v", stubs.services)
	}
}

func TestResolveAPIKey_EnvFallbackWhenAllowed(t *testing.T) {
	stubs, restore := withKeyStubs(t, false, "", "", "env-key")
	defer restore()

	key, source, err := resolveAPIKey("gemini", true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "env-key" || source != auth.SourceEnv {
		t.Fatalf("expected env key/source, got key=%q source=%q", key, source)
	}
	if stubs.envCalls == 0 {
		t.Fatalf("expected env call")
	}
}

func TestResolveAPIKey_EnvDisabledError(t *testing.T) {
	stubs, restore := withKeyStubs(t, false, "", "", "env-key")
	defer restore()

	key, source, err := resolveAPIKey("gemini", false, false)
	if err == nil {
		t.Fatalf("expected error, got key=%q source=%q", key, source)
	}
	if stubs.envCalls != 0 {
		t.Fatalf("expected no env calls, got envCalls=%d", stubs.envCalls)
	}
}

func TestResolveAPIKey_NonInteractiveError(t *testing.T) {
	stubs, restore := withKeyStubs(t, false, "", "", "")
	defer restore()

	_, _, err := resolveAPIKey("openai", false, false)
	if err == nil {
		t.Fatalf("expected error")
	}
	if stubs.promptCalls != 0 {
		t.Fatalf("expected no prompt, got promptCalls=%d", stubs.promptCalls)
	}
	if !strings.Contains(err.Error(), "--service openai") {
		t.Fatalf("expected setup hint for openai, got %v", err)
	}
}

func TestResolveAPIKey_EnvOnly(t *testing.T) {
	cases := []struct {
		name     string
		allowEnv bool
		envVal   string
		wantErr  string
	}{
		{name: "success", envVal: "env-key"},
		{name: "with_allow_env", allowEnv: true, envVal: "env-key"},
		{name: "missing", wantErr: "ANTHROPIC_API_KEY"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stubs, restore := withKeyStubs(t, false, "prompt-key", "keychain-key", tc.envVal)
			defer restore()

			key, source, err := resolveAPIKey("claude", tc.allowEnv, true)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("error = %v, want contains %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if key != "env-key" || source != auth.SourceEnv {
				t.Fatalf("expected env key/source, got key=%q source=%q", key, source)
			}
			if stubs.promptCalls != 0 || stubs.keyCalls != 0 {
				t.Fatalf("expected no prompt/keychain calls, got promptCalls=%d keyCalls=%d", stubs.promptCalls, stubs.keyCalls)
			}
		})
	}
}

func TestResolveAPIKey_PromptFallback(t *testing.T) {
	stubs, restore := withKeyStubs(t, true, "  prompt-key ", "", "")
	defer restore()

	key, source, err := resolveAPIKey("gemini", false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "prompt-key" || source != auth.SourcePrompt {
		t.Fatalf("expected prompt key/source, got key=%q source=%q", key, source)
	}
	if stubs.keyCalls == 0 {
		t.Fatalf("expected keychain lookup before prompt")
	}
}

func TestResolveAPIKey_PromptSkipped(t *testing.T) {
	_, restore := withKeyStubs(t, true, "", "", "")
	defer restore()

	if _, _, err := resolveAPIKey("gemini", false, false); err == nil || !strings.Contains(err.Error(), "--allow-env") {
		t.Fatalf("expected --allow-env hint, got %v", err)
	}
}

func TestResolveAPIKey_UnknownService(t *testing.T) {
	_, restore := withKeyStubs(t, false, "", "keychain-key", "")
	defer restore()

	if _, _, err := resolveAPIKey("mistral", true, false); err == nil {
		t.Fatalf("expected unknown service error")
	}
}

func TestPrintUsageStats(t *testing.T) {
	var buf bytes.Buffer
	usage := llm.Usage{Requests: 2, InputTokens: 1_000_000, OutputTokens: 100_000}
	printUsageStats(&buf, usage, 1500*time.Millisecond, "claude", "claude-sonnet-4-5")

	out := buf.String()
	for _, want := range []string{
		"Provider: claude",
		"Requests: 2",
		"Tokens: In=1000000, Out=100000, Total=1100000",
		"Estimated Cost: $4.50000",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestPrintUsageStats_NoRequests(t *testing.T) {
	var buf bytes.Buffer
	printUsageStats(&buf, llm.Usage{}, time.Second, "gemini", "custom-model")
	if strings.Contains(buf.String(), "Tokens:") {
		t.Fatalf("expected no token line without requests, got:\n%s", buf.String())
	}
}

func TestPrintUsageStats_UnknownModel(t *testing.T) {
	var buf bytes.Buffer
	printUsageStats(&buf, llm.Usage{Requests: 1, InputTokens: 10, OutputTokens: 10}, time.Second, "openai", "gpt-next")
	if !strings.Contains(buf.String(), "model not in catalog") {
		t.Fatalf("expected fallback pricing note, got:\n%s", buf.String())
	}
}
