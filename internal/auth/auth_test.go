package auth

import (
	"testing"

	"github.com/zalando/go-keyring"
)

func TestGetKey_Precedence(t *testing.T) {
	keyring.MockInit()
	t.Setenv("ANTHROPIC_API_KEY", " sk-ant-env ")

	if key, src := GetKey("claude", false); key != "" || src != "" {
		t.Fatalf("env must be ignored without allowEnv, got (%q, %q)", key, src)
	}
	if key, src := GetKey("claude", true); key != "sk-ant-env" || src != SourceEnv {
		t.Fatalf("GetKey() = (%q, %q)", key, src)
	}

	if err := SaveKey("Claude", " sk-ant-keychain\n"); err != nil {
		t.Fatalf("SaveKey() error = %v", err)
	}
	if key, src := GetKey("claude", true); key != "sk-ant-keychain" || src != SourceKeychain {
		t.Fatalf("keychain should win, got (%q, %q)", key, src)
	}
	if !GetStatus("claude") || GetStatus("gemini") {
		t.Fatalf("unexpected status")
	}

	if err := DeleteKey("claude"); err != nil {
		t.Fatalf("DeleteKey() error = %v", err)
	}
	if GetStatus("claude") {
		t.Fatalf("key still present after delete")
	}
}

func TestServices(t *testing.T) {
	tests := map[string]string{
		"gemini": "GEMINI_API_KEY",
		"claude": "ANTHROPIC_API_KEY",
		"openai": "OPENAI_API_KEY",
	}
	for name, env := range tests {
		s, err := Lookup(name)
		if err != nil || s.EnvVar != env {
			t.Fatalf("Lookup(%q) = (%+v, %v)", name, s, err)
		}
	}
	if _, err := Lookup("mistral"); err == nil {
		t.Fatalf("expected error for unknown service")
	}
	if got := Services(); len(got) != 3 || got[0] != "claude" {
		t.Fatalf("Services() = %v", got)
	}
}

func TestSaveKey_Rejects(t *testing.T) {
	keyring.MockInit()
	if err := SaveKey("gemini", "  "); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if err := SaveKey("mistral", "k"); err == nil {
		t.Fatalf("expected error for unknown service")
	}
	if key, src := GetKey("mistral", true); key != "" || src != "" {
		t.Fatalf("unknown service returned (%q, %q)", key, src)
	}
}
