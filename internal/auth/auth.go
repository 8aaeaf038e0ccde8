// Package auth resolves provider API keys from the OS keychain, the
// environment or an interactive prompt.
package auth

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const serviceName = "vertaal"

// Source labels where a key came from.
const (
	SourceKeychain = "Keychain"
	SourceEnv      = "Environment Variable"
	SourcePrompt   = "Prompt"
)

// Service is one provider's credential slot.
type Service struct {
	Name    string
	Label   string
	Account string
	EnvVar  string
}

var services = map[string]Service{
	"gemini": {Name: "gemini", Label: "Google Gemini", Account: "gemini-api-key", EnvVar: "GEMINI_API_KEY"},
	"claude": {Name: "claude", Label: "Anthropic Claude", Account: "claude-api-key", EnvVar: "ANTHROPIC_API_KEY"},
	"openai": {Name: "openai", Label: "OpenAI", Account: "openai-api-key", EnvVar: "OPENAI_API_KEY"},
}

// Lookup returns the credential slot for a provider name.
func Lookup(service string) (Service, error) {
	s, ok := services[strings.ToLower(strings.TrimSpace(service))]
	if !ok {
		return Service{}, fmt.Errorf("unknown service %q (supported: %s)", service, strings.Join(Services(), ", "))
	}
	return s, nil
}

// Services lists the supported service names in sorted order.
func Services() []string {
	out := make([]string, 0, len(services))
	for name := range services {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// GetKey returns the key for service and where it was found. The keychain
// wins over the environment, which is only consulted when allowEnv is set.
func GetKey(service string, allowEnv bool) (string, string) {
	s, err := Lookup(service)
	if err != nil {
		return "", ""
	}
	key, err := keyring.Get(serviceName, s.Account)
	if err == nil && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key), SourceKeychain
	}
	if allowEnv {
		if key, ok := GetEnvKey(service); ok {
			return key, SourceEnv
		}
	}
	return "", ""
}

// SaveKey saves the key for a service to the OS keychain.
func SaveKey(service, key string) error {
	s, err := Lookup(service)
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("refusing to store an empty key for %s", s.Name)
	}
	return keyring.Set(serviceName, s.Account, key)
}

// DeleteKey removes the key for a service from the OS keychain.
func DeleteKey(service string) error {
	s, err := Lookup(service)
	if err != nil {
		return err
	}
	return keyring.Delete(serviceName, s.Account)
}

// GetStatus reports whether the keychain holds a key for service.
func GetStatus(service string) bool {
	s, err := Lookup(service)
	if err != nil {
		return false
	}
	key, err := keyring.Get(serviceName, s.Account)
	return err == nil && key != ""
}

// GetEnvKey retrieves the key from the service's environment variable only.
func GetEnvKey(service string) (string, bool) {
	s, err := Lookup(service)
	if err != nil {
		return "", false
	}
	key := strings.TrimSpace(os.Getenv(s.EnvVar))
	if key == "" {
		return "", false
	}
	return key, true
}

// PromptForAPIKey reads a key from the terminal without echo.
func PromptForAPIKey(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(raw)), nil
}
