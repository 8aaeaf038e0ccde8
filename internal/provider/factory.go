package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/oukeidos/vertaal/internal/apperrors"
	"github.com/oukeidos/vertaal/internal/llm"
	"github.com/oukeidos/vertaal/internal/llm/claude"
	"github.com/oukeidos/vertaal/internal/llm/gemini"
	"github.com/oukeidos/vertaal/internal/llm/openai"
	"github.com/oukeidos/vertaal/internal/metadata"
)

const (
	Gemini = "gemini"
	Claude = "claude"
	OpenAI = "openai"
)

// Config selects and authenticates one provider.
type Config struct {
	Name   string
	APIKey string
	Model  string
}

// ClientFactory builds the vendor client for a provider.
type ClientFactory func(ctx context.Context, cfg Config) (llm.Client, error)

var factories = map[string]ClientFactory{
	Gemini: func(ctx context.Context, cfg Config) (llm.Client, error) {
		c, err := gemini.NewClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	},
	Claude: func(_ context.Context, cfg Config) (llm.Client, error) {
		return claude.NewClient(cfg.APIKey, cfg.Model), nil
	},
	OpenAI: func(_ context.Context, cfg Config) (llm.Client, error) {
		return openai.NewClient(cfg.APIKey, cfg.Model), nil
	},
}

var aliases = map[string]string{
	"google":    Gemini,
	"anthropic": Claude,
	"chatgpt":   OpenAI,
}

// Canonical maps a provider name or alias to its registered name.
func Canonical(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[n]; ok {
		n = alias
	}
	_, ok := factories[n]
	return n, ok
}

// Names lists the registered providers in sorted order.
func Names() []string {
	out := make([]string, 0, len(factories))
	for n := range factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// New builds an Adapter for cfg. An empty model selects the provider's
// default. If the vendor client cannot be created the adapter is returned
// Uninitialized together with the error, so callers may still use it to
// produce placeholders.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	name, ok := Canonical(cfg.Name)
	if !ok {
		return nil, apperrors.Configf("unknown provider %q (want one of %s)", cfg.Name, strings.Join(Names(), ", "))
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return NewAdapter(name, cfg.Model, nil), apperrors.Configf("an API key is required for %s", name)
	}
	cfg.Name = name
	if cfg.Model == "" {
		cfg.Model = metadata.DefaultModel(name)
	}
	client, err := factories[name](ctx, cfg)
	if err != nil {
		return NewAdapter(name, cfg.Model, nil), fmt.Errorf("initialize %s client: %w", name, err)
	}
	return NewAdapter(name, cfg.Model, client), nil
}
