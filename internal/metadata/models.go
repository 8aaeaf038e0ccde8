package metadata

import "strings"

// Model is a catalog entry shown by `vertaal models` and used for cost estimates.
type Model struct {
	ID               string
	Label            string
	InputPerMillion  float64
	OutputPerMillion float64
}

var catalog = map[string][]Model{
	"gemini": {
		{ID: "gemini-2.5-pro", Label: "Gemini 2.5 Pro", InputPerMillion: 1.25, OutputPerMillion: 10.00},
		{ID: "gemini-2.5-flash", Label: "Gemini 2.5 Flash", InputPerMillion: 0.30, OutputPerMillion: 2.50},
		{ID: "gemini-1.5-pro", Label: "Gemini 1.5 Pro", InputPerMillion: 1.25, OutputPerMillion: 5.00},
		{ID: "gemini-1.5-flash", Label: "Gemini 1.5 Flash", InputPerMillion: 0.075, OutputPerMillion: 0.30},
	},
	"claude": {
		{ID: "claude-sonnet-4-5", Label: "Claude Sonnet 4.5", InputPerMillion: 3.00, OutputPerMillion: 15.00},
		{ID: "claude-3-5-sonnet-20241022", Label: "Claude 3.5 Sonnet", InputPerMillion: 3.00, OutputPerMillion: 15.00},
		{ID: "claude-3-5-haiku-20241022", Label: "Claude 3.5 Haiku", InputPerMillion: 0.80, OutputPerMillion: 4.00},
		{ID: "claude-3-opus-20240229", Label: "Claude 3 Opus", InputPerMillion: 15.00, OutputPerMillion: 75.00},
	},
	"openai": {
		{ID: "gpt-4o", Label: "GPT-4o", InputPerMillion: 2.50, OutputPerMillion: 10.00},
		{ID: "gpt-4o-mini", Label: "GPT-4o mini", InputPerMillion: 0.15, OutputPerMillion: 0.60},
		{ID: "gpt-4-turbo", Label: "GPT-4 Turbo", InputPerMillion: 10.00, OutputPerMillion: 30.00},
		{ID: "gpt-4.1", Label: "GPT-4.1", InputPerMillion: 2.00, OutputPerMillion: 8.00},
	},
}

// Providers returns the provider names with a catalog, in display order.
func Providers() []string {
	return []string{"gemini", "claude", "openai"}
}

// Models returns the catalog for provider, or nil if unknown.
func Models(provider string) []Model {
	return catalog[strings.ToLower(provider)]
}

// ModelIDs returns the catalog identifiers for provider.
func ModelIDs(provider string) []string {
	models := Models(provider)
	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	return ids
}

// DefaultModel is the first catalog entry for provider.
func DefaultModel(provider string) string {
	models := Models(provider)
	if len(models) == 0 {
		return ""
	}
	return models[0].ID
}

// Pricing looks up a model's per-million token rates. Unknown models fall
// back to the provider default with ok=false.
func Pricing(provider, modelID string) (Model, bool) {
	for _, m := range Models(provider) {
		if m.ID == modelID {
			return m, true
		}
	}
	if models := Models(provider); len(models) > 0 {
		return models[0], false
	}
	return Model{}, false
}

// EstimateCost returns the USD cost of the given token counts.
func EstimateCost(provider, modelID string, inputTokens, outputTokens int64) float64 {
	p, _ := Pricing(provider, modelID)
	return float64(inputTokens)/1_000_000*p.InputPerMillion + float64(outputTokens)/1_000_000*p.OutputPerMillion
}
