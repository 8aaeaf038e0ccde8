package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/oukeidos/vertaal/internal/apperrors"
	"github.com/oukeidos/vertaal/internal/httpclient"
	"github.com/oukeidos/vertaal/internal/llm"
	"github.com/oukeidos/vertaal/internal/logger"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// generator is the subset of *genai.GenerativeModel used here.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client handles communication with the Gemini API.
type Client struct {
	client    *genai.Client
	model     generator
	modelName string
}

var _ llm.Client = (*Client)(nil)

// NewClient creates a Gemini client for modelName. A "models/" prefix is
// accepted and stripped.
func NewClient(ctx context.Context, apiKey string, modelName string) (*Client, error) {
	// option.WithHTTPClient breaks the library's API key header injection,
	// so timeouts are applied per call through the context instead.
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, apperrors.New(apperrors.KindConfig, "Gemini client could not be created.", err)
	}
	name := strings.TrimPrefix(modelName, "models/")
	return &Client{
		client:    client,
		model:     client.GenerativeModel(name),
		modelName: name,
	}, nil
}

func (c *Client) Model() string {
	return c.modelName
}

// Close closes the underlying genai client.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Generate sends the message parts in order as a single user turn.
func (c *Client) Generate(ctx context.Context, msg llm.Message) (*llm.Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, httpclient.DefaultTimeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx, toParts(msg)...)
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	reply := &llm.Reply{Usage: llm.Usage{Requests: 1}}
	if resp != nil && resp.UsageMetadata != nil {
		reply.Usage.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		reply.Usage.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	text, err := extractResponseText(resp)
	if err != nil {
		return reply, apperrors.Validation(err)
	}
	reply.Text = text
	logger.Debug("Gemini response", "model", c.modelName, "input_tokens", reply.Usage.InputTokens, "output_tokens", reply.Usage.OutputTokens)
	return reply, nil
}

func toParts(msg llm.Message) []genai.Part {
	parts := make([]genai.Part, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		if p.IsImage() {
			parts = append(parts, genai.Blob{MIMEType: p.MediaType, Data: p.Data})
			continue
		}
		parts = append(parts, genai.Text(p.Text))
	}
	return parts
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("no response received from Gemini")
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", fmt.Errorf("prompt blocked by Gemini (%s)", resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			continue
		}
		var combined strings.Builder
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				combined.WriteString(string(text))
			}
		}
		if combined.Len() > 0 {
			return combined.String(), nil
		}
	}
	return "", fmt.Errorf("no text parts found in Gemini response")
}

// ModelInfo describes one model offered by the API.
type ModelInfo struct {
	ID          string
	DisplayName string
}

// ListModels returns the models that support generateContent.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	it := c.client.ListModels(ctx)
	var out []ModelInfo
	for {
		m, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return out, classifyGeminiError(err)
		}
		if !supportsGenerate(m.SupportedGenerationMethods) {
			continue
		}
		out = append(out, ModelInfo{
			ID:          strings.TrimPrefix(m.Name, "models/"),
			DisplayName: m.DisplayName,
		})
	}
	return out, nil
}

func supportsGenerate(methods []string) bool {
	for _, m := range methods {
		if m == "generateContent" {
			return true
		}
	}
	return false
}
