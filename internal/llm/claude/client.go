package claude

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/oukeidos/vertaal/internal/apperrors"
	"github.com/oukeidos/vertaal/internal/httpclient"
	"github.com/oukeidos/vertaal/internal/llm"
	"github.com/oukeidos/vertaal/internal/logger"
)

// MaxTokens is the output cap for every request.
const MaxTokens = 4096

// Client handles communication with the Anthropic Messages API.
type Client struct {
	client anthropic.Client
	model  string
}

var _ llm.Client = (*Client)(nil)

// NewClient builds a client that never retries on its own; extra options
// are applied last and are mainly used by tests to point at a local server.
func NewClient(apiKey, model string, opts ...option.RequestOption) *Client {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpclient.Default()),
		option.WithMaxRetries(0),
	}
	return &Client{
		client: anthropic.NewClient(append(base, opts...)...),
		model:  model,
	}
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) Close() error {
	return nil
}

func (c *Client) Generate(ctx context.Context, msg llm.Message) (*llm.Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, httpclient.DefaultTimeout)
	defer cancel()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(toBlocks(msg)...),
		},
	})
	if err != nil {
		return nil, classifyClaudeError(err)
	}

	reply := &llm.Reply{Usage: llm.Usage{
		Requests:     1,
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}}
	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return reply, apperrors.Validation(errors.New("no text content in Claude response"))
	}
	reply.Text = text.String()
	logger.Debug("Claude response", "model", c.model, "stop_reason", string(message.StopReason), "input_tokens", reply.Usage.InputTokens, "output_tokens", reply.Usage.OutputTokens)
	return reply, nil
}

func toBlocks(msg llm.Message) []anthropic.ContentBlockParamUnion {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		if p.IsImage() {
			blocks = append(blocks, anthropic.NewImageBlockBase64(p.MediaType, base64.StdEncoding.EncodeToString(p.Data)))
			continue
		}
		if p.Text == "" {
			// The API rejects empty text blocks.
			continue
		}
		blocks = append(blocks, anthropic.NewTextBlock(p.Text))
	}
	return blocks
}

func classifyClaudeError(err error) error {
	wrapped := fmt.Errorf("claude messages request failed: %w", err)

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		code := apiErr.StatusCode
		switch {
		case code == 401 || code == 403:
			return apperrors.New(apperrors.KindAuth, fmt.Sprintf("Claude authentication/authorization failed (%d).", code), wrapped)
		case code == 404:
			return apperrors.New(apperrors.KindBadRequest, "Claude model not found or no access (404).", wrapped)
		case code == 429:
			return apperrors.New(apperrors.KindRateLimit, "Claude rate limit exceeded (429).", wrapped)
		case code == 529 || code >= 500:
			return apperrors.New(apperrors.KindTransient, fmt.Sprintf("Claude service temporary error (%d).", code), wrapped)
		default:
			return apperrors.New(apperrors.KindBadRequest, fmt.Sprintf("Claude API error (%d).", code), wrapped)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.New(apperrors.KindTransient, "Claude request timed out.", wrapped)
	}
	return apperrors.New(apperrors.KindTransient, "Claude request failed due to a temporary network/runtime error.", wrapped)
}
