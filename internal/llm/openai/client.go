package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/oukeidos/vertaal/internal/apperrors"
	"github.com/oukeidos/vertaal/internal/httpclient"
	"github.com/oukeidos/vertaal/internal/llm"
	"github.com/oukeidos/vertaal/internal/logger"
)

const defaultBaseURL = "https://api.openai.com/v1"

type Client struct {
	apiKey  string
	model   string
	baseURL string
}

var _ llm.Client = (*Client)(nil)

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
	}
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) Close() error {
	return nil
}

// Generate sends msg as one user input item and returns the assistant text.
func (c *Client) Generate(ctx context.Context, msg llm.Message) (*llm.Reply, error) {
	resp, err := c.Create(ctx, RequestData{
		Input: []InputItem{{
			Type:    "message",
			Role:    "user",
			Content: toContent(msg),
		}},
	})
	if err != nil {
		return nil, err
	}

	reply := &llm.Reply{Usage: llm.Usage{
		Requests:     1,
		InputTokens:  int64(resp.Usage.InputTokens),
		OutputTokens: int64(resp.Usage.OutputTokens),
	}}
	text, err := extractOutputText(resp)
	if err != nil {
		return reply, apperrors.Validation(err)
	}
	reply.Text = text
	return reply, nil
}

func toContent(msg llm.Message) []ContentPart {
	parts := make([]ContentPart, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		if p.IsImage() {
			parts = append(parts, ContentPart{
				Type:     "input_image",
				ImageURL: "data:" + p.MediaType + ";base64," + base64.StdEncoding.EncodeToString(p.Data),
				Detail:   "auto",
			})
			continue
		}
		parts = append(parts, ContentPart{Type: "input_text", Text: p.Text})
	}
	return parts
}

// extractOutputText joins every output_text part of assistant messages.
// An incomplete reply with text is still returned.
func extractOutputText(resp *ResponseData) (string, error) {
	var b strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, content := range item.Content {
			if content.Type == "output_text" {
				b.WriteString(content.Text)
			}
		}
	}
	if b.Len() > 0 {
		if resp.Status == "incomplete" {
			logger.Warn("OpenAI response is incomplete; using partial output", "reason", incompleteReason(resp))
		}
		return b.String(), nil
	}
	if resp.Status == "incomplete" {
		return "", fmt.Errorf("response is incomplete (reason: %s)", incompleteReason(resp))
	}
	return "", errors.New("no assistant text message found in output")
}

func incompleteReason(resp *ResponseData) string {
	if resp.IncompleteDetails == nil || resp.IncompleteDetails.Reason == "" {
		return "unknown"
	}
	return resp.IncompleteDetails.Reason
}

// Create posts a raw Responses API request. The client's model overrides req.Model.
func (c *Client) Create(ctx context.Context, req RequestData) (*ResponseData, error) {
	req.Model = c.model

	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	body, resp, err := httpclient.PostJSON(ctx, httpclient.Default(), c.baseURL+"/responses", headers, req)
	if err != nil {
		return nil, apperrors.New(
			apperrors.KindTransient,
			"OpenAI request failed due to a temporary network/runtime error.",
			fmt.Errorf("request failed: %w", err),
		)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyOpenAIError(resp.StatusCode, resp.Status, parseErrorDetails(body))
	}

	var result ResponseData
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, apperrors.New(
			apperrors.KindValidation,
			"OpenAI response format was invalid.",
			fmt.Errorf("failed to decode response: %w", err),
		)
	}

	logger.Debug("OpenAI response", "status", result.Status, "usage_total", result.Usage.TotalTokens, "response_id", result.ID)
	return &result, nil
}
