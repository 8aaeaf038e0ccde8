package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oukeidos/vertaal/internal/apperrors"
	"github.com/oukeidos/vertaal/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient("test-key", "gpt-4.1")
	client.baseURL = server.URL
	return client
}

func TestClient_Generate(t *testing.T) {
	var captured RequestData
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/responses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		fmt.Fprint(w, `{
			"id": "resp_1",
			"status": "completed",
			"output": [
				{"type": "reasoning"},
				{"type": "message", "role": "assistant", "content": [{"type": "output_text", "text": "1. Hallo wereld"}]}
			],
			"usage": {"input_tokens": 90, "output_tokens": 7, "total_tokens": 97}
		}`)
	})

	var msg llm.Message
	msg.AddText("header")
	msg.AddImage("image/png", []byte{0x89, 0x50})
	msg.AddText("1. Hello world")

	reply, err := client.Generate(context.Background(), msg)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if reply.Text != "1. Hallo wereld" {
		t.Fatalf("Text = %q", reply.Text)
	}
	if reply.Usage.InputTokens != 90 || reply.Usage.OutputTokens != 7 || reply.Usage.Requests != 1 {
		t.Fatalf("Usage = %+v", reply.Usage)
	}

	if captured.Model != "gpt-4.1" {
		t.Fatalf("model = %q", captured.Model)
	}
	if len(captured.Input) != 1 || captured.Input[0].Role != "user" {
		t.Fatalf("input = %#v", captured.Input)
	}
	content := captured.Input[0].Content
	if len(content) != 3 {
		t.Fatalf("expected 3 content parts, got %d", len(content))
	}
	if content[0].Type != "input_text" || content[0].Text != "header" {
		t.Fatalf("content[0] = %#v", content[0])
	}
	if content[1].Type != "input_image" || content[1].ImageURL != "data:image/png;base64,iVA=" {
		t.Fatalf("content[1] = %#v", content[1])
	}
}

func TestClient_Generate_Errors(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		responseBody   string
		expectedErrMsg string
		kind           apperrors.Kind
	}{
		{
			name:           "429 Too Many Requests",
			status:         http.StatusTooManyRequests,
			responseBody:   `{"error": {"message": "Rate limit reached: SECRET_PATENT_CLAIM", "type": "rate_limit_error", "code": "rate_limit_exceeded"}}`,
			expectedErrMsg: "OpenAI API rate limit exceeded (429)",
			kind:           apperrors.KindRateLimit,
		},
		{
			name:           "401 Unauthorized",
			status:         http.StatusUnauthorized,
			responseBody:   `{"error": {"message": "Invalid API Key: SECRET_PATENT_CLAIM", "type": "auth_error"}}`,
			expectedErrMsg: "OpenAI API authentication/authorization failed (401)",
			kind:           apperrors.KindAuth,
		},
		{
			name:           "404 model not found",
			status:         http.StatusNotFound,
			responseBody:   `{"error": {"message": "SECRET_PATENT_CLAIM", "type": "invalid_request_error", "code": "model_not_found"}}`,
			expectedErrMsg: "The model does not exist",
			kind:           apperrors.KindBadRequest,
		},
		{
			name:           "500 Internal Server Error",
			status:         http.StatusInternalServerError,
			responseBody:   "server down SECRET_PATENT_CLAIM",
			expectedErrMsg: "OpenAI server error (500)",
			kind:           apperrors.KindTransient,
		},
		{
			name:           "403 Forbidden",
			status:         http.StatusForbidden,
			responseBody:   "restricted SECRET_PATENT_CLAIM",
			expectedErrMsg: "OpenAI API authentication/authorization failed (403)",
			kind:           apperrors.KindAuth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.responseBody)
			})

			_, err := client.Generate(context.Background(), llm.Message{})
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.expectedErrMsg) {
				t.Errorf("Expected error message to contain %q, got %q", tt.expectedErrMsg, err.Error())
			}
			if strings.Contains(err.Error(), "SECRET_PATENT_CLAIM") {
				t.Errorf("Expected error message to redact sensitive content, got %q", err.Error())
			}
			if !apperrors.Is(err, tt.kind) {
				t.Errorf("expected kind %s, got %v", tt.kind, err)
			}
			if calls != 1 {
				t.Errorf("expected exactly one request, got %d", calls)
			}
		})
	}
}

func TestClient_Generate_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	})
	_, err := client.Generate(context.Background(), llm.Message{})
	if !apperrors.Is(err, apperrors.KindValidation) {
		t.Fatalf("expected validation kind, got %v", err)
	}
}

func TestExtractOutputText(t *testing.T) {
	tests := []struct {
		name    string
		resp    ResponseData
		want    string
		wantErr bool
	}{
		{
			name: "joins parts",
			resp: ResponseData{Status: "completed", Output: []OutputItem{
				{Type: "message", Role: "assistant", Content: []ResponseContent{{Type: "output_text", Text: "1. A"}, {Type: "output_text", Text: "\n2. B"}}},
			}},
			want: "1. A\n2. B",
		},
		{
			name: "incomplete with partial text",
			resp: ResponseData{Status: "incomplete", IncompleteDetails: &IncompleteDetails{Reason: "max_output_tokens"}, Output: []OutputItem{
				{Type: "message", Role: "assistant", Content: []ResponseContent{{Type: "output_text", Text: "1. A"}}},
			}},
			want: "1. A",
		},
		{
			name:    "incomplete without text",
			resp:    ResponseData{Status: "incomplete", IncompleteDetails: &IncompleteDetails{Reason: "max_output_tokens"}},
			wantErr: true,
		},
		{
			name:    "no assistant message",
			resp:    ResponseData{Status: "completed", Output: []OutputItem{{Type: "reasoning"}}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractOutputText(&tt.resp)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Fatalf("extractOutputText() = (%q, %v)", got, err)
			}
		})
	}
}
