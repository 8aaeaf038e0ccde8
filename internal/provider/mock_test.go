package provider

import (
	"context"
	"sync"

	"github.com/oukeidos/vertaal/internal/llm"
)

// mockClient replies with a fixed text or error and records each message.
type mockClient struct {
	mu       sync.Mutex
	reply    string
	err      error
	usage    llm.Usage
	messages []llm.Message
	closed   bool
}

func (m *mockClient) Generate(_ context.Context, msg llm.Message) (*llm.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Reply{Text: m.reply, Usage: m.usage}, nil
}

func (m *mockClient) Model() string { return "mock-model" }

func (m *mockClient) Close() error {
	m.closed = true
	return nil
}

func (m *mockClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}
