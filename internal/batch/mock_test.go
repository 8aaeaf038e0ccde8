package batch

import (
	"context"
	"sync"
	"time"

	"github.com/oukeidos/vertaal/internal/assembler"
	"github.com/oukeidos/vertaal/internal/llm"
	"github.com/oukeidos/vertaal/internal/provider"
	"github.com/oukeidos/vertaal/internal/response"
)

// mockProvider answers each line through the configured functions and
// records every request it receives.
type mockProvider struct {
	mu       sync.Mutex
	requests []assembler.Request
	sleep    time.Duration
	inFlight int
	peak     int

	translate func(line int, source string) string
	proofread func(line assembler.Line) response.Revision
	fail      error
}

func (m *mockProvider) begin(req assembler.Request) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.inFlight++
	if m.inFlight > m.peak {
		m.peak = m.inFlight
	}
	m.mu.Unlock()
	if m.sleep > 0 {
		time.Sleep(m.sleep)
	}
}

func (m *mockProvider) end() {
	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()
}

func (m *mockProvider) SendTranslationRequest(_ context.Context, req assembler.Request) provider.TranslationResult {
	m.begin(req)
	defer m.end()
	out := make(map[int]string, len(req.Lines))
	for _, l := range req.Lines {
		if m.fail != nil {
			out[l.Number] = "[TL Err line 0: failed]"
			continue
		}
		out[l.Number] = m.translate(l.Number, l.Source)
	}
	return provider.TranslationResult{Lines: out, Failed: m.fail != nil, Err: m.fail}
}

func (m *mockProvider) SendProofreadRequest(_ context.Context, req assembler.Request) provider.ProofreadResult {
	m.begin(req)
	defer m.end()
	out := make(map[int]response.Revision, len(req.Lines))
	for _, l := range req.Lines {
		out[l.Number] = m.proofread(l)
	}
	return provider.ProofreadResult{Lines: out, Failed: m.fail != nil, Err: m.fail}
}

func (m *mockProvider) Name() string     { return "mock" }
func (m *mockProvider) Model() string    { return "mock-model" }
func (m *mockProvider) Usage() llm.Usage { return llm.Usage{} }
func (m *mockProvider) Close() error     { return nil }

func (m *mockProvider) calls() []assembler.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]assembler.Request(nil), m.requests...)
}

// replyClient is an llm.Client returning a canned reply or error.
type replyClient struct {
	reply string
	err   error
}

func (c *replyClient) Generate(context.Context, llm.Message) (*llm.Reply, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &llm.Reply{Text: c.reply}, nil
}

func (c *replyClient) Model() string { return "reply-model" }
func (c *replyClient) Close() error  { return nil }
