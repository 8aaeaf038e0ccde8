// Package provider turns chunk requests into model calls and model replies
// into per-line results, independent of the vendor behind the call.
package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/oukeidos/vertaal/internal/apperrors"
	"github.com/oukeidos/vertaal/internal/assembler"
	"github.com/oukeidos/vertaal/internal/llm"
	"github.com/oukeidos/vertaal/internal/logger"
	"github.com/oukeidos/vertaal/internal/response"
)

const (
	NotInitTranslation = "[Err: Model not init]"
	NotInitProofread   = "[Proofread Err: Model not init]"
)

// TranslationResult maps requested line numbers to translated text or a
// placeholder. Failed is set when the model call itself errored.
type TranslationResult struct {
	Lines  map[int]string
	Failed bool
	Err    error
}

// ProofreadResult maps requested line numbers to revisions.
type ProofreadResult struct {
	Lines  map[int]response.Revision
	Failed bool
	Err    error
}

// Provider sends one chunk per call. Implementations never retry.
type Provider interface {
	SendTranslationRequest(ctx context.Context, req assembler.Request) TranslationResult
	SendProofreadRequest(ctx context.Context, req assembler.Request) ProofreadResult
	Name() string
	Model() string
	Usage() llm.Usage
	Close() error
}

// State tells whether an Adapter holds a usable client.
type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}

// Adapter implements Provider on top of an llm.Client.
type Adapter struct {
	name   string
	model  string
	state  State
	client llm.Client

	usageMu sync.Mutex
	usage   llm.Usage
}

var _ Provider = (*Adapter)(nil)

// NewAdapter returns a Ready adapter, or an Uninitialized one when client is nil.
func NewAdapter(name, model string, client llm.Client) *Adapter {
	a := &Adapter{name: name, model: model}
	if client != nil {
		a.state = Ready
		a.client = client
	}
	return a
}

func (a *Adapter) Name() string  { return a.name }
func (a *Adapter) Model() string { return a.model }
func (a *Adapter) State() State  { return a.state }

func (a *Adapter) Usage() llm.Usage {
	a.usageMu.Lock()
	defer a.usageMu.Unlock()
	return a.usage
}

func (a *Adapter) addUsage(u llm.Usage) {
	a.usageMu.Lock()
	a.usage.Add(u)
	a.usageMu.Unlock()
}

func (a *Adapter) Close() error {
	if a.state != Ready {
		return nil
	}
	return a.client.Close()
}

func (a *Adapter) generate(ctx context.Context, msg llm.Message) (string, error) {
	reply, err := a.client.Generate(ctx, msg)
	if reply != nil {
		a.addUsage(reply.Usage)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply.Text) == "" {
		logger.Warn("Empty model reply", "provider", a.name, "model", a.model)
	}
	return reply.Text, nil
}

func (a *Adapter) SendTranslationRequest(ctx context.Context, req assembler.Request) TranslationResult {
	lines := req.Numbers()
	if a.state != Ready {
		logger.Error("Model not initialized", "provider", a.name, "model", a.model)
		out := make(map[int]string, len(lines))
		for _, n := range lines {
			out[n] = NotInitTranslation
		}
		return TranslationResult{Lines: out, Failed: true, Err: errNotInitialized(a.name)}
	}
	if len(lines) == 0 {
		return TranslationResult{Lines: map[int]string{}}
	}

	msg := assembler.Translation(req)
	logger.Info("Translating chunk", "provider", a.name, "model", a.model, "lines", len(lines), "first_line", lines[0], "images", msg.Images(), "changes", len(req.Changes))

	raw, err := a.generate(ctx, msg)
	if err != nil {
		public := apperrors.PublicMessage(err)
		logger.Error("Translation request failed", "provider", a.name, "first_line", lines[0], "error", err)
		out := make(map[int]string, len(lines))
		for _, n := range lines {
			out[n] = fmt.Sprintf("[TL Err line %d: %s]", n, public)
		}
		return TranslationResult{Lines: out, Failed: true, Err: err}
	}
	return TranslationResult{Lines: response.Translation(raw, lines)}
}

func (a *Adapter) SendProofreadRequest(ctx context.Context, req assembler.Request) ProofreadResult {
	lines := req.Numbers()
	originals := make(map[int]string, len(req.Lines))
	for _, l := range req.Lines {
		originals[l.Number] = l.Target
	}

	if a.state != Ready {
		logger.Error("Model not initialized", "provider", a.name, "model", a.model)
		out := make(map[int]response.Revision, len(lines))
		for _, n := range lines {
			out[n] = response.Revision{Revised: originals[n], Summary: NotInitProofread, Original: originals[n], Failed: true}
		}
		return ProofreadResult{Lines: out, Failed: true, Err: errNotInitialized(a.name)}
	}
	if len(lines) == 0 {
		return ProofreadResult{Lines: map[int]response.Revision{}}
	}

	msg := assembler.Proofread(req)
	logger.Info("Proofreading chunk", "provider", a.name, "model", a.model, "lines", len(lines), "first_line", lines[0], "images", msg.Images(), "changes", len(req.Changes))

	raw, err := a.generate(ctx, msg)
	if err != nil {
		public := apperrors.PublicMessage(err)
		logger.Error("Proofread request failed", "provider", a.name, "first_line", lines[0], "error", err)
		out := make(map[int]response.Revision, len(lines))
		for _, n := range lines {
			out[n] = response.Revision{
				Revised:  originals[n],
				Summary:  fmt.Sprintf("[Proofread Err line %d: %s]", n, public),
				Original: originals[n],
				Failed:   true,
			}
		}
		return ProofreadResult{Lines: out, Failed: true, Err: err}
	}
	return ProofreadResult{Lines: response.Proofread(raw, lines, originals)}
}

func errNotInitialized(name string) error {
	return apperrors.New(apperrors.KindConfig, fmt.Sprintf("%s model is not initialized.", name), nil)
}
