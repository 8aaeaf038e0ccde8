// Package llm defines the provider-neutral request and reply shapes shared
// by the vendor transports.
package llm

import (
	"context"
	"strings"
)

// Part is one ordered piece of a prompt: text, or an image when Data is set.
type Part struct {
	Text      string
	MediaType string
	Data      []byte
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func ImagePart(mediaType string, data []byte) Part {
	return Part{MediaType: mediaType, Data: data}
}

func (p Part) IsImage() bool {
	return len(p.Data) > 0
}

// Message is a single user turn. Vendors receive the parts in order.
type Message struct {
	Parts []Part
}

func (m *Message) AddText(text string) {
	m.Parts = append(m.Parts, TextPart(text))
}

func (m *Message) AddImage(mediaType string, data []byte) {
	m.Parts = append(m.Parts, ImagePart(mediaType, data))
}

// Text joins the text parts with newlines and renders images as
// "[image]" markers. Used for previews and prompt size estimates.
func (m Message) Text() string {
	var b strings.Builder
	for i, p := range m.Parts {
		if i > 0 {
			b.WriteByte('\n')
		}
		if p.IsImage() {
			b.WriteString("[image: " + p.MediaType + "]")
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// Images counts the image parts.
func (m Message) Images() int {
	n := 0
	for _, p := range m.Parts {
		if p.IsImage() {
			n++
		}
	}
	return n
}

// Usage is token accounting for one or more calls.
type Usage struct {
	Requests     int
	InputTokens  int64
	OutputTokens int64
}

func (u *Usage) Add(o Usage) {
	u.Requests += o.Requests
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
}

func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// Reply is the concatenated text answer of one call.
type Reply struct {
	Text  string
	Usage Usage
}

// Client sends one message and returns the model's text. Implementations
// make exactly one upstream request per call and classify failures with
// apperrors kinds.
type Client interface {
	Generate(ctx context.Context, msg Message) (*Reply, error)
	Model() string
	Close() error
}
