// Package generation defines the answer-generation port and the normalized
// shape of a generation response.
package generation

import (
	"context"
	"strings"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

// DefaultTemperature keeps answers close to the supplied context.
const DefaultTemperature = 0.2

// Request is one grounded generation call. Prompt is the full instruction
// text; Question and Snippets carry the same content unrendered for
// generators that work on the pieces directly.
type Request struct {
	Prompt      string
	Question    string
	Snippets    []string
	Temperature float64
}

// Part is one element of a structured message.
type Part struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

// Message is the structured form of a generation result.
type Message struct {
	Content []Part `json:"content"`
}

// Response is either flat text or a message made of content parts.
type Response struct {
	Text    string   `json:"text,omitempty"`
	Message *Message `json:"message,omitempty"`
}

// Normalize returns the answer text: the flat text when non-empty, else the
// concatenated text of the message parts, else domain.NoAnswer.
func (r Response) Normalize() string {
	if s := strings.TrimSpace(r.Text); s != "" {
		return s
	}
	if r.Message != nil {
		var b strings.Builder
		for _, p := range r.Message.Content {
			b.WriteString(p.Text)
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			return s
		}
	}
	return domain.NoAnswer
}

// Generator produces an answer for a grounded prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}
