// Package openai generates grounded answers with the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Kumaryan12/mini-rag/internal/domain"
	"github.com/Kumaryan12/mini-rag/internal/generation"
)

// DefaultChatModel is used when no model is configured.
const DefaultChatModel = "gpt-4o-mini"

// ChatClient is the subset of the go-openai client used here.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures the generator.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Generator implements generation.Generator over chat completions.
type Generator struct {
	client ChatClient
	model  string
}

// New builds a generator backed by the go-openai client.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, domain.ConfigError("openai", "API key is required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return NewWithClient(openai.NewClientWithConfig(oc), cfg.Model), nil
}

// NewWithClient wraps an existing chat client.
func NewWithClient(client ChatClient, model string) *Generator {
	if model == "" {
		model = DefaultChatModel
	}
	return &Generator{client: client, model: model}
}

// Generate sends the prompt as a single user message.
func (g *Generator) Generate(ctx context.Context, req generation.Request) (generation.Response, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return generation.Response{}, domain.UpstreamError("openai", err)
	}
	if len(resp.Choices) == 0 {
		return generation.Response{}, domain.UpstreamError("openai", errors.New("no completion choices returned"))
	}
	msg := resp.Choices[0].Message
	if msg.Content != "" {
		return generation.Response{Text: msg.Content}, nil
	}
	parts := make([]generation.Part, 0, len(msg.MultiContent))
	for _, p := range msg.MultiContent {
		if p.Type == openai.ChatMessagePartTypeText {
			parts = append(parts, generation.Part{Type: string(p.Type), Text: p.Text})
		}
	}
	return generation.Response{Message: &generation.Message{Content: parts}}, nil
}
