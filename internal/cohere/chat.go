package cohere

import (
	"context"

	"github.com/Kumaryan12/mini-rag/internal/generation"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Message     string  `json:"message"`
	Temperature float64 `json:"temperature"`
}

// Generate calls /v1/chat. The answer arrives either as flat text or as a
// message with content parts; generation.Response holds both.
func (c *Client) Generate(ctx context.Context, req generation.Request) (generation.Response, error) {
	var out generation.Response
	err := c.rest.Post(ctx, "/v1/chat", chatRequest{
		Model:       c.cfg.ChatModel,
		Message:     req.Prompt,
		Temperature: req.Temperature,
	}, &out)
	if err != nil {
		return generation.Response{}, err
	}
	return out, nil
}
