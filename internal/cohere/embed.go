package cohere

import (
	"context"

	"github.com/Kumaryan12/mini-rag/internal/embedding"
)

var inputTypes = map[embedding.Purpose]string{
	embedding.PurposeDocument: "search_document",
	embedding.PurposeQuery:    "search_query",
}

type embedRequest struct {
	Model     string   `json:"model"`
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
}

type embedResponse struct {
	Embeddings embedding.Response `json:"embeddings"`
}

// Model returns the embedding model name.
func (c *Client) Model() string { return c.cfg.EmbedModel }

// Embed calls /v1/embed. The response may carry a plain vector list or a
// mapping keyed by embedding type; both decode into embedding.Response.
func (c *Client) Embed(ctx context.Context, texts []string, purpose embedding.Purpose) (embedding.Response, error) {
	inputType, ok := inputTypes[purpose]
	if !ok {
		inputType = inputTypes[embedding.PurposeDocument]
	}
	var out embedResponse
	err := c.rest.Post(ctx, "/v1/embed", embedRequest{
		Model:     c.cfg.EmbedModel,
		Texts:     texts,
		InputType: inputType,
	}, &out)
	if err != nil {
		return embedding.Response{}, err
	}
	return out.Embeddings, nil
}
