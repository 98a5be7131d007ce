package openai

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Kumaryan12/mini-rag/internal/domain"
	"github.com/Kumaryan12/mini-rag/internal/embedding"
	"github.com/Kumaryan12/mini-rag/internal/restclient"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
)

// Client is an OpenAI-compatible embeddings client. It also understands the
// Ollama response shapes, so it can point at a local Ollama server.
type Client struct {
	model string
	rest  *restclient.Client
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// NewClient creates a new embeddings client using the provided configuration.
// An API key is required unless BaseURL points somewhere other than OpenAI.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.APIKey == "" && cfg.BaseURL == DefaultBaseURL {
		return nil, domain.ConfigError("openai", "API key is required")
	}
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	return &Client{
		model: cfg.Model,
		rest: restclient.New(restclient.Config{
			Service:           "openai",
			BaseURL:           cfg.BaseURL,
			Headers:           headers,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}),
	}, nil
}

// Model returns the embedding model name.
func (c *Client) Model() string { return c.model }

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// embedResponse covers the OpenAI shape and both Ollama shapes.
type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Embeddings [][]float32 `json:"embeddings"`
	Embedding  []float32   `json:"embedding"`
}

// Embed returns embeddings for texts. OpenAI-compatible servers do not
// distinguish query and document encodings, so purpose is ignored.
func (c *Client) Embed(ctx context.Context, texts []string, _ embedding.Purpose) (embedding.Response, error) {
	var out embedResponse
	if err := c.rest.Post(ctx, "/embeddings", embedRequest{Input: texts, Model: c.model}, &out); err != nil {
		return embedding.Response{}, err
	}
	vectors, err := out.vectors()
	if err != nil {
		return embedding.Response{}, domain.UpstreamError("openai", err)
	}
	return embedding.Response{Floats: vectors}, nil
}

func (r embedResponse) vectors() ([][]float32, error) {
	switch {
	case len(r.Data) > 0:
		data := r.Data
		sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
		vectors := make([][]float32, len(data))
		for i, d := range data {
			vectors[i] = d.Embedding
		}
		return vectors, nil
	case r.Embeddings != nil:
		return r.Embeddings, nil
	case len(r.Embedding) > 0:
		return [][]float32{r.Embedding}, nil
	}
	return nil, errors.New("no embedding returned")
}
