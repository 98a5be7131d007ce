// Package cohere adapts the Cohere REST API to the embedding, rerank and
// generation ports.
package cohere

import (
	"time"

	"github.com/Kumaryan12/mini-rag/internal/domain"
	"github.com/Kumaryan12/mini-rag/internal/restclient"
)

const (
	DefaultBaseURL     = "https://api.cohere.com"
	DefaultEmbedModel  = "embed-english-v3.0"
	DefaultRerankModel = "rerank-english-v3.0"
	DefaultChatModel   = "command-r-plus"
)

// Config configures the Cohere client.
type Config struct {
	BaseURL           string
	APIKey            string
	EmbedModel        string
	RerankModel       string
	ChatModel         string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client talks to Cohere. One client serves all three ports.
type Client struct {
	cfg  Config
	rest *restclient.Client
}

// NewClient validates cfg and creates a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, domain.ConfigError("cohere", "API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = DefaultEmbedModel
	}
	if cfg.RerankModel == "" {
		cfg.RerankModel = DefaultRerankModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	return &Client{
		cfg: cfg,
		rest: restclient.New(restclient.Config{
			Service:           "cohere",
			BaseURL:           cfg.BaseURL,
			Headers:           map[string]string{"Authorization": "Bearer " + cfg.APIKey},
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}),
	}, nil
}
