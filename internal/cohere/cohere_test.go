package cohere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kumaryan12/mini-rag/internal/domain"
	"github.com/Kumaryan12/mini-rag/internal/embedding"
	"github.com/Kumaryan12/mini-rag/internal/generation"
)

// newTestClient serves handler for one path and fails the test on any other.
func newTestClient(t *testing.T, path string, handler func(t *testing.T, body map[string]any) string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, path, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(handler(t, body)))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestClient_Embed(t *testing.T) {
	tests := []struct {
		name      string
		purpose   embedding.Purpose
		inputType string
		body      string
	}{
		{"document list", embedding.PurposeDocument, "search_document", `{"embeddings":[[0.1,0.2],[0.3,0.4]]}`},
		{"query keyed", embedding.PurposeQuery, "search_query", `{"embeddings":{"float":[[0.1,0.2],[0.3,0.4]]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "/v1/embed", func(t *testing.T, body map[string]any) string {
				assert.Equal(t, DefaultEmbedModel, body["model"])
				assert.Equal(t, tt.inputType, body["input_type"])
				assert.Equal(t, []any{"a", "b"}, body["texts"])
				return tt.body
			})
			resp, err := c.Embed(context.Background(), []string{"a", "b"}, tt.purpose)
			require.NoError(t, err)
			assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, resp.Vectors())
			assert.Equal(t, DefaultEmbedModel, c.Model())
		})
	}
}

func TestClient_Rerank(t *testing.T) {
	c := newTestClient(t, "/v1/rerank", func(t *testing.T, body map[string]any) string {
		assert.Equal(t, DefaultRerankModel, body["model"])
		assert.Equal(t, "q", body["query"])
		assert.EqualValues(t, 2, body["top_n"])
		return `{"results":[{"index":2,"relevance_score":0.9},{"index":0,"relevance_score":0.4}]}`
	})
	got, err := c.Rerank(context.Background(), "q", []string{"x", "y", "z"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.RerankResult{{Index: 2, Score: 0.9}, {Index: 0, Score: 0.4}}, got)
}

func TestClient_Generate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"flat text", `{"text":"Paris [1]."}`, "Paris [1]."},
		{"message parts", `{"message":{"content":[{"type":"text","text":"Paris "},{"type":"text","text":"[1]."}]}}`, "Paris [1]."},
		{"empty", `{}`, domain.NoAnswer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "/v1/chat", func(t *testing.T, body map[string]any) string {
				assert.Equal(t, DefaultChatModel, body["model"])
				assert.Equal(t, "PROMPT", body["message"])
				assert.InDelta(t, 0.2, body["temperature"], 1e-9)
				return tt.body
			})
			resp, err := c.Generate(context.Background(), generation.Request{Prompt: "PROMPT", Temperature: 0.2})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Normalize())
		})
	}
}

func TestClient_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid api token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "bad"})
	require.NoError(t, err)
	_, err = c.Rerank(context.Background(), "q", []string{"x"}, 1)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
}
