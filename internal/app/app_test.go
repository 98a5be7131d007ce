package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kumaryan12/mini-rag/internal/config"
	"github.com/Kumaryan12/mini-rag/internal/domain"
	"github.com/Kumaryan12/mini-rag/internal/vectorstore/memory"
	"github.com/Kumaryan12/mini-rag/internal/vectorstore/sqlite"
)

func TestNewOfflineRoundTrip(t *testing.T) {
	cfg := config.Offline()
	cfg.Retrieval.FinalN = 2

	a, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	assert.IsType(t, &memory.Storage{}, a.Store())

	ctx := context.Background()
	res, err := a.Service.Ingest(ctx, domain.IngestRequest{
		Text:  "Zirconium alloys clad the fuel rods. The reactor hall is painted blue.",
		Title: "Reactor notes",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Chunks)
	assert.Equal(t, 1, res.Inserted)

	ans, err := a.Service.Answer(ctx, domain.AskRequest{Query: "what clads the fuel rods?"})
	require.NoError(t, err)
	assert.False(t, ans.NoResult)
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, "Reactor notes", ans.Sources[0].Title)
	assert.Contains(t, ans.Text, "[1]")
}

func TestNewSQLiteStore(t *testing.T) {
	cfg := config.Offline()
	cfg.VectorStore.Type = "sqlite"
	cfg.VectorStore.SQLite = &config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "rag.db")}

	a, err := New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	assert.IsType(t, &sqlite.Store{}, a.Store())
	require.NoError(t, a.InitSchema(context.Background(), true))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Offline()
	cfg.Embedder.Type = "word2vec"

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewRequiresCohereKey(t *testing.T) {
	t.Setenv("COHERE_API_KEY", "")
	cfg := config.Offline()
	cfg.Reranker.Type = "cohere"

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewRequiresWeaviateHost(t *testing.T) {
	t.Setenv("WEAVIATE_HOST", "")
	t.Setenv("WEAVIATE_API_KEY", "key")
	cfg := config.Offline()
	cfg.VectorStore.Type = "weaviate"
	cfg.VectorStore.Weaviate = &config.WeaviateConfig{Scheme: "https", APIKeyEnv: "WEAVIATE_API_KEY"}

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
