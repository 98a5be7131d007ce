// Package app wires configuration into a ready-to-use pipeline. An App owns
// every long-lived handle for the lifetime of the process.
package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Kumaryan12/mini-rag/internal/chunker"
	"github.com/Kumaryan12/mini-rag/internal/cohere"
	"github.com/Kumaryan12/mini-rag/internal/config"
	"github.com/Kumaryan12/mini-rag/internal/domain"
	"github.com/Kumaryan12/mini-rag/internal/embedding"
	"github.com/Kumaryan12/mini-rag/internal/embedding/hashing"
	oaiembed "github.com/Kumaryan12/mini-rag/internal/embedding/openai"
	"github.com/Kumaryan12/mini-rag/internal/generation"
	"github.com/Kumaryan12/mini-rag/internal/generation/extractive"
	oaichat "github.com/Kumaryan12/mini-rag/internal/generation/openai"
	"github.com/Kumaryan12/mini-rag/internal/rerank/lexical"
	"github.com/Kumaryan12/mini-rag/internal/service"
	"github.com/Kumaryan12/mini-rag/internal/vectorstore"
	"github.com/Kumaryan12/mini-rag/internal/vectorstore/memory"
	"github.com/Kumaryan12/mini-rag/internal/vectorstore/qdrant"
	"github.com/Kumaryan12/mini-rag/internal/vectorstore/sqlite"
	"github.com/Kumaryan12/mini-rag/internal/vectorstore/weaviate"
)

// App holds the configured pipeline and its vector store connection.
type App struct {
	Config  *config.AppConfig
	Logger  *zap.Logger
	Service *service.RAGService

	store  domain.VectorStore
	cohere func() (*cohere.Client, error)
}

// New validates cfg and builds every component. Missing credentials for a
// selected backend fail here, before any work is done.
func New(cfg *config.AppConfig, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}
	// One client serves every component configured for Cohere.
	a.cohere = sync.OnceValues(a.newCohere)

	embedder, err := a.embedder()
	if err != nil {
		return nil, err
	}
	reranker, err := a.reranker()
	if err != nil {
		return nil, err
	}
	generator, err := a.generator()
	if err != nil {
		return nil, err
	}
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	a.store = store

	batcher := embedding.NewBatcher(embedder, embedding.BatcherConfig{
		BatchSize:   cfg.Embedder.BatchSize,
		Concurrency: cfg.Embedder.Concurrency,
	}, logger.Named("embed"))
	upserter := vectorstore.NewUpserter(store, vectorstore.UpserterConfig{
		BatchSize:   cfg.VectorStore.UpsertBatch,
		Concurrency: cfg.VectorStore.Concurrency,
	}, logger.Named("upsert"))

	a.Service = service.NewRAGService(batcher, upserter, store, reranker, generator, service.Options{
		Chunking: chunker.Options{
			ChunkTokens:   cfg.Chunker.ChunkTokens,
			OverlapTokens: cfg.Chunker.OverlapTokens,
		},
		MaxIngestChunks: cfg.Chunker.MaxIngestChunks,
		TopK:            cfg.Retrieval.TopK,
		FinalN:          cfg.Retrieval.FinalN,
		Temperature:     cfg.Generator.Temperature,
	}, logger.Named("rag"))

	logger.Info("pipeline ready",
		zap.String("embedder", cfg.Embedder.Type),
		zap.String("model", embedder.Model()),
		zap.String("vector_store", cfg.VectorStore.Type),
		zap.String("reranker", cfg.Reranker.Type),
		zap.String("generator", cfg.Generator.Type))
	return a, nil
}

// Store returns the process-wide vector store handle.
func (a *App) Store() domain.VectorStore { return a.store }

// InitSchema creates the store's class or collection when missing. With
// reset it drops and recreates it, discarding every indexed record.
func (a *App) InitSchema(ctx context.Context, reset bool) error {
	if reset {
		a.Logger.Warn("resetting vector store schema", zap.String("class", a.Config.VectorStore.ClassName))
		return a.store.Reset(ctx)
	}
	return a.store.EnsureSchema(ctx)
}

// Close releases the store connection.
func (a *App) Close() error { return a.store.Close() }

func secs(n int) time.Duration { return time.Duration(n) * time.Second }

func (a *App) newCohere() (*cohere.Client, error) {
	c := a.Config.Cohere
	return cohere.NewClient(cohere.Config{
		BaseURL:           c.BaseURL,
		APIKey:            c.APIKey(),
		EmbedModel:        c.EmbedModel,
		RerankModel:       c.RerankModel,
		ChatModel:         c.ChatModel,
		Timeout:           secs(c.TimeoutSecs),
		RequestsPerSecond: c.RequestsPerSecond,
	})
}

func (a *App) embedder() (embedding.Service, error) {
	switch a.Config.Embedder.Type {
	case "cohere":
		return a.cohere()
	case "openai":
		o := a.Config.OpenAI
		return oaiembed.NewClient(oaiembed.Config{
			BaseURL: o.BaseURL,
			APIKey:  o.APIKey(),
			Model:   o.EmbedModel,
			Timeout: secs(o.TimeoutSecs),
		})
	default:
		return hashing.NewEmbedder(a.Config.Embedder.Dimension), nil
	}
}

func (a *App) reranker() (domain.Reranker, error) {
	if a.Config.Reranker.Type == "cohere" {
		return a.cohere()
	}
	return lexical.New(), nil
}

func (a *App) generator() (generation.Generator, error) {
	switch a.Config.Generator.Type {
	case "cohere":
		return a.cohere()
	case "openai":
		o := a.Config.OpenAI
		return oaichat.New(oaichat.Config{APIKey: o.APIKey(), BaseURL: o.BaseURL, Model: o.ChatModel})
	default:
		return extractive.New(a.Config.Generator.MaxSentences), nil
	}
}

func (a *App) openStore() (domain.VectorStore, error) {
	vs := a.Config.VectorStore
	var (
		st  domain.VectorStore
		err error
	)
	switch vs.Type {
	case "weaviate":
		w := vs.Weaviate
		if w == nil {
			return nil, domain.ConfigError("weaviate", "host and API key are required")
		}
		st, err = weaviate.NewStorage(weaviate.Config{
			Host:    w.Host,
			Scheme:  w.Scheme,
			APIKey:  w.APIKey(),
			Class:   vs.ClassName,
			Timeout: secs(w.TimeoutSecs),
		})
	case "qdrant":
		q := vs.Qdrant
		if q == nil {
			return nil, domain.ConfigError("qdrant", "url is required")
		}
		st, err = qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     q.APIKey,
			Collection: q.Collection,
			Dimension:  q.Dimension,
			Timeout:    secs(q.TimeoutSecs),
		})
	case "sqlite":
		path := ""
		if vs.SQLite != nil {
			path = vs.SQLite.Path
		}
		var s *sqlite.Store
		s, err = sqlite.NewStore(path, "")
		if err == nil {
			// A local table is cheap to create up front.
			err = s.EnsureSchema(context.Background())
		}
		st = s
	default:
		st = memory.NewStorage()
	}
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("vector store opened", zap.String("type", vs.Type))
	return st, nil
}
