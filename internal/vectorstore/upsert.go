// Package vectorstore writes chunk embeddings to a vector store in batches.
// Store backends live in the subpackages.
package vectorstore

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

// DefaultBatchSize bounds the objects sent in one store write.
const DefaultBatchSize = 200

// UpserterConfig configures an Upserter.
type UpserterConfig struct {
	BatchSize   int
	Concurrency int
}

// Upserter turns chunks and their vectors into indexed records and writes them.
type Upserter struct {
	store       domain.VectorStore
	batchSize   int
	concurrency int
	logger      *zap.Logger
}

// NewUpserter wraps store.
func NewUpserter(store domain.VectorStore, cfg UpserterConfig, logger *zap.Logger) *Upserter {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Upserter{store: store, batchSize: cfg.BatchSize, concurrency: cfg.Concurrency, logger: logger}
}

// Records builds one record per chunk, each with a fresh chunk ID and the
// shared document metadata.
func Records(chunks []domain.Chunk, vectors [][]float32, meta domain.DocumentMeta) []domain.IndexedRecord {
	records := make([]domain.IndexedRecord, len(chunks))
	for i, c := range chunks {
		section := c.Section
		if section == "" {
			section = domain.DefaultSection
		}
		records[i] = domain.IndexedRecord{
			DocID:       meta.DocID,
			ChunkID:     uuid.NewString(),
			Source:      meta.Source,
			Title:       meta.Title,
			Section:     section,
			Position:    c.Position,
			Text:        c.Text,
			URL:         meta.URL,
			PublishedAt: meta.PublishedAt,
			Vector:      vectors[i],
		}
	}
	return records
}

// Upsert writes the records in batches and returns how many the store
// confirmed. A failed batch stops the run; batches already written stay
// written and are included in the returned count.
func (u *Upserter) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32, meta domain.DocumentMeta) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, domain.ValidationError("upsert", "%d chunks but %d vectors", len(chunks), len(vectors))
	}
	if meta.DocID == "" {
		return 0, domain.ValidationError("upsert", "doc_id is required")
	}
	records := Records(chunks, vectors, meta)

	var inserted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for off := 0; off < len(records); off += u.batchSize {
		off, end := off, min(off+u.batchSize, len(records))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ack, err := u.store.WriteBatch(gctx, records[off:end])
			if err != nil {
				return err
			}
			confirmed := ack.Confirmed()
			inserted.Add(int64(confirmed))
			if confirmed < end-off {
				u.logger.Warn("batch partially written",
					zap.String("doc_id", meta.DocID),
					zap.Int("offset", off),
					zap.Int("size", end-off),
					zap.Int("confirmed", confirmed))
			} else {
				u.logger.Debug("wrote batch",
					zap.String("doc_id", meta.DocID),
					zap.Int("offset", off),
					zap.Int("size", end-off))
			}
			return nil
		})
	}
	err := g.Wait()
	return int(inserted.Load()), err
}
