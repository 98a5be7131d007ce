package embedding

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

// DefaultBatchSize is the provider batch limit used when none is configured.
const DefaultBatchSize = 96

// BatcherConfig configures a Batcher.
type BatcherConfig struct {
	BatchSize int
	// Concurrency bounds outstanding batch calls. Values below 2 run batches sequentially.
	Concurrency int
}

// Batcher splits texts into provider-sized batches and reassembles the vectors in order.
type Batcher struct {
	svc         Service
	batchSize   int
	concurrency int
	logger      *zap.Logger
}

// NewBatcher wraps svc.
func NewBatcher(svc Service, cfg BatcherConfig, logger *zap.Logger) *Batcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batcher{svc: svc, batchSize: cfg.BatchSize, concurrency: cfg.Concurrency, logger: logger}
}

// Model returns the embedding model of the underlying service.
func (b *Batcher) Model() string { return b.svc.Model() }

// Embed returns one vector per text, in input order. Any batch whose vector
// count differs from its input count fails the whole call.
func (b *Batcher) Embed(ctx context.Context, texts []string, purpose Purpose) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for off := 0; off < len(texts); off += b.batchSize {
		off, end := off, min(off+b.batchSize, len(texts))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resp, err := b.svc.Embed(gctx, texts[off:end], purpose)
			if err != nil {
				return err
			}
			vectors := resp.Vectors()
			if len(vectors) != end-off {
				return domain.CountMismatchError("embed", off, end-off, len(vectors))
			}
			copy(out[off:end], vectors)
			b.logger.Debug("embedded batch",
				zap.Int("offset", off),
				zap.Int("size", end-off),
				zap.String("purpose", string(purpose)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// EmbedQuery embeds a single query text.
func (b *Batcher) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := b.Embed(ctx, []string{query}, PurposeQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
