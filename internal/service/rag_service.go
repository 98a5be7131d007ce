// Package service runs the ingestion and question-answering pipelines.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kumaryan12/mini-rag/internal/chunker"
	"github.com/Kumaryan12/mini-rag/internal/domain"
	"github.com/Kumaryan12/mini-rag/internal/embedding"
	"github.com/Kumaryan12/mini-rag/internal/generation"
	"github.com/Kumaryan12/mini-rag/internal/vectorstore"
)

const (
	DefaultTopK            = 12
	DefaultFinalN          = 6
	DefaultMaxIngestChunks = 800
	DefaultSource          = "upload"
)

// Options tunes the pipelines. Zero values take the defaults.
type Options struct {
	Chunking        chunker.Options
	MaxIngestChunks int
	TopK            int
	FinalN          int
	Temperature     float64
}

// RAGService ties chunking, embedding, storage, reranking and generation
// together. It holds no per-request state.
type RAGService struct {
	embedder  *embedding.Batcher
	upserter  *vectorstore.Upserter
	store     domain.VectorStore
	reranker  domain.Reranker
	generator generation.Generator
	opts      Options
	logger    *zap.Logger
}

func NewRAGService(
	embedder *embedding.Batcher,
	upserter *vectorstore.Upserter,
	store domain.VectorStore,
	reranker domain.Reranker,
	generator generation.Generator,
	opts Options,
	logger *zap.Logger,
) *RAGService {
	if opts.Chunking.ChunkTokens <= 0 {
		opts.Chunking = chunker.DefaultOptions()
	}
	if opts.MaxIngestChunks <= 0 {
		opts.MaxIngestChunks = DefaultMaxIngestChunks
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.FinalN <= 0 {
		opts.FinalN = DefaultFinalN
	}
	if opts.Temperature <= 0 {
		opts.Temperature = generation.DefaultTemperature
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RAGService{
		embedder:  embedder,
		upserter:  upserter,
		store:     store,
		reranker:  reranker,
		generator: generator,
		opts:      opts,
		logger:    logger,
	}
}

// Ingest chunks, embeds and stores one document. When storage fails partway
// the result still reports how many records were inserted.
func (s *RAGService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, domain.ValidationError("ingest", "text is required")
	}
	meta := domain.DocumentMeta{
		DocID:  req.DocID,
		Source: req.Source,
		Title:  req.Title,
		URL:    req.URL,
	}
	if meta.DocID == "" {
		meta.DocID = uuid.NewString()
	}
	if meta.Title == "" {
		meta.Title = untitled
	}
	if meta.Source == "" {
		meta.Source = DefaultSource
	}

	opts := s.opts.Chunking
	opts.MaxChunks = s.opts.MaxIngestChunks
	chunks := chunker.Chunk(req.Text, opts)
	res := &domain.IngestResult{DocID: meta.DocID, Chunks: len(chunks)}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts, embedding.PurposeDocument)
	if err != nil {
		return nil, err
	}
	res.Embedded = len(vectors)

	inserted, err := s.upserter.Upsert(ctx, chunks, vectors, meta)
	res.Inserted = inserted
	if err != nil {
		s.logger.Error("ingest failed during upsert",
			zap.String("doc_id", meta.DocID),
			zap.Int("inserted", inserted),
			zap.Error(err))
		return res, err
	}
	s.logger.Info("ingested document",
		zap.String("doc_id", meta.DocID),
		zap.Int("chunks", res.Chunks),
		zap.Int("inserted", inserted))
	return res, nil
}

// Answer retrieves, reranks and generates a cited answer. Source n in the
// result is the hit numbered [n] in the prompt.
func (s *RAGService) Answer(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	start := time.Now()
	if strings.TrimSpace(req.Query) == "" {
		return nil, domain.ValidationError("ask", "query is required")
	}
	topK, finalN := req.TopK, req.FinalN
	if topK <= 0 {
		topK = s.opts.TopK
	}
	if finalN <= 0 {
		finalN = s.opts.FinalN
	}

	qvec, err := s.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	hits, err := s.store.NearestTo(ctx, qvec, domain.NearQuery{Limit: topK, DocID: req.DocID})
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return s.noResult(start, "no hits"), nil
	}

	picked, err := s.rerank(ctx, req.Query, hits, finalN)
	if err != nil {
		return nil, err
	}
	if len(picked) == 0 {
		return s.noResult(start, "rerank picked nothing"), nil
	}

	snippets := make([]string, len(picked))
	for i, h := range picked {
		snippets[i], _ = truncate(h.Text, promptSnippetRunes)
	}
	resp, err := s.generator.Generate(ctx, generation.Request{
		Prompt:      BuildPrompt(req.Query, picked),
		Question:    req.Query,
		Snippets:    snippets,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return nil, err
	}

	ans := &domain.Answer{
		Text:    resp.Normalize(),
		Sources: BuildSources(picked),
		Elapsed: time.Since(start),
	}
	s.logger.Info("answered",
		zap.Int("hits", len(hits)),
		zap.Int("sources", len(ans.Sources)),
		zap.String("doc_id", req.DocID),
		zap.Duration("elapsed", ans.Elapsed))
	return ans, nil
}

// rerank returns at most finalN hits in the reranker's order. Indices that
// do not address a hit are dropped, as are repeats.
func (s *RAGService) rerank(ctx context.Context, query string, hits []domain.RetrievedHit, finalN int) ([]domain.RetrievedHit, error) {
	docs := make([]string, len(hits))
	for i, h := range hits {
		docs[i] = rerankDocument(h)
	}
	results, err := s.reranker.Rerank(ctx, query, docs, min(finalN, len(docs)))
	if err != nil {
		return nil, err
	}
	picked := make([]domain.RetrievedHit, 0, len(results))
	seen := make(map[int]bool, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(hits) || seen[r.Index] {
			s.logger.Debug("dropping rerank result", zap.Int("index", r.Index))
			continue
		}
		seen[r.Index] = true
		picked = append(picked, hits[r.Index])
		if len(picked) == finalN {
			break
		}
	}
	return picked, nil
}

func (s *RAGService) noResult(start time.Time, reason string) *domain.Answer {
	elapsed := time.Since(start)
	s.logger.Info("no answer", zap.String("reason", reason), zap.Duration("elapsed", elapsed))
	return &domain.Answer{
		Text:     domain.NoAnswer,
		Sources:  []domain.Source{},
		NoResult: true,
		Elapsed:  elapsed,
	}
}
