package server

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

// Pipeline is the question-answering service behind the HTTP API.
type Pipeline interface {
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)
	Answer(ctx context.Context, req domain.AskRequest) (*domain.Answer, error)
}

type ingestRequest struct {
	Text   string `json:"text" validate:"required"`
	Title  string `json:"title"`
	Source string `json:"source"`
	URL    string `json:"url" validate:"omitempty,url"`
	DocID  string `json:"docId"`
}

type ingestResponse struct {
	OK bool `json:"ok"`
	*domain.IngestResult
}

type askRequest struct {
	Query  string `json:"query" validate:"required"`
	TopK   int    `json:"topK" validate:"omitempty,gt=0,lte=100"`
	FinalN int    `json:"finalN" validate:"omitempty,gt=0,lte=50"`
	DocID  string `json:"docId"`
}

type timings struct {
	Total int64 `json:"total"`
}

type askResponse struct {
	OK      bool            `json:"ok"`
	Answer  string          `json:"answer"`
	Sources []domain.Source `json:"sources"`
	Timings timings         `json:"timings_ms"`
}

// Handler serves the ingest and ask endpoints.
type Handler struct {
	pipeline Pipeline
	logger   *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(pipeline Pipeline, logger *zap.Logger) *Handler {
	return &Handler{pipeline: pipeline, logger: logger}
}

// Ingest handles POST /api/ingest.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}
	res, err := h.pipeline.Ingest(r.Context(), domain.IngestRequest{
		Text:   req.Text,
		Title:  req.Title,
		Source: req.Source,
		URL:    req.URL,
		DocID:  req.DocID,
	})
	if err != nil {
		if res != nil {
			// committed batches are not rolled back
			h.logger.Warn("ingest failed after partial write",
				zap.String("doc_id", res.DocID),
				zap.Int("inserted", res.Inserted))
		}
		writeError(w, err, h.logger)
		return
	}
	if err := writeJSON(w, http.StatusOK, ingestResponse{OK: true, IngestResult: res}); err != nil {
		h.logger.Error("failed to write ingest response", zap.Error(err))
	}
}

// Ask handles POST /api/ask.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}
	ans, err := h.pipeline.Answer(r.Context(), domain.AskRequest{
		Query:  req.Query,
		TopK:   req.TopK,
		FinalN: req.FinalN,
		DocID:  req.DocID,
	})
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	sources := ans.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	resp := askResponse{
		OK:      true,
		Answer:  ans.Text,
		Sources: sources,
		Timings: timings{Total: ans.Elapsed.Milliseconds()},
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to write ask response", zap.Error(err))
	}
}

// Health handles GET /healthz.
func Health(w http.ResponseWriter, _ *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
