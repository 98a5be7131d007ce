// Package qdrant is a vector store backed by the Qdrant REST API.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Kumaryan12/mini-rag/internal/domain"
	"github.com/Kumaryan12/mini-rag/internal/restclient"
)

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection if missing.
type Storage struct {
	rest       *restclient.Client
	collection string

	mu        sync.Mutex
	dimension int
	ready     bool
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	// Dimension sizes the collection. When zero the collection is created
	// on the first write using that batch's vector length.
	Dimension int
	Timeout   time.Duration
}

func NewStorage(cfg Config) (*Storage, error) {
	if cfg.URL == "" {
		return nil, domain.ConfigError("qdrant", "url is required")
	}
	if cfg.Collection == "" {
		return nil, domain.ConfigError("qdrant", "collection is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["api-key"] = cfg.APIKey
	}
	return &Storage{
		rest: restclient.New(restclient.Config{
			Service: "qdrant",
			BaseURL: cfg.URL,
			Headers: headers,
			Timeout: timeout,
		}),
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
	}, nil
}

func (s *Storage) path(suffix string) string {
	return "/collections/" + url.PathEscape(s.collection) + suffix
}

// EnsureSchema creates the collection when it does not exist. Without a
// known dimension creation is deferred to the first write.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(ctx, s.dimension)
}

func (s *Storage) ensureLocked(ctx context.Context, dimension int) error {
	if s.ready {
		return nil
	}
	err := s.rest.Get(ctx, s.path(""), nil)
	if err == nil {
		s.ready = true
		return nil
	}
	var se *restclient.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusNotFound {
		return err
	}
	if dimension <= 0 {
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := s.rest.Do(ctx, http.MethodPut, s.path(""), body, nil); err != nil {
		return err
	}
	s.dimension = dimension
	s.ready = true
	return nil
}

// Reset drops the collection and recreates it when the dimension is known.
func (s *Storage) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.rest.Do(ctx, http.MethodDelete, s.path(""), nil, nil)
	var se *restclient.StatusError
	if err != nil && !(errors.As(err, &se) && se.Status == http.StatusNotFound) {
		return err
	}
	s.ready = false
	return s.ensureLocked(ctx, s.dimension)
}

type payload struct {
	DocID       string `json:"doc_id"`
	ChunkID     string `json:"chunk_id"`
	Source      string `json:"source"`
	Title       string `json:"title"`
	Section     string `json:"section"`
	Position    int    `json:"position"`
	Text        string `json:"text"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
}

type point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload payload   `json:"payload"`
}

func (s *Storage) WriteBatch(ctx context.Context, records []domain.IndexedRecord) (domain.WriteAck, error) {
	if len(records) == 0 {
		return domain.WriteAck{}, nil
	}
	s.mu.Lock()
	err := s.ensureLocked(ctx, len(records[0].Vector))
	s.mu.Unlock()
	if err != nil {
		return domain.WriteAck{}, err
	}

	points := make([]point, len(records))
	for i, r := range records {
		points[i] = point{
			ID:     r.ChunkID,
			Vector: r.Vector,
			Payload: payload{
				DocID:       r.DocID,
				ChunkID:     r.ChunkID,
				Source:      r.Source,
				Title:       r.Title,
				Section:     r.Section,
				Position:    r.Position,
				Text:        r.Text,
				URL:         r.URL,
				PublishedAt: r.PublishedAt,
			},
		}
	}
	var resp struct {
		Result struct {
			Status string `json:"status"`
		} `json:"result"`
	}
	body := map[string]any{"points": points}
	if err := s.rest.Do(ctx, http.MethodPut, s.path("/points?wait=true"), body, &resp); err != nil {
		return domain.WriteAck{}, err
	}
	// Qdrant acknowledges a batch as a whole.
	var status string
	switch resp.Result.Status {
	case "completed", "acknowledged":
	default:
		status = fmt.Sprintf("operation status %q", resp.Result.Status)
	}
	objects := make([]domain.ObjectStatus, len(records))
	for i, r := range records {
		objects[i] = domain.ObjectStatus{ID: r.ChunkID, Error: status}
	}
	return domain.WriteAck{Results: &domain.NestedAck{Objects: objects}}, nil
}

// NearestTo runs a filtered search; Qdrant applies the doc_id filter during
// the vector search. Distance is reported as 1 - cosine similarity.
func (s *Storage) NearestTo(ctx context.Context, vector []float32, q domain.NearQuery) ([]domain.RetrievedHit, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if q.DocID != "" {
		req["filter"] = map[string]any{
			"must": []map[string]any{
				{"key": "doc_id", "match": map[string]any{"value": q.DocID}},
			},
		}
	}
	var resp struct {
		Result []struct {
			ID      any     `json:"id"`
			Score   float64 `json:"score"`
			Payload payload `json:"payload"`
		} `json:"result"`
	}
	if err := s.rest.Post(ctx, s.path("/points/search"), req, &resp); err != nil {
		var se *restclient.StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	hits := make([]domain.RetrievedHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		p := r.Payload
		hits = append(hits, domain.RetrievedHit{
			ID:       fmt.Sprint(r.ID),
			DocID:    p.DocID,
			ChunkID:  p.ChunkID,
			Source:   p.Source,
			Title:    p.Title,
			Section:  p.Section,
			Position: p.Position,
			Text:     p.Text,
			URL:      p.URL,
			Distance: 1 - r.Score,
		})
	}
	return hits, nil
}

func (s *Storage) Close() error { return nil }
