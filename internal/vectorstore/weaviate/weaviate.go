// Package weaviate is a vector store backed by the Weaviate REST and
// GraphQL APIs. Vectors are supplied by the caller; the class uses no
// vectorizer and a cosine HNSW index.
package weaviate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Kumaryan12/mini-rag/internal/domain"
	"github.com/Kumaryan12/mini-rag/internal/restclient"
)

// DefaultClassName is the class records are written to.
const DefaultClassName = "DocChunk"

var classNamePattern = regexp.MustCompile(`^[A-Z][_0-9A-Za-z]*$`)

type Config struct {
	Host    string
	Scheme  string
	APIKey  string
	Class   string
	Timeout time.Duration
}

// Storage talks to one Weaviate class.
type Storage struct {
	rest  *restclient.Client
	class string
}

// NewStorage validates cfg. Host and API key are both required.
func NewStorage(cfg Config) (*Storage, error) {
	if cfg.Host == "" || cfg.APIKey == "" {
		return nil, domain.ConfigError("weaviate", "host and API key are required")
	}
	if cfg.Class == "" {
		cfg.Class = DefaultClassName
	}
	if !classNamePattern.MatchString(cfg.Class) {
		return nil, domain.ConfigError("weaviate", "invalid class name %q", cfg.Class)
	}
	base := cfg.Host
	if !strings.Contains(base, "://") {
		scheme := cfg.Scheme
		if scheme == "" {
			scheme = "https"
		}
		base = scheme + "://" + base
	}
	return &Storage{
		rest: restclient.New(restclient.Config{
			Service: "weaviate",
			BaseURL: base,
			Headers: map[string]string{"Authorization": "Bearer " + cfg.APIKey},
			Timeout: cfg.Timeout,
		}),
		class: cfg.Class,
	}, nil
}

type property struct {
	Name     string   `json:"name"`
	DataType []string `json:"dataType"`
}

type classDef struct {
	Class             string         `json:"class"`
	Vectorizer        string         `json:"vectorizer"`
	VectorIndexType   string         `json:"vectorIndexType"`
	VectorIndexConfig map[string]any `json:"vectorIndexConfig"`
	Properties        []property     `json:"properties"`
}

func (s *Storage) classDefinition() classDef {
	text := []string{"text"}
	return classDef{
		Class:             s.class,
		Vectorizer:        "none",
		VectorIndexType:   "hnsw",
		VectorIndexConfig: map[string]any{"distance": "cosine"},
		Properties: []property{
			{"doc_id", text},
			{"chunk_id", text},
			{"source", text},
			{"title", text},
			{"section", text},
			{"position", []string{"int"}},
			{"text", text},
			{"url", text},
			{"published_at", text},
		},
	}
}

func (s *Storage) exists(ctx context.Context) (bool, error) {
	var schema struct {
		Classes []struct {
			Class string `json:"class"`
		} `json:"classes"`
	}
	if err := s.rest.Get(ctx, "/v1/schema", &schema); err != nil {
		return false, err
	}
	for _, c := range schema.Classes {
		if c.Class == s.class {
			return true, nil
		}
	}
	return false, nil
}

func (s *Storage) create(ctx context.Context) error {
	return s.rest.Post(ctx, "/v1/schema", s.classDefinition(), nil)
}

// EnsureSchema creates the class when it is missing.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	ok, err := s.exists(ctx)
	if err != nil || ok {
		return err
	}
	return s.create(ctx)
}

// Reset deletes the class, and every object in it, then recreates it.
func (s *Storage) Reset(ctx context.Context) error {
	ok, err := s.exists(ctx)
	if err != nil {
		return err
	}
	if ok {
		if err := s.rest.Do(ctx, http.MethodDelete, "/v1/schema/"+s.class, nil, nil); err != nil {
			return err
		}
	}
	return s.create(ctx)
}

type properties struct {
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

type object struct {
	Class      string     `json:"class"`
	ID         string     `json:"id,omitempty"`
	Properties properties `json:"properties"`
	Vector     []float32  `json:"vector"`
}

type batchResult struct {
	ID     string `json:"id"`
	Result struct {
		Errors *struct {
			Error []struct {
				Message string `json:"message"`
			} `json:"error"`
		} `json:"errors"`
	} `json:"result"`
}

func (r batchResult) status() domain.ObjectStatus {
	st := domain.ObjectStatus{ID: r.ID}
	if r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
		msgs := make([]string, len(r.Result.Errors.Error))
		for i, e := range r.Result.Errors.Error {
			msgs[i] = e.Message
		}
		st.Error = strings.Join(msgs, "; ")
	}
	return st
}

// WriteBatch posts records to the batch endpoint. Weaviate answers with one
// result per object; objects carrying errors are not counted as written.
func (s *Storage) WriteBatch(ctx context.Context, records []domain.IndexedRecord) (domain.WriteAck, error) {
	objects := make([]object, len(records))
	for i, r := range records {
		objects[i] = object{
			Class: s.class,
			ID:    r.ChunkID,
			Properties: properties{
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
			Vector: r.Vector,
		}
	}
	var results []batchResult
	if err := s.rest.Post(ctx, "/v1/batch/objects", map[string]any{"objects": objects}, &results); err != nil {
		return domain.WriteAck{}, err
	}
	ack := domain.WriteAck{Objects: make([]domain.ObjectStatus, len(results))}
	for i, r := range results {
		ack.Objects[i] = r.status()
	}
	return ack, nil
}

const hitFields = `text title section position source url doc_id chunk_id _additional { id distance }`

// nearQuery renders the GraphQL Get query. The doc_id filter is a where
// clause on the same query, so Weaviate filters before ranking.
func (s *Storage) nearQuery(vector []float32, q domain.NearQuery) (string, error) {
	vec, err := json.Marshal(vector)
	if err != nil {
		return "", err
	}
	args := fmt.Sprintf("nearVector: {vector: %s}, limit: %d", vec, q.Limit)
	if q.DocID != "" {
		docID, err := json.Marshal(q.DocID)
		if err != nil {
			return "", err
		}
		args += fmt.Sprintf(`, where: {path: ["doc_id"], operator: Equal, valueText: %s}`, docID)
	}
	return fmt.Sprintf("{ Get { %s(%s) { %s } } }", s.class, args, hitFields), nil
}

type graphQLHit struct {
	Text       string `json:"text"`
	Title      string `json:"title"`
	Section    string `json:"section"`
	Position   int    `json:"position"`
	Source     string `json:"source"`
	URL        string `json:"url"`
	DocID      string `json:"doc_id"`
	ChunkID    string `json:"chunk_id"`
	Additional struct {
		ID       string  `json:"id"`
		Distance float64 `json:"distance"`
	} `json:"_additional"`
}

type graphQLResponse struct {
	Data struct {
		Get map[string][]graphQLHit `json:"Get"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (s *Storage) NearestTo(ctx context.Context, vector []float32, q domain.NearQuery) ([]domain.RetrievedHit, error) {
	if q.Limit <= 0 {
		q.Limit = 10
	}
	query, err := s.nearQuery(vector, q)
	if err != nil {
		return nil, domain.UpstreamError("weaviate", err)
	}
	var resp graphQLResponse
	if err := s.rest.Post(ctx, "/v1/graphql", map[string]string{"query": query}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, domain.UpstreamError("weaviate", errors.New(resp.Errors[0].Message))
	}
	raw := resp.Data.Get[s.class]
	hits := make([]domain.RetrievedHit, len(raw))
	for i, h := range raw {
		hits[i] = domain.RetrievedHit{
			ID:       h.Additional.ID,
			DocID:    h.DocID,
			ChunkID:  h.ChunkID,
			Source:   h.Source,
			Title:    h.Title,
			Section:  h.Section,
			Position: h.Position,
			Text:     h.Text,
			URL:      h.URL,
			Distance: h.Additional.Distance,
		}
	}
	return hits, nil
}

func (s *Storage) Close() error { return nil }
