package weaviate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

type fakeWeaviate struct {
	mu       sync.Mutex
	classes  []string
	created  []classDef
	deleted  []string
	objects  []object
	queries  []string
	batchOut string
	gqlOut   string
}

func (f *fakeWeaviate) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/schema", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodGet:
			classes := make([]map[string]string, len(f.classes))
			for i, c := range f.classes {
				classes[i] = map[string]string{"class": c}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"classes": classes})
		case http.MethodPost:
			var def classDef
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&def))
			f.created = append(f.created, def)
			f.classes = append(f.classes, def.Class)
			_ = json.NewEncoder(w).Encode(def)
		}
	})
	mux.HandleFunc("/v1/schema/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		assert.Equal(t, http.MethodDelete, r.Method)
		name := strings.TrimPrefix(r.URL.Path, "/v1/schema/")
		f.deleted = append(f.deleted, name)
		f.classes = nil
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/batch/objects", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body struct {
			Objects []object `json:"objects"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.objects = append(f.objects, body.Objects...)
		_, _ = w.Write([]byte(f.batchOut))
	})
	mux.HandleFunc("/v1/graphql", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.queries = append(f.queries, body["query"])
		_, _ = w.Write([]byte(f.gqlOut))
	})
	return mux
}

func newStorage(t *testing.T, f *fakeWeaviate) *Storage {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	s, err := NewStorage(Config{Host: srv.URL, APIKey: "key"})
	require.NoError(t, err)
	return s
}

func TestNewStorage_Config(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing host", Config{APIKey: "k"}},
		{"missing key", Config{Host: "example.weaviate.network"}},
		{"bad class", Config{Host: "h", APIKey: "k", Class: "doc chunk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStorage(tt.cfg)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestStorage_EnsureSchema(t *testing.T) {
	f := &fakeWeaviate{}
	s := newStorage(t, f)

	require.NoError(t, s.EnsureSchema(context.Background()))
	require.NoError(t, s.EnsureSchema(context.Background()))

	require.Len(t, f.created, 1)
	def := f.created[0]
	assert.Equal(t, DefaultClassName, def.Class)
	assert.Equal(t, "none", def.Vectorizer)
	assert.Equal(t, "cosine", def.VectorIndexConfig["distance"])
	require.Len(t, def.Properties, 9)
	for _, p := range def.Properties {
		if p.Name == "position" {
			assert.Equal(t, []string{"int"}, p.DataType)
		} else {
			assert.Equal(t, []string{"text"}, p.DataType)
		}
	}
}

func TestStorage_Reset(t *testing.T) {
	f := &fakeWeaviate{classes: []string{DefaultClassName}}
	s := newStorage(t, f)

	require.NoError(t, s.Reset(context.Background()))
	assert.Equal(t, []string{DefaultClassName}, f.deleted)
	assert.Len(t, f.created, 1)
}

func TestStorage_WriteBatch(t *testing.T) {
	f := &fakeWeaviate{batchOut: `[
		{"id":"c1","result":{}},
		{"id":"c2","result":{"errors":{"error":[{"message":"bad vector"}]}}}
	]`}
	s := newStorage(t, f)

	ack, err := s.WriteBatch(context.Background(), []domain.IndexedRecord{
		{DocID: "d", ChunkID: "c1", Position: 0, Text: "a", Section: "body", Vector: []float32{1}},
		{DocID: "d", ChunkID: "c2", Position: 1, Text: "b", Section: "body", Vector: []float32{2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ack.Confirmed())
	assert.Equal(t, "bad vector", ack.Objects[1].Error)

	require.Len(t, f.objects, 2)
	assert.Equal(t, DefaultClassName, f.objects[0].Class)
	assert.Equal(t, "c2", f.objects[1].ID)
	assert.Equal(t, 1, f.objects[1].Properties.Position)
	assert.Equal(t, []float32{2}, f.objects[1].Vector)
}

func TestStorage_NearestTo(t *testing.T) {
	f := &fakeWeaviate{gqlOut: `{"data":{"Get":{"DocChunk":[
		{"text":"hello","title":"T","section":"body","position":2,"source":"upload","url":"","doc_id":"d1","chunk_id":"c9",
		 "_additional":{"id":"c9","distance":0.12}}
	]}}}`}
	s := newStorage(t, f)

	hits, err := s.NearestTo(context.Background(), []float32{0.5, 1}, domain.NearQuery{Limit: 12, DocID: `d1`})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, domain.RetrievedHit{
		ID: "c9", DocID: "d1", ChunkID: "c9", Source: "upload", Title: "T",
		Section: "body", Position: 2, Text: "hello", Distance: 0.12,
	}, hits[0])

	require.Len(t, f.queries, 1)
	q := f.queries[0]
	assert.Contains(t, q, "DocChunk(nearVector: {vector: [0.5,1]}, limit: 12")
	assert.Contains(t, q, `where: {path: ["doc_id"], operator: Equal, valueText: "d1"}`)
	assert.Contains(t, q, "_additional { id distance }")
}

func TestStorage_NearestToUnscopedAndErrors(t *testing.T) {
	f := &fakeWeaviate{gqlOut: `{"errors":[{"message":"class not found"}]}`}
	s := newStorage(t, f)

	_, err := s.NearestTo(context.Background(), []float32{1}, domain.NearQuery{Limit: 3})
	assert.ErrorIs(t, err, domain.ErrUpstream)
	require.Len(t, f.queries, 1)
	assert.NotContains(t, f.queries[0], "where")
}

func TestStorage_QuotesDocID(t *testing.T) {
	s, err := NewStorage(Config{Host: "h", APIKey: "k"})
	require.NoError(t, err)
	q, err := s.nearQuery([]float32{1}, domain.NearQuery{Limit: 1, DocID: `x"} }`})
	require.NoError(t, err)
	assert.Contains(t, q, `valueText: "x\"} }"`)
}
