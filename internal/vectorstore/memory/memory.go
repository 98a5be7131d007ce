// Package memory is an in-process vector store using brute-force cosine
// distance. It backs offline runs and tests.
package memory

import (
	"context"
	"sync"

	"github.com/Kumaryan12/mini-rag/internal/domain"
	"github.com/Kumaryan12/mini-rag/internal/vectorstore"
)

// Storage holds records in memory.
type Storage struct {
	mu      sync.RWMutex
	records []domain.IndexedRecord
}

func NewStorage() *Storage { return &Storage{} }

// EnsureSchema is a no-op; the in-memory store has no schema.
func (s *Storage) EnsureSchema(context.Context) error { return nil }

// Reset drops every record.
func (s *Storage) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}

func (s *Storage) WriteBatch(_ context.Context, records []domain.IndexedRecord) (domain.WriteAck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	objects := make([]domain.ObjectStatus, len(records))
	for i, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		s.records = append(s.records, r)
		objects[i] = domain.ObjectStatus{ID: r.ChunkID}
	}
	return domain.WriteAck{Objects: objects}, nil
}

// NearestTo filters by doc ID first, then ranks the remaining records.
func (s *Storage) NearestTo(_ context.Context, vector []float32, q domain.NearQuery) ([]domain.RetrievedHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hits := make([]domain.RetrievedHit, 0, len(s.records))
	for _, r := range s.records {
		if q.DocID != "" && r.DocID != q.DocID {
			continue
		}
		hits = append(hits, vectorstore.Hit(r, vectorstore.CosineDistance(vector, r.Vector)))
	}
	return vectorstore.Nearest(hits, q.Limit), nil
}

// Len reports the number of stored records.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Storage) Close() error { return nil }
