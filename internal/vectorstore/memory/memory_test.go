package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

func seed(t *testing.T, s *Storage) {
	t.Helper()
	ack, err := s.WriteBatch(context.Background(), []domain.IndexedRecord{
		{DocID: "a", ChunkID: "a0", Position: 0, Text: "near a", Vector: []float32{1, 0}},
		{DocID: "a", ChunkID: "a1", Position: 1, Text: "far a", Vector: []float32{0, 1}},
		{DocID: "b", ChunkID: "b0", Position: 0, Text: "nearest b", Vector: []float32{1, 0.01}},
	})
	require.NoError(t, err)
	require.Equal(t, 3, ack.Confirmed())
}

func TestStorage_NearestTo(t *testing.T) {
	s := NewStorage()
	seed(t, s)

	hits, err := s.NearestTo(context.Background(), []float32{1, 0}, domain.NearQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a0", hits[0].ChunkID)
	assert.Equal(t, "b0", hits[1].ChunkID)
	assert.InDelta(t, 0, hits[0].Distance, 1e-6)
}

func TestStorage_FilterBeforeRanking(t *testing.T) {
	s := NewStorage()
	seed(t, s)

	// With limit 1 a post-filter would see only a0 and return nothing for b.
	hits, err := s.NearestTo(context.Background(), []float32{1, 0}, domain.NearQuery{Limit: 1, DocID: "b"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].DocID)

	hits, err = s.NearestTo(context.Background(), []float32{1, 0}, domain.NearQuery{Limit: 5, DocID: "a"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Equal(t, "a", h.DocID)
	}
}

func TestStorage_Reset(t *testing.T) {
	s := NewStorage()
	seed(t, s)
	require.NoError(t, s.Reset(context.Background()))
	assert.Zero(t, s.Len())

	hits, err := s.NearestTo(context.Background(), []float32{1, 0}, domain.NearQuery{Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, hits)
}
