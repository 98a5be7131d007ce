package lexical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReranker_OrdersByOverlap(t *testing.T) {
	docs := []string{
		"Bananas are rich in potassium.",
		"The Eiffel Tower is in Paris, the capital of France.",
		"Paris hosts many museums.",
	}
	got, err := New().Rerank(context.Background(), "What is the capital of France?", docs, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Index)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestReranker_TiesKeepInputOrder(t *testing.T) {
	docs := []string{"alpha", "beta", "gamma"}
	got, err := New().Rerank(context.Background(), "delta", docs, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, r := range got {
		assert.Equal(t, i, r.Index)
		assert.Zero(t, r.Score)
	}
}

func TestReranker_TopNClamped(t *testing.T) {
	got, err := New().Rerank(context.Background(), "alpha", []string{"alpha"}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}

func TestOchiai(t *testing.T) {
	a := map[string]struct{}{"x": {}, "y": {}}
	b := map[string]struct{}{"y": {}, "z": {}}
	assert.InDelta(t, 0.5, ochiai(a, b), 1e-9)
	assert.Zero(t, ochiai(nil, b))
}
