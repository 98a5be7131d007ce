// Package hashing is an offline embedding service based on feature hashing
// of term frequencies. It needs no corpus preparation, so documents and
// queries embedded at different times share one embedding space.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/Kumaryan12/mini-rag/internal/embedding"
	"github.com/Kumaryan12/mini-rag/internal/textproc"
)

// DefaultDimension is the vector size used when none is configured.
const DefaultDimension = 512

// Embedder implements embedding.Service with hashed, sublinear TF vectors.
type Embedder struct {
	dimension int
}

// NewEmbedder creates an embedder producing vectors of the given dimension.
func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dimension: dimension}
}

// Model identifies the embedding space, which depends on the dimension.
func (e *Embedder) Model() string { return fmt.Sprintf("hashing-%d", e.dimension) }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed hashes each text independently. Purpose does not change the encoding.
func (e *Embedder) Embed(_ context.Context, texts []string, _ embedding.Purpose) (embedding.Response, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.vector(text)
	}
	return embedding.Response{Floats: vectors}, nil
}

func (e *Embedder) vector(text string) []float32 {
	tf := make(map[int]float64)
	for _, tok := range textproc.Terms(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		tf[int(h.Sum32()%uint32(e.dimension))]++
	}
	vec := make([]float32, e.dimension)
	norm := 0.0
	for idx, count := range tf {
		w := 1 + math.Log(count)
		vec[idx] = float32(w)
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}
