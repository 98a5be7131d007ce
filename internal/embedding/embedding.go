// Package embedding turns text into vectors through an embedding service,
// respecting the provider's batch limit and normalizing its response shape.
package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
)

// Purpose selects the provider-side encoding mode.
type Purpose string

const (
	PurposeDocument Purpose = "document"
	PurposeQuery    Purpose = "query"
)

// PrimaryType is the preferred key of a keyed embedding response.
const PrimaryType = "float"

// Service is an embedding provider. Implementations return vectors in input order.
type Service interface {
	Embed(ctx context.Context, texts []string, purpose Purpose) (Response, error)
	// Model identifies the embedding space. Stored and query vectors must share it.
	Model() string
}

// Response is either a plain list of vectors or a mapping from embedding
// type to such a list.
type Response struct {
	Floats [][]float32
	ByType map[string][][]float32
}

// Vectors returns the canonical vector list: the plain list when present,
// else the primary key of the mapping, else its first key in sorted order.
func (r Response) Vectors() [][]float32 {
	if r.Floats != nil {
		return r.Floats
	}
	if v, ok := r.ByType[PrimaryType]; ok {
		return v
	}
	if len(r.ByType) == 0 {
		return nil
	}
	keys := make([]string, 0, len(r.ByType))
	for k := range r.ByType {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return r.ByType[keys[0]]
}

// UnmarshalJSON accepts both wire shapes.
func (r *Response) UnmarshalJSON(data []byte) error {
	var list [][]float32
	if err := json.Unmarshal(data, &list); err == nil {
		r.Floats = list
		return nil
	}
	var byType map[string][][]float32
	if err := json.Unmarshal(data, &byType); err != nil {
		return errors.New("embeddings are neither a vector list nor a keyed mapping")
	}
	r.ByType = byType
	return nil
}
