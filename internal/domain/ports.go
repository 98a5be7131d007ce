package domain

import "context"

// VectorStore persists indexed records and answers nearest-vector queries.
// The distance metric is fixed when the schema is created.
type VectorStore interface {
	EnsureSchema(ctx context.Context) error
	Reset(ctx context.Context) error
	WriteBatch(ctx context.Context, records []IndexedRecord) (WriteAck, error)
	NearestTo(ctx context.Context, vector []float32, q NearQuery) ([]RetrievedHit, error)
	Close() error
}

// Reranker orders candidate documents by relevance to a query.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RerankResult, error)
}

// ObjectStatus is the store's verdict on a single written object.
type ObjectStatus struct {
	ID    string
	Error string
}

// NestedAck is the wrapped acknowledgement shape some stores return.
type NestedAck struct {
	Objects []ObjectStatus
}

// WriteAck is the acknowledgement of one batch write. Stores report either a
// flat object list or a nested results object; Confirmed normalizes both.
type WriteAck struct {
	Objects []ObjectStatus
	Results *NestedAck
}

// Confirmed returns the number of objects the store reports as written.
func (a WriteAck) Confirmed() int {
	objects := a.Objects
	if objects == nil && a.Results != nil {
		objects = a.Results.Objects
	}
	n := 0
	for _, o := range objects {
		if o.Error == "" {
			n++
		}
	}
	return n
}
