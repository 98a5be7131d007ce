// Package lexical is an offline reranker scoring documents by term overlap
// with the query.
package lexical

import (
	"context"
	"math"
	"sort"

	"github.com/Kumaryan12/mini-rag/internal/domain"
	"github.com/Kumaryan12/mini-rag/internal/textproc"
)

// Reranker ranks documents by the Ochiai coefficient between the query's
// term set and each document's term set.
type Reranker struct{}

// New returns a lexical reranker.
func New() *Reranker { return &Reranker{} }

// Rerank returns at most topN results ordered by descending score. Ties keep
// the original document order.
func (r *Reranker) Rerank(_ context.Context, query string, documents []string, topN int) ([]domain.RerankResult, error) {
	qset := textproc.TermSet(query)
	results := make([]domain.RerankResult, len(documents))
	for i, doc := range documents {
		results[i] = domain.RerankResult{Index: i, Score: ochiai(qset, textproc.TermSet(doc))}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topN <= 0 || topN > len(results) {
		topN = len(results)
	}
	return results[:topN], nil
}

// ochiai is |A∩B| / sqrt(|A||B|).
func ochiai(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range b {
		if _, ok := a[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(a))*float64(len(b)))
}
