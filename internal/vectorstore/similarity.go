package vectorstore

import (
	"math"
	"sort"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

// CosineDistance returns 1 - cos(a, b). Zero vectors are at distance 1 from
// everything. Vectors of different length compare over their common prefix.
func CosineDistance(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// Nearest sorts hits by ascending distance and keeps at most limit of them.
// Equal distances keep their input order. A limit of zero or less keeps all.
func Nearest(hits []domain.RetrievedHit, limit int) []domain.RetrievedHit {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// Hit projects a record onto a retrieval hit at the given distance.
func Hit(r domain.IndexedRecord, distance float64) domain.RetrievedHit {
	return domain.RetrievedHit{
		ID:       r.ChunkID,
		DocID:    r.DocID,
		ChunkID:  r.ChunkID,
		Source:   r.Source,
		Title:    r.Title,
		Section:  r.Section,
		Position: r.Position,
		Text:     r.Text,
		URL:      r.URL,
		Distance: distance,
	}
}
