// Package extractive is an offline generator that answers by quoting the
// context sentences that best match the question.
package extractive

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Kumaryan12/mini-rag/internal/generation"
	"github.com/Kumaryan12/mini-rag/internal/textproc"
)

// DefaultMaxSentences bounds the length of an extracted answer.
const DefaultMaxSentences = 2

// Generator ranks context sentences by query-term overlap and returns the
// best ones, each followed by the citation of the snippet it came from.
type Generator struct {
	maxSentences int
}

// New creates an extractive generator quoting at most maxSentences sentences.
func New(maxSentences int) *Generator {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	return &Generator{maxSentences: maxSentences}
}

type candidate struct {
	snippet  int
	sentence int
	text     string
	score    float64
}

// Generate answers from req.Snippets. When no sentence shares a term with the
// question the response is empty and normalizes to the no-answer text.
func (g *Generator) Generate(_ context.Context, req generation.Request) (generation.Response, error) {
	query := textproc.TermSet(req.Question)
	var cands []candidate
	for si, snippet := range req.Snippets {
		for i, sent := range textproc.Sentences(snippet) {
			terms := textproc.Terms(sent)
			if len(terms) == 0 {
				continue
			}
			hits := 0
			for _, t := range terms {
				if _, ok := query[t]; ok {
					hits++
				}
			}
			if hits == 0 {
				continue
			}
			// Normalize by sentence length to avoid bias toward long sentences.
			score := float64(hits) / math.Sqrt(float64(len(terms)))
			cands = append(cands, candidate{snippet: si, sentence: i, text: sent, score: score})
		}
	}
	if len(cands) == 0 {
		return generation.Response{}, nil
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	if len(cands) > g.maxSentences {
		cands = cands[:g.maxSentences]
	}
	// Keep context order among selected.
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].snippet != cands[j].snippet {
			return cands[i].snippet < cands[j].snippet
		}
		return cands[i].sentence < cands[j].sentence
	})
	parts := make([]generation.Part, 0, len(cands))
	for i, c := range cands {
		text := fmt.Sprintf("%s [%d]", c.text, c.snippet+1)
		if i > 0 {
			text = " " + text
		}
		parts = append(parts, generation.Part{Type: "text", Text: text})
	}
	return generation.Response{Message: &generation.Message{Content: parts}}, nil
}
