package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

type fakeAnswerer struct {
	got    domain.AskRequest
	answer *domain.Answer
	err    error
}

func (f *fakeAnswerer) Answer(_ context.Context, req domain.AskRequest) (*domain.Answer, error) {
	f.got = req
	return f.answer, f.err
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func TestAskRunsAsynchronously(t *testing.T) {
	svc := &fakeAnswerer{answer: &domain.Answer{
		Text: "Zirconium [1].",
		Sources: []domain.Source{
			{N: 1, Title: "A", Section: "body", Snippet: "Zirconium clads rods."},
			{N: 2, Title: "B", Section: "body", Snippet: "Other text."},
		},
	}}
	m := sized(New(svc, "RAG", "doc-1"))
	m.input.SetValue("what clads rods?")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Empty(t, m.input.Value())

	// ask is the first command of the batch
	msg := m.ask("what clads rods?")()
	assert.Equal(t, domain.AskRequest{Query: "what clads rods?", DocID: "doc-1"}, svc.got)

	next, _ = m.Update(msg)
	m = next.(Model)
	assert.False(t, m.busy)
	require.NotNil(t, m.answer)
	assert.Contains(t, m.renderAnswer(), "Zirconium [1].")
	assert.Contains(t, m.renderAnswer(), "Source [1] 1/2")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.renderAnswer(), "Source [2] 2/2")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Equal(t, 0, m.cursor)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	assert.Equal(t, 1, m.cursor)
}

func TestAnswerErrorShowsStatus(t *testing.T) {
	m := sized(New(&fakeAnswerer{}, "RAG", ""))
	next, _ := m.Update(answerMsg{query: "q", err: domain.UpstreamError("cohere", errors.New("boom"))})
	m = next.(Model)
	assert.Equal(t, "Error: cohere: request failed", m.status)
	assert.Nil(t, m.answer)
	assert.Equal(t, "No answer yet.", m.renderAnswer())
}

func TestEmptyQueryDoesNothing(t *testing.T) {
	m := sized(New(&fakeAnswerer{}, "RAG", ""))
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, next.(Model).busy)
}

func TestNoResultAnswerRendersWithoutSources(t *testing.T) {
	m := sized(New(&fakeAnswerer{}, "RAG", ""))
	next, _ := m.Update(answerMsg{query: "q", answer: &domain.Answer{Text: domain.NoAnswer, NoResult: true}})
	m = next.(Model)
	assert.Equal(t, 0, m.sourceCount())
	assert.Contains(t, m.renderAnswer(), domain.NoAnswer)

	// cycling with no sources is a no-op
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, next.(Model).cursor)
}

func TestHighlightBestSentenceKeepsAllSentences(t *testing.T) {
	out := highlightBestSentence("The sky is blue. Zirconium clads fuel rods. Birds sing.", "fuel rods")
	assert.Contains(t, out, "The sky is blue.")
	assert.Contains(t, out, "Zirconium clads fuel rods.")
	assert.Contains(t, out, "Birds sing.")
	assert.Equal(t, "", highlightBestSentence("", "q"))
}

func TestOverlapCountsDistinctTerms(t *testing.T) {
	q := map[string]struct{}{"fuel": {}, "rods": {}}
	assert.Equal(t, 2, overlap(q, "fuel rods fuel"))
	assert.Equal(t, 0, overlap(q, "nothing here"))
}
