package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

const (
	promptSnippetRunes = 900
	sourceSnippetRunes = 300
	untitled           = "Untitled"
)

const promptTemplate = `You are a helpful assistant answering strictly from the provided context.
Add inline citations like [1], [2] at the END of sentences that use that source.
If the answer is not in the context, say "I don't know." Do not fabricate.

Question: %s

Context:
%s

Answer (concise, with citations):`

// truncate returns the first n runes of s and whether anything was cut.
func truncate(s string, n int) (string, bool) {
	r := []rune(s)
	if len(r) <= n {
		return s, false
	}
	return string(r[:n]), true
}

func titleOf(h domain.RetrievedHit) string {
	if h.Title == "" {
		return untitled
	}
	return h.Title
}

// rerankDocument is the text a reranker scores: title, section and body.
func rerankDocument(h domain.RetrievedHit) string {
	var b strings.Builder
	if h.Title != "" {
		b.WriteString(h.Title + " — ")
	}
	if h.Section != "" {
		b.WriteString(h.Section + ": ")
	}
	b.WriteString(h.Text)
	return b.String()
}

// metaLine renders the citation metadata printed under a context snippet.
func metaLine(h domain.RetrievedHit) string {
	var b strings.Builder
	b.WriteString(titleOf(h))
	if h.Section != "" {
		b.WriteString(" — " + h.Section)
	}
	b.WriteString(" (" + h.Source)
	if h.URL != "" {
		b.WriteString(": " + h.URL)
	}
	b.WriteString(", #" + strconv.Itoa(h.Position) + ")")
	return b.String()
}

// contextSnippet is one prompt context entry: the head of the text followed
// by its metadata line.
func contextSnippet(h domain.RetrievedHit) string {
	text, _ := truncate(h.Text, promptSnippetRunes)
	return text + "\n— " + metaLine(h)
}

// BuildPrompt numbers the picked hits [1]..[k] in order and embeds them with
// the question into the grounding instructions.
func BuildPrompt(question string, picked []domain.RetrievedHit) string {
	entries := make([]string, len(picked))
	for i, h := range picked {
		entries[i] = fmt.Sprintf("[%d] %s", i+1, contextSnippet(h))
	}
	return fmt.Sprintf(promptTemplate, question, strings.Join(entries, "\n\n"))
}

// BuildSources numbers the picked hits the same way BuildPrompt does.
func BuildSources(picked []domain.RetrievedHit) []domain.Source {
	sources := make([]domain.Source, len(picked))
	for i, h := range picked {
		snippet, cut := truncate(h.Text, sourceSnippetRunes)
		if cut {
			snippet += "…"
		}
		sources[i] = domain.Source{
			N:        i + 1,
			Title:    titleOf(h),
			Section:  h.Section,
			Position: h.Position,
			Source:   h.Source,
			URL:      h.URL,
			Snippet:  snippet,
		}
	}
	return sources
}
