// Package chunker splits text into overlapping, boundary-aware chunks.
//
// Token budgets are converted to character budgets with a fixed ratio of four
// characters per token. This is an approximation tuned for English-like text;
// chunk sizes drift for CJK, code or other dense scripts.
package chunker

import (
	"regexp"
	"strings"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

const (
	// CharsPerToken is the token-to-character heuristic.
	CharsPerToken = 4

	DefaultChunkTokens   = 1000
	DefaultOverlapTokens = 150

	// lookAhead bounds how far past the naive end a boundary may be searched.
	lookAhead = 1000
	// maxOverlapRatio caps overlap relative to the target chunk size.
	maxOverlapRatio = 0.15
	// minCutRatio is the fraction of the search window a cut must reach.
	minCutRatio = 0.4
)

// Options control chunk sizing. Zero ChunkTokens selects the default,
// zero MaxChunks means unbounded and a negative OverlapTokens is treated as zero.
type Options struct {
	ChunkTokens   int
	OverlapTokens int
	MaxChunks     int
}

// DefaultOptions returns the ingestion defaults.
func DefaultOptions() Options {
	return Options{ChunkTokens: DefaultChunkTokens, OverlapTokens: DefaultOverlapTokens}
}

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// Normalize unifies line endings, collapses runs of blank lines and trims.
func Normalize(input string) string {
	s := strings.ReplaceAll(input, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func toChars(tokens int) int {
	if tokens*CharsPerToken < 1 {
		return 1
	}
	return tokens * CharsPerToken
}

var (
	paragraphBreak = []rune("\n\n")
	sentenceEnds   = [][]rune{
		[]rune(". "), []rune("! "), []rune("? "),
		[]rune("。\n"), []rune("！\n"), []rune("？\n"),
	}
	wordBreak = []rune(" ")
)

// Chunk splits raw into chunks. Positions start at zero and increase by one.
func Chunk(raw string, opts Options) []domain.Chunk {
	chunkTokens := opts.ChunkTokens
	if chunkTokens <= 0 {
		chunkTokens = DefaultChunkTokens
	}
	targetChars := toChars(chunkTokens)
	overlapChars := 0
	if opts.OverlapTokens > 0 {
		overlapChars = min(toChars(opts.OverlapTokens), int(float64(targetChars)*maxOverlapRatio))
	}

	text := []rune(Normalize(raw))
	var chunks []domain.Chunk
	start, prevEnd := 0, 0
	for start < len(text) {
		if opts.MaxChunks > 0 && len(chunks) >= opts.MaxChunks {
			break
		}
		naiveEnd := min(start+targetChars, len(text))
		end := len(text)
		// a remainder that fits in one chunk is taken whole
		if naiveEnd < len(text) {
			end = boundary(text, start, naiveEnd, prevEnd)
			if end <= start {
				end = naiveEnd
			}
		}

		if slice := strings.TrimSpace(string(text[start:end])); slice != "" {
			chunks = append(chunks, domain.Chunk{
				Text:     slice,
				Section:  domain.DefaultSection,
				Position: len(chunks),
			})
		}
		if end >= len(text) {
			break
		}
		prevEnd = end
		start += max(1, end-start-overlapChars)
	}
	return chunks
}

// boundary picks the latest paragraph, sentence or word break in
// text[start:targetEnd+lookAhead] that lies past the minimum cut and beyond
// the previous chunk's end. It returns the naive end when none qualifies.
func boundary(text []rune, start, targetEnd, prevEnd int) int {
	windowEnd := min(targetEnd+lookAhead, len(text))
	window := text[start:windowEnd]

	sentence := -1
	for _, p := range sentenceEnds {
		sentence = max(sentence, lastIndex(window, p))
	}
	minGood := int(float64(len(window)) * minCutRatio)
	best := -1
	for _, c := range []int{lastIndex(window, paragraphBreak), sentence, lastIndex(window, wordBreak)} {
		if c >= minGood && c > best && start+c+1 > prevEnd {
			best = c
		}
	}
	if best < 0 {
		return targetEnd
	}
	// keep the boundary character itself
	return start + best + 1
}

func lastIndex(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
