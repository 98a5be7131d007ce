package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

var (
	askTopK   int
	askFinalN int
	askDocID  string
	askJSON   bool
)

// NewAskCmd creates the ask command.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question with citations",
		Long: `Answer a question from the indexed documents. The answer cites its
sources with [n] markers that refer to the numbered source list.

Examples:
  rag ask "What cladding do the fuel rods use?"
  rag ask --doc-id notes-2024 --final-n 3 "What changed?"
  rag ask --json "Who wrote the handbook?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}
	cmd.Flags().IntVar(&askTopK, "top-k", 0, "Candidates to retrieve (default retrieval.top_k)")
	cmd.Flags().IntVar(&askFinalN, "final-n", 0, "Sources to keep after reranking (default retrieval.final_n)")
	cmd.Flags().StringVar(&askDocID, "doc-id", "", "Restrict retrieval to one document")
	cmd.Flags().BoolVar(&askJSON, "json", false, "Print the answer as JSON")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askTopK < 0 || askFinalN < 0 {
		return fmt.Errorf("--top-k and --final-n must not be negative")
	}
	a, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	ans, err := a.Service.Answer(ctx, domain.AskRequest{
		Query:  strings.Join(args, " "),
		TopK:   askTopK,
		FinalN: askFinalN,
		DocID:  askDocID,
	})
	if err != nil {
		return err
	}
	if askJSON {
		return writeAnswerJSON(cmd.OutOrStdout(), ans)
	}
	printAnswer(cmd.OutOrStdout(), ans)
	return nil
}

type answerJSON struct {
	OK      bool            `json:"ok"`
	Answer  string          `json:"answer"`
	Sources []domain.Source `json:"sources"`
	Timings struct {
		Total int64 `json:"total"`
	} `json:"timings_ms"`
}

func writeAnswerJSON(w io.Writer, ans *domain.Answer) error {
	out := answerJSON{OK: true, Answer: ans.Text, Sources: ans.Sources}
	if out.Sources == nil {
		out.Sources = []domain.Source{}
	}
	out.Timings.Total = ans.Elapsed.Milliseconds()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printAnswer(w io.Writer, ans *domain.Answer) {
	fmt.Fprintln(w, ans.Text)
	if len(ans.Sources) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	for _, s := range ans.Sources {
		line := fmt.Sprintf("  [%d] %s / %s #%d (%s)", s.N, s.Title, s.Section, s.Position, s.Source)
		if s.URL != "" {
			line += " " + s.URL
		}
		fmt.Fprintln(w, line)
	}
}
