package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Kumaryan12/mini-rag/internal/domain"
	"github.com/Kumaryan12/mini-rag/internal/tui"
)

var tuiDocID string

// NewTUICmd creates the tui command.
func NewTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui [file]...",
		Short: "Ask questions interactively",
		Long: `Open an interactive terminal session. Files given as arguments are
ingested first, which makes the command usable with the in-memory store.

Examples:
  rag tui
  rag --offline tui handbook.pdf
  rag tui --doc-id notes-2024`,
		RunE: runTUI,
	}
	cmd.Flags().StringVar(&tuiDocID, "doc-id", "", "Restrict retrieval to one document")
	return cmd
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	header := fmt.Sprintf("RAG  embedder=%s  store=%s", a.Config.Embedder.Type, a.Config.VectorStore.Type)
	chunks := 0
	for _, path := range args {
		text, err := readDocument(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		res, err := a.Service.Ingest(cmd.Context(), domain.IngestRequest{Text: text, Title: titleFor(path)})
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		chunks += res.Inserted
	}
	if len(args) > 0 {
		header += fmt.Sprintf("  ingested %d file(s), %d chunks", len(args), chunks)
	}

	p := tea.NewProgram(tui.New(a.Service, header, tuiDocID), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
