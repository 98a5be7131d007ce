package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

var (
	ingestTitle  string
	ingestSource string
	ingestURL    string
	ingestDocID  string
	ingestJSON   bool
)

// NewIngestCmd creates the ingest command.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Chunk, embed and index documents",
		Long: `Chunk, embed and index one or more documents. Text and PDF files are
supported; "-" reads text from standard input. Each file becomes its own
document, titled after the file name unless --title is given.

Examples:
  rag ingest handbook.pdf
  rag ingest --title "Release notes" --url https://example.com/notes notes.md
  cat notes.txt | rag ingest --doc-id notes-2024 -
  rag ingest --json a.txt b.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIngest,
	}
	cmd.Flags().StringVar(&ingestTitle, "title", "", "Document title")
	cmd.Flags().StringVar(&ingestSource, "source", "", "Source label (default \"upload\")")
	cmd.Flags().StringVar(&ingestURL, "url", "", "Canonical URL of the document")
	cmd.Flags().StringVar(&ingestDocID, "doc-id", "", "Document ID (generated when empty)")
	cmd.Flags().BoolVar(&ingestJSON, "json", false, "Print results as JSON lines")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestDocID != "" && len(args) > 1 {
		return fmt.Errorf("--doc-id applies to a single document, got %d", len(args))
	}
	a, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	out := cmd.OutOrStdout()
	for _, path := range args {
		text, err := readDocument(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		title := ingestTitle
		if title == "" {
			title = titleFor(path)
		}
		res, err := a.Service.Ingest(ctx, domain.IngestRequest{
			Text:   text,
			Title:  title,
			Source: ingestSource,
			URL:    ingestURL,
			DocID:  ingestDocID,
		})
		if err != nil {
			if res != nil {
				a.Logger.Warn("ingest aborted after partial write",
					zap.String("path", path),
					zap.String("doc_id", res.DocID),
					zap.Int("inserted", res.Inserted))
			}
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		if ingestJSON {
			if err := json.NewEncoder(out).Encode(res); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(out, "%s  doc_id=%s chunks=%d embedded=%d inserted=%d\n",
			path, res.DocID, res.Chunks, res.Embedded, res.Inserted)
	}
	return nil
}
