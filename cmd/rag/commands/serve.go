package commands

import (
	"github.com/spf13/cobra"

	"github.com/Kumaryan12/mini-rag/internal/server"
)

var serveAddr string

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ingest and ask HTTP API",
		Long: `Serve the JSON API:

  POST /api/ingest  {"text": "...", "title": "...", "source": "...", "url": "...", "docId": "..."}
  POST /api/ask     {"query": "...", "topK": 12, "finalN": 6, "docId": "..."}
  GET  /healthz

Examples:
  rag serve
  rag serve --addr :9000`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	addr := a.Config.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	ctx, stop := signalContext(cmd.Context())
	defer stop()
	handler := server.NewRouter(a.Service, a.Config.Server, a.Logger.Named("http"))
	return server.Run(ctx, addr, handler, a.Logger)
}
