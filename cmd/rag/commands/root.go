// Package commands implements the rag command line.
package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kumaryan12/mini-rag/internal/app"
	"github.com/Kumaryan12/mini-rag/internal/config"
	"github.com/Kumaryan12/mini-rag/internal/logging"
)

var (
	configPath string
	verbose    bool
	offline    bool
)

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rag",
		Short: "Ingest documents and ask cited questions about them",
		Long: `rag chunks and embeds documents into a vector store and answers
questions from them with numbered citations.

Configuration is read from --config, ./config.yaml, ./config.toml or
~/.config/rag/config.yaml, in that order. Environment variables from a
.env file in the working directory are loaded first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or TOML config file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&offline, "offline", false, "Use the local hashing embedder and sqlite store instead of remote services")

	cmd.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewAskCmd(),
		NewTUICmd(),
		NewSchemaCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func loadConfig() (*config.AppConfig, error) {
	if offline {
		cfg := config.Offline()
		cfg.VectorStore.Type = "sqlite"
		cfg.VectorStore.SQLite = &config.SQLiteConfig{Path: filepath.Join(".rag", "rag.db")}
		return cfg, nil
	}
	if configPath != "" {
		return config.Load(configPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

// setup loads configuration and builds the application. The returned cleanup
// closes the store and flushes the logger.
func setup() (*app.App, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log, verbose)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	cleanup := func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing vector store", zap.Error(err))
		}
		_ = logger.Sync()
	}
	return a, cleanup, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
