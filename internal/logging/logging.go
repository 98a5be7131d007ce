// Package logging builds the application's zap logger.
package logging

import (
	"go.uber.org/zap"

	"github.com/Kumaryan12/mini-rag/internal/config"
	"github.com/Kumaryan12/mini-rag/internal/domain"
)

// New returns a JSON production logger, or a console development logger
// when Format is "console". Verbose forces debug level.
func New(cfg config.LogConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	level := cfg.Level
	if verbose {
		level = "debug"
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, domain.ConfigError("log", "invalid level %q", level)
		}
		zc.Level = lvl
	}
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
