package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/config"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/logger"
)

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config, version string) (logger.Logger, error) {
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		logger.String("service", cfg.Service.Name),
		logger.String("version", version),
	), nil
}
