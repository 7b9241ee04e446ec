package infra

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds a JSON production logger writing to stdout.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	config := zap.NewProductionConfig()
	config.Level = lvl
	config.OutputPaths = []string{"stdout"}
	return config.Build()
}
