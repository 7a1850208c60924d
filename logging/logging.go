// Package logging builds the process logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/richinsley/goartstudio/config"
)

// New returns a zap logger for cfg. Development loggers write colored
// console output; production loggers write JSON.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = level
	}
	return zc.Build()
}
