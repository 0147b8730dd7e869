// Package logging wraps zap behind a single process-wide logger whose
// output format is driven by internal/config's LoggingConfig.Output
// knob (console, json, or development), set once from .refactorcore.yaml
// or the --log-format flag before any plugin or planner call logs
// anything.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// InitLogger builds the process-wide logger for outputFormat, one of
// internal/config's LoggingConfig.Output values ("console", "json",
// "development"); anything else falls back to "console".
func InitLogger(outputFormat string) error {
	var cfg zap.Config

	switch outputFormat {
	case "json":
		cfg = zap.NewProductionConfig()
	case "development":
		cfg = zap.NewDevelopmentConfig()
	case "console":
		fallthrough
	default:
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	built, err := cfg.Build()
	if err != nil {
		return err
	}
	logger = built
	return nil
}

// GetSugaredLogger returns the process-wide logger, building a default
// production logger on first use if a command path never called
// InitLogger (library callers that skip cmd/root.go's PersistentPreRun).
func GetSugaredLogger() *zap.SugaredLogger {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return logger.Sugar()
}
