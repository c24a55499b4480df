// Package logging constructs the process-wide *zap.Logger and the
// per-module child-logger helper shared by every module, following the structured-field style
// used throughout the worker/component code in the retrieved examples.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger for the given level name ("debug", "info", "warn",
// "error") and environment ("production" selects JSON output, anything else
// selects a human-readable console encoder).
func New(level, environment string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("logging: invalid level %q: %w", level, err)
	}

	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return logger, nil
}

// Module returns a child logger tagged with the owning module's name, the
// way each worker in the retrieved examples stamps a component field on
// every log line it emits.
func Module(base *zap.Logger, name string) *zap.Logger {
	return base.With(zap.String("module", name))
}
