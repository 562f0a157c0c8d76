// ABOUTME: Structured logging for the console, built on zap.
// ABOUTME: Provides a configurable sugared logger and a process-wide default.

package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level       string // debug, info, warn, error
	Development bool   // console encoder with colors
	OutputPaths []string
}

// New creates a sugared logger from configuration
func New(cfg Config) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var config zap.Config
	if cfg.Development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	config.Level = zap.NewAtomicLevelAt(level)
	if len(cfg.OutputPaths) > 0 {
		config.OutputPaths = cfg.OutputPaths
	}

	l, err := config.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

var (
	defaultOnce   sync.Once
	defaultLogger *zap.SugaredLogger
)

// Default returns a production logger writing to stderr
func Default() *zap.SugaredLogger {
	defaultOnce.Do(func() {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		defaultLogger = l.Sugar()
	})
	return defaultLogger
}

// Nop returns a logger that discards everything, for tests
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
