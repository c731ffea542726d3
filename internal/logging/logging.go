// Package logging builds the structured logger shared by the CLI and the
// HTTP service.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// structured logger used by commands; call as logger.Infow("msg", "key", v)
type Logger struct {
	*zap.SugaredLogger
}

// NewLogger returns a console logger at debug level when verbose and info
// level otherwise. Output goes to stderr so converted documents can be
// written to stdout.
func NewLogger(verbose bool) *Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cfg.DisableCaller = false
	} else {
		cfg.DisableCaller = true
		cfg.EncoderConfig.TimeKey = ""
	}

	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return &Logger{SugaredLogger: base.Sugar()}
}

// discards everything
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Named returns a child logger tagged with name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.Named(name)}
}

// Desugar exposes the underlying zap.Logger for libraries that take one.
func (l *Logger) Desugar() *zap.Logger {
	return l.SugaredLogger.Desugar()
}
