// Package logger builds the zap logger shared by the commands.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configure the logger. Logs go to stderr by default so stdout stays
// free for command results.
type Options struct {
	JSON        bool
	Debug       bool
	OutputPaths []string
}

func New(json bool, debug bool) (*zap.Logger, error) {
	return NewWithOptions(Options{JSON: json, Debug: debug})
}

func NewWithOptions(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"

	if opts.JSON {
		encoding = "json"
	}

	if opts.Debug {
		level = zapcore.DebugLevel
	}

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "step",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}

	return cfg.Build()
}
