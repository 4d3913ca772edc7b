package main

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It starts at debug/json and is rebuilt
// from Config by SetupLogger.
var Log *zap.SugaredLogger

func init() {
	l, err := buildLogger("debug", "json")
	if err != nil {
		panic(err)
	}
	Log = l
}

// SetupLogger replaces Log with one at the given level and encoding
func SetupLogger(level, format string) error {
	l, err := buildLogger(level, format)
	if err != nil {
		return err
	}
	Log = l
	return nil
}

func buildLogger(level, format string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if format != "json" && format != "console" {
		return nil, fmt.Errorf("log format %q: want json or console", format)
	}
	config := zap.Config{
		Encoding:         format,
		Level:            zap.NewAtomicLevelAt(lvl),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
	}
	zl, err := config.Build()
	if err != nil {
		return nil, err
	}
	return zl.Sugar(), nil
}
