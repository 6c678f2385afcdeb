package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLoggerWithFilter builds a production logger at the level named by
// filter (LOG_FILTER), falling back to info on an unrecognised string.
func NewLoggerWithFilter(filter string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(filter)
	if err != nil {
		level = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
