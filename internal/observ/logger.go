// Package observ builds the zap logger the rest of docgate shares. One
// logger, constructed in main and passed down — services and handlers
// never build their own.
package observ

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger selects the config by environment: JSON output in production
// (for log aggregation), console output everywhere else. An unparseable
// LOG_LEVEL falls back to info rather than failing startup — a typo'd
// level should not keep the access service from coming up.
func NewLogger(env, level string) (*zap.Logger, error) {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	return config.Build()
}
