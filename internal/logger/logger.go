package logger

import (
	"log"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the minimal logging surface services and handlers depend on.
// *zap.SugaredLogger satisfies it.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// New builds a sugared zap logger: JSON for "prod"/"production", console otherwise.
func New(mode string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return zapLogger.Sugar(), nil
}

// StdError adapts the logger for http.Server.ErrorLog.
func StdError(l *zap.SugaredLogger) *log.Logger {
	std, err := zap.NewStdLogAt(l.Desugar(), zapcore.ErrorLevel)
	if err != nil {
		return zap.NewStdLog(l.Desugar())
	}
	return std
}

// Nop discards everything; used in tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
