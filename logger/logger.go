package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger used across the service. Fields are
// passed as alternating key/value pairs.
//
//go:generate mockgen -source=logger.go -destination=../mocks/logger.go -package=mocks
type Logger interface {
	Info(message string, fields ...interface{})
	Debug(message string, fields ...interface{})
	Warn(message string, err error, fields ...interface{})
	Error(message string, err error, fields ...interface{})
	Fatal(message string, err error, fields ...interface{})
}

// ZapLogger writes through a zap core. Debug entries are only emitted in
// the development environment, which is decided by the core's level.
type ZapLogger struct {
	env    string
	logger *zap.Logger
}

// NoOpLogger discards everything. Tests use it to keep output quiet.
type NoOpLogger struct{}

func (l *NoOpLogger) Info(message string, fields ...interface{})             {}
func (l *NoOpLogger) Debug(message string, fields ...interface{})            {}
func (l *NoOpLogger) Warn(message string, err error, fields ...interface{})  {}
func (l *NoOpLogger) Error(message string, err error, fields ...interface{}) {}
func (l *NoOpLogger) Fatal(message string, err error, fields ...interface{}) {}

// NewNoOpLogger returns a logger that discards all logs
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}

// NewLogger builds the zap logger for an environment. development gets the
// console encoder at debug level, anything else JSON at info level with an
// ISO8601 "timestamp" key.
func NewLogger(env string) (Logger, error) {
	zapLogger, err := newZapConfig(env).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return newZapLogger(env, zapLogger), nil
}

func newZapConfig(env string) zap.Config {
	if env == "development" {
		return zap.NewDevelopmentConfig()
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func newZapLogger(env string, l *zap.Logger) *ZapLogger {
	return &ZapLogger{env: env, logger: l}
}

func (l *ZapLogger) Info(message string, fields ...interface{}) {
	l.logger.Info(message, toFields(fields)...)
}

func (l *ZapLogger) Debug(message string, fields ...interface{}) {
	if ce := l.logger.Check(zapcore.DebugLevel, message); ce != nil {
		ce.Write(toFields(fields)...)
	}
}

func (l *ZapLogger) Warn(message string, err error, fields ...interface{}) {
	l.logger.Warn(message, withError(err, fields)...)
}

func (l *ZapLogger) Error(message string, err error, fields ...interface{}) {
	l.logger.Error(message, withError(err, fields)...)
}

// Fatal logs and exits the process
func (l *ZapLogger) Fatal(message string, err error, fields ...interface{}) {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	l.logger.Fatal(message, withError(err, fields)...)
}

// Sync flushes buffered log entries
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func withError(err error, kv []interface{}) []zap.Field {
	fields := toFields(kv)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	return fields
}

// toFields pairs up keys and values. A trailing key without a value and
// pairs whose key is not a string are dropped.
func toFields(kv []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, kv[i+1]))
	}
	return fields
}
