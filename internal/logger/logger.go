package logger

import (
	"io"
	"os"
	"strings"

	"github.com/samvad-hq/aoi-inspection-client/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Package-level logger to be used across packages after Init.
var S *zap.SugaredLogger

// Logger is the structured logging surface handed to runtimes and publishers.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// Init initializes a zap SugaredLogger using settings from config.
func Init(cfg *config.Config) (Logger, error) {
	return initTo(cfg, zapcore.Lock(os.Stdout))
}

func initTo(cfg *config.Config, out zapcore.WriteSyncer) (Logger, error) {
	level := parseLevel("")
	if cfg != nil {
		level = parseLevel(cfg.LogLevel)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		out,
		level,
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if cfg != nil && cfg.AppName != "" {
		logger = logger.With(zap.String("app", cfg.AppName), zap.String("env", cfg.Env))
	}
	S = logger.Sugar()
	return zapLogger{l: logger}, nil
}

// NewWriter builds a standalone Logger writing JSON lines to w; it does not touch S.
func NewWriter(w io.Writer, level string) Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(w), parseLevel(level))
	return zapLogger{l: zap.New(core)}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Close flushes any buffered loggers.
func Close() error {
	if S == nil {
		return nil
	}
	return S.Sync()
}

// Minimal object logging helpers -------------------------------------------------
// These are tiny wrappers that log the given object as a structured field named
// `key` and do not attempt to parse arbitrary kv arrays.
func InfoObj(msg, key string, obj interface{}) {
	if S == nil {
		return
	}
	S.Desugar().Info(msg, zap.Any(key, obj))
}

func DebugObj(msg, key string, obj interface{}) {
	if S == nil {
		return
	}
	S.Desugar().Debug(msg, zap.Any(key, obj))
}

func WarnObj(msg, key string, obj interface{}) {
	if S == nil {
		return
	}
	S.Desugar().Warn(msg, zap.Any(key, obj))
}

func ErrorObj(msg, key string, obj interface{}) {
	if S == nil {
		return
	}
	S.Desugar().Error(msg, zap.Any(key, obj))
}

type zapLogger struct {
	l *zap.Logger
}

func (z zapLogger) InfoObj(msg, key string, obj interface{})  { z.l.Info(msg, zap.Any(key, obj)) }
func (z zapLogger) DebugObj(msg, key string, obj interface{}) { z.l.Debug(msg, zap.Any(key, obj)) }
func (z zapLogger) WarnObj(msg, key string, obj interface{})  { z.l.Warn(msg, zap.Any(key, obj)) }
func (z zapLogger) ErrorObj(msg, key string, obj interface{}) { z.l.Error(msg, zap.Any(key, obj)) }

// NopLogger discards everything.
type NopLogger struct{}

func (*NopLogger) InfoObj(string, string, interface{})  {}
func (*NopLogger) DebugObj(string, string, interface{}) {}
func (*NopLogger) WarnObj(string, string, interface{})  {}
func (*NopLogger) ErrorObj(string, string, interface{}) {}
