package logger

import (
	"log"

	"github.com/jaennil/weather_maps/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapLogger struct {
	logger *zap.SugaredLogger
}

var _ Logger = (*ZapLogger)(nil)

// NewZapLogger builds a sugared zap logger. Format "json" gives production
// encoding for log collectors; anything else gives coloured console output.
func NewZapLogger(cfg config.Logger) *ZapLogger {
	zcfg := zapConfig(cfg.Format)
	zcfg.Level = zap.NewAtomicLevelAt(toZapLevel(cfg.Level))

	logger, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		log.Fatal("failed to build zap logger: ", err)
	}

	return &ZapLogger{
		logger: logger.Sugar(),
	}
}

func zapConfig(format string) zap.Config {
	if format == "json" {
		zcfg := zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "ts"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return zcfg
	}

	zcfg := zap.NewDevelopmentConfig()
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return zcfg
}

// toZapLevel falls back to info for unknown names.
func toZapLevel(name string) zapcore.Level {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		log.Printf("WARN: unknown log level %q, using info", name)
		return zapcore.InfoLevel
	}
	return level
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *ZapLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Infow(msg, keysAndValues...)
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warnw(msg, keysAndValues...)
}

func (l *ZapLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, keysAndValues...)
}

func (l *ZapLogger) Fatal(msg string, keysAndValues ...any) {
	l.logger.Fatalw(msg, keysAndValues...)
}

// Sync flushes buffered entries. Call before exit.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
