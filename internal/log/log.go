package log

import (
	"context"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/nullseed/logruseq"
	"github.com/sirupsen/logrus"
	"github.com/suvtekin/auto-bot/config"
)

type Logger = *logrus.Entry

var (
	mu    sync.RWMutex
	entry *logrus.Entry
)

// InitLogger global loggerni konfiguratsiya bo'yicha sozlash
func InitLogger(cfg *config.Config) {
	logger := &logrus.Logger{
		Out:   os.Stdout,
		Hooks: make(logrus.LevelHooks),
		Level: parseLevel(cfg.LogLevel),
	}

	if cfg.IsProduction() {
		logger.Formatter = &logrus.JSONFormatter{}
	} else {
		logger.Formatter = &logrus.TextFormatter{
			ForceColors:      true,
			FullTimestamp:    true,
			QuoteEmptyFields: true,
		}
	}

	if cfg.SeqURL != "" {
		logger.AddHook(logruseq.NewSeqHook(cfg.SeqURL, logruseq.OptionAPIKey(cfg.SeqToken)))
	} else {
		logger.Debug("logger running without seq hook")
	}

	mu.Lock()
	entry = logger.WithField("TraceId", uuid.New().String())
	mu.Unlock()
}

// GetLogger joriy loggerni qaytaradi. InitLogger chaqirilmagan bo'lsa oddiy text logger beriladi.
func GetLogger() Logger {
	mu.RLock()
	e := entry
	mu.RUnlock()
	if e != nil {
		return e
	}

	mu.Lock()
	defer mu.Unlock()
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return entry
}

// AddGlobalField barcha keyingi yozuvlarga maydon qo'shish
func AddGlobalField(name string, value interface{}) Logger {
	logger := GetLogger().WithField(name, value)
	mu.Lock()
	entry = logger
	mu.Unlock()
	return logger
}

func parseLevel(raw string) logrus.Level {
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

type ctxKey struct{}

// NewContext loggerni contextga joylash (masalan update correlation id bilan)
func NewContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext contextdagi logger, bo'lmasa global logger
func FromContext(ctx context.Context) Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(Logger); ok && logger != nil {
			return logger
		}
	}
	return GetLogger()
}
