package utils

import (
	"log"
	"sync"

	"joservice/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "joservice"

// Logger is the process-wide logger. Read it through GetLogger.
var (
	Logger   *zap.Logger
	loggerMu sync.RWMutex
)

// InitializeLogger rebuilds the logger from ENV and LOG_LEVEL and installs it
// as zap's global logger too.
func InitializeLogger() {
	l := buildLogger()
	loggerMu.Lock()
	Logger = l
	loggerMu.Unlock()
	zap.ReplaceGlobals(l)
}

// GetLogger returns the process logger, building it on first use.
func GetLogger() *zap.Logger {
	loggerMu.RLock()
	l := Logger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if Logger == nil {
		Logger = buildLogger()
		zap.ReplaceGlobals(Logger)
	}
	return Logger
}

func buildLogger() *zap.Logger {
	var cfg zap.Config
	if config.IsProduction() {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(logLevel())

	l, err := cfg.Build(zap.Fields(zap.String("service", serviceName)))
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return l
}

// logLevel honours LOG_LEVEL when it parses; otherwise production logs at info
// and everything else at debug.
func logLevel() zapcore.Level {
	if raw := config.AppConfig.LogLevel; raw != "" {
		if lvl, err := zapcore.ParseLevel(raw); err == nil {
			return lvl
		}
	}
	if config.IsProduction() {
		return zap.InfoLevel
	}
	return zap.DebugLevel
}
