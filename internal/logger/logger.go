package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSize    = 50 // megabytes per log file before rotation
	maxBackups = 30
	maxAge     = 28 // days
)

// New builds the application logger. mode "release" selects the JSON
// production encoder, anything else the development console encoder. When
// logFile is set, entries are also written there as JSON with rotation.
func New(level, mode, logFile string) (*zap.Logger, error) {
	var cfg zap.Config
	if mode == "release" {
		cfg = zap.NewProductionConfig()
		cfg.DisableCaller = true
		cfg.DisableStacktrace = true
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	if level == "" {
		level = "info"
	}
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var opts []zap.Option
	if logFile != "" {
		fileLevel := cfg.Level
		opts = append(opts, zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			fileCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				rotateWriteSyncer(logFile),
				fileLevel,
			)
			return zapcore.NewTee(c, fileCore)
		}))
	}

	return cfg.Build(opts...)
}

func rotateWriteSyncer(logFile string) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
	})
}
