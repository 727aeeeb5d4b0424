// Package logger builds the zap loggers used across cashdesk and carries
// request-scoped tenant and operator identity into every log line.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config mirrors the log.* keys of the application configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or a file path
	TimeFormat string // layout for the time field, ISO8601 when empty
}

const defaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// New builds a zap logger from cfg. Production deployments run json/stdout;
// the console encoder is for local work at the till.
func New(cfg *Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zc.Sampling = nil
	zc.DisableStacktrace = false

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = defaultTimeFormat
	}
	zc.EncoderConfig.TimeKey = "time"
	zc.EncoderConfig.MessageKey = "msg"
	zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeFormat)
	zc.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	zc.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	if strings.EqualFold(cfg.Format, "console") {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc.Encoding = "json"
		zc.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	}

	output := cfg.Output
	if output == "" {
		output = "stdout"
	}
	zc.OutputPaths = []string{output}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes buffered entries. Called on shutdown.
func Sync(logger *zap.Logger) error {
	return logger.Sync()
}
