// Package logging builds the application's zap logger.
package logging

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the encoder, level and output.
type Config struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Env      string `mapstructure:"env" validate:"oneof=development production"`
	FilePath string `mapstructure:"file_path"`
}

// New returns a logger for cfg. Development logs are colored console lines;
// production logs are JSON with ECS field names.
func New(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	switch cfg.Env {
	case "production":
		encoder = productionEncoder()
	default:
		encoder = developmentEncoder()
	}

	out := zapcore.Lock(os.Stderr)
	if cfg.FilePath != "" {
		fd, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = zapcore.AddSync(fd)
	}

	core := zapcore.NewCore(encoder, out, level)
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	), nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zap.DebugLevel, nil
	case "", "info":
		return zap.InfoLevel, nil
	case "warn":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	}
	return zap.InfoLevel, fmt.Errorf("unknown logging level: %q", level)
}

func developmentEncoder() zapcore.Encoder {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	return zapcore.NewConsoleEncoder(ec)
}

func productionEncoder() zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000Z"))
	}
	ec.TimeKey = "@timestamp"
	ec.MessageKey = "message"
	ec.LevelKey = "log.level"
	ec.CallerKey = "log.origin.file.name"
	ec.StacktraceKey = "error.stack_trace"
	return zapcore.NewJSONEncoder(ec)
}
