// Package telemetry builds the structured logger that the metrics server
// and the ringbench command take as an argument rather than reaching for
// a global.
package telemetry

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	// Output is "stdout" or "stderr". Anything else falls back to stdout.
	Output string
	// Level is case-insensitive: debug, info, warn, error, fatal.
	Level string
	// Development enables zap's development mode and stack traces on
	// warn and above. Caller paths are short in either mode.
	Development bool
}

// SetDefaults fills the zero-valued fields of Config.
func (c *Config) SetDefaults() {
	if c.Output == "" {
		c.Output = "stdout"
	}
	if c.Level == "" {
		c.Level = "info"
	}
}

// New builds a zap.Logger per cfg.
func New(cfg Config) (*zap.Logger, error) {
	cfg.SetDefaults()

	var sink zapcore.WriteSyncer
	switch cfg.Output {
	case "stderr":
		sink = zapcore.AddSync(os.Stderr)
	default:
		sink = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(encoder(), sink, parseLevel(cfg.Level))

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}
	return zap.New(core, opts...), nil
}

func encoder() zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.LevelKey = "level"
	ec.CallerKey = "caller"
	ec.MessageKey = "msg"
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	ec.EncodeTime = rfc3339TimeEncoder
	ec.EncodeDuration = zapcore.SecondsDurationEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(ec)
}

func rfc3339TimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(time.RFC3339Nano))
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "FATAL":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Must is a convenience wrapper for callers that treat a broken logger
// config as fatal, e.g. at process startup.
func Must(cfg Config) *zap.Logger {
	l, err := New(cfg)
	if err != nil {
		panic(fmt.Sprintf("telemetry: %v", err))
	}
	return l
}
