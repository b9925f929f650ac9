package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType defines the category of a log line. Every line carries one
// under the "event" key.
type EventType string

const (
	EventPlan       EventType = "plan"
	EventAgent      EventType = "agent"
	EventExtraction EventType = "extraction"
	EventFallback   EventType = "fallback"
	EventLLM        EventType = "llm"
	EventGateway    EventType = "gateway"
	EventHTTP       EventType = "http"
)

// Fields is the structured context attached to a log line.
type Fields = map[string]any

// Logger is the levelled, structured logger used across the service.
type Logger interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, fields Fields)
	With(fields Fields) Logger
	WithError(err error) Logger
	// Event returns a logger tagged with an event type.
	Event(t EventType) Logger
}

func parseLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// New builds a zap logger. format "json" selects the production encoder.
func New(levelStr, format string) *zap.Logger {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(levelStr))
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// NewConsole builds a zap logger that writes through the terminal writer,
// so log lines and the live status line never interleave.
func NewConsole(levelStr string) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(NewTermWriter()), parseLevel(levelStr))
	return zap.New(core)
}

type zapLogger struct {
	l *zap.Logger
}

func (z *zapLogger) Debug(msg string, fields Fields) { z.l.Debug(msg, toZap(fields)...) }
func (z *zapLogger) Info(msg string, fields Fields)  { z.l.Info(msg, toZap(fields)...) }
func (z *zapLogger) Warn(msg string, fields Fields)  { z.l.Warn(msg, toZap(fields)...) }
func (z *zapLogger) Error(msg string, fields Fields) { z.l.Error(msg, toZap(fields)...) }

func (z *zapLogger) With(fields Fields) Logger {
	return &zapLogger{l: z.l.With(toZap(fields)...)}
}

func (z *zapLogger) WithError(err error) Logger {
	return &zapLogger{l: z.l.With(zap.Error(err))}
}

func (z *zapLogger) Event(t EventType) Logger {
	return &zapLogger{l: z.l.With(zap.String("event", string(t)))}
}

func toZap(fields Fields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// NewStructured creates a Logger backed by zap.
func NewStructured(levelStr, format string) Logger {
	return &zapLogger{l: New(levelStr, format)}
}

// NewConsoleLogger is the Logger form of NewConsole.
func NewConsoleLogger(levelStr string) Logger {
	return &zapLogger{l: NewConsole(levelStr)}
}

// NewZapAdapter wraps an existing *zap.Logger.
func NewZapAdapter(l *zap.Logger) Logger {
	return &zapLogger{l: l}
}

// NewNopLogger discards everything.
func NewNopLogger() Logger {
	return &zapLogger{l: zap.NewNop()}
}
