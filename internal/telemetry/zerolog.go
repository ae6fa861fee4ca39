package telemetry

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ZerologLogger delegates to github.com/rs/zerolog for structured, leveled
// logging. keyvals are interpreted as alternating key/value pairs, matching
// the shape used across the runtime's call sites.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger builds a Logger writing to w. When pretty is true, logs
// are rendered with zerolog's human-friendly console writer (used for
// interactive terminal sessions); otherwise they are newline-delimited JSON
// suitable for piping into a log aggregator.
func NewZerologLogger(w io.Writer, pretty bool) Logger {
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return &ZerologLogger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// Debug logs at debug level.
func (z *ZerologLogger) Debug(ctx context.Context, msg string, keyvals ...any) {
	z.log(ctx, zerolog.DebugLevel, msg, keyvals...)
}

// Info logs at info level.
func (z *ZerologLogger) Info(ctx context.Context, msg string, keyvals ...any) {
	z.log(ctx, zerolog.InfoLevel, msg, keyvals...)
}

// Warn logs at warn level.
func (z *ZerologLogger) Warn(ctx context.Context, msg string, keyvals ...any) {
	z.log(ctx, zerolog.WarnLevel, msg, keyvals...)
}

// Error logs at error level.
func (z *ZerologLogger) Error(ctx context.Context, msg string, keyvals ...any) {
	z.log(ctx, zerolog.ErrorLevel, msg, keyvals...)
}

func (z *ZerologLogger) log(_ context.Context, level zerolog.Level, msg string, keyvals ...any) {
	evt := z.logger.WithLevel(level)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		evt = evt.Interface(key, keyvals[i+1])
	}
	evt.Msg(msg)
}
