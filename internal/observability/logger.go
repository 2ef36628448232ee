package observability

import (
	"io"
	"log/slog"
	"os"
)

// attribute keys whose values never reach the log sink
var redactedKeys = map[string]struct{}{
	"password":      {},
	"password_hash": {},
	"secret":        {},
	"cookie":        {},
	"authorization": {},
}

func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redact,
	})

	return slog.New(NewContextHandler(handler)).With("env", env)
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := redactedKeys[a.Key]; ok {
		return slog.String(a.Key, "[REDACTED]")
	}
	return a
}
