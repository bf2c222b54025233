package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// New builds a JSON logger writing to w, tagged with the service name and, when
// provided, the environment. Keys follow the collector's schema: timestamp,
// severity, message.
func New(w io.Writer, service, env string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			case slog.LevelKey:
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			case slog.MessageKey:
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})

	args := []any{slog.String("service", strings.TrimSpace(service))}
	if env = strings.TrimSpace(env); env != "" {
		args = append(args, slog.String("env", env))
	}
	return slog.New(handler).With(args...)
}

// Setup installs a stdout logger from New as the process default and bridges
// the standard library logger through it, so packages logging via log.Printf
// emit the same JSON lines.
func Setup(service, env string) *slog.Logger {
	base := New(os.Stdout, service, env)
	slog.SetDefault(base)

	stdBridge := slog.NewLogLogger(base.Handler(), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)

	return base
}
