package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kong/tablemodel/internal/util"
)

type Key struct{}

var LoggerKey = Key{}

// LevelTrace is a custom trace level for slog
// Using LevelDebug - 4 which equals -8
const LevelTrace = slog.LevelDebug - 4

func ConfigLevelStringToSlogLevel(level string) slog.Level {
	switch level {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError
	}
}

// Options configures the logger built for a command execution.
type Options struct {
	// Level is one of trace, debug, info, warn, error.
	Level string
	// File receives every record at or above Level. Empty discards them.
	File string
	// ErrOut receives error records in the friendly format while mirroring is on.
	ErrOut io.Writer
}

// NewLogger builds the command logger. The returned close func releases the log
// file and is safe to call when no file was opened.
func NewLogger(opts Options) (*slog.Logger, func() error, error) {
	closer := func() error { return nil }

	var primary slog.Handler = slog.DiscardHandler
	if opts.File != "" {
		if err := util.InitDir(opts.File, 0o755); err != nil {
			return nil, closer, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(os.ExpandEnv(opts.File), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, closer, fmt.Errorf("failed to open log file: %w", err)
		}
		closer = f.Close
		primary = newTextHandler(f, ConfigLevelStringToSlogLevel(opts.Level))
	}

	var secondary slog.Handler
	if opts.ErrOut != nil {
		secondary = NewFriendlyErrorHandler(opts.ErrOut)
	}

	return slog.New(NewDualHandler(primary, secondary)), closer, nil
}

func newTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	})
}
