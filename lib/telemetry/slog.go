package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"sigawatch/internal/components/telemetry"

	"github.com/lmittmann/tint"
)

// LogFileName returns the name of the log file for the day of `t`, ex. siga_20241003.log
func LogFileName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.log", prefix, t.Format("20060102"))
}

func replaceLevel(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key != slog.LevelKey {
		return attr
	}
	level, ok := attr.Value.Any().(slog.Level)
	if ok && level >= telemetry.LevelCritical {
		attr.Value = slog.StringValue("CRIT")
	}
	return attr
}

// InitSlog sets the default logger to write colored output to stderr and,
// if logDir is not empty, plain text to a dated file in logDir.
//
// The returned closer closes the log file.
func InitSlog(verbose bool, logDir, prefix string, now time.Time) (io.Closer, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	console := tint.NewHandler(os.Stderr, &tint.Options{
		Level:       level,
		TimeFormat:  time.Kitchen,
		ReplaceAttr: replaceLevel,
	})
	if logDir == "" {
		slog.SetDefault(slog.New(console))
		return nopCloser{}, nil
	}

	err := os.MkdirAll(logDir, 0o755)
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(
		filepath.Join(logDir, LogFileName(prefix, now)),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY,
		0o644,
	)
	if err != nil {
		return nil, err
	}
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevel,
	})

	slog.SetDefault(slog.New(fanout{console, fileHandler}))
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fanout sends every record to all of its handlers.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		errs = append(errs, h.Handle(ctx, record.Clone()))
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
