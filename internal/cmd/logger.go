package cmd

import (
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// newHandler builds a colored handler for terminals and a plain text handler otherwise.
func newHandler(w io.Writer, debug bool) slog.Handler {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  debug,
			NoColor:    runtime.GOOS == "windows",
			TimeFormat: "15:04:05.000",
		})
	}

	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
}

// setLogger installs the default logger. Loggers of all components derive from it.
func (c *Command) setLogger(w io.Writer) {
	slog.SetDefault(slog.New(newHandler(w, c.Debug)))
	c.L = slog.Default().With(slog.String("module", "main"))
}
