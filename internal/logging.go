package internal

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the JSON logger. A configured log file is rotated by
// lumberjack; otherwise fallback receives the output. The returned close
// function releases the file.
func newLogger(cfg ApplicationConfig, fallback io.Writer) (*slog.Logger, func() error) {
	var w io.Writer = fallback
	closeFn := func() error { return nil }

	if cfg.Log.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
			Compress:   cfg.Log.Compress,
		}
		w = lj
		closeFn = lj.Close
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	return logger, closeFn
}
