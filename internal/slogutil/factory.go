package slogutil

import (
	"io"
	"log/slog"
)

// Options describe the loggers of one CLI invocation.
type Options struct {
	// Console receives records at ConsoleLevel, usually os.Stderr.
	Console      io.Writer
	ConsoleLevel slog.Level
	// File, when set, also receives records at FileLevel.
	File         string
	FileLevel    slog.Level
	MaxSizeBytes int64
	MaxBackups   int
}

// Setup builds the process logger: console output, teed to a (possibly
// rotating) log file when Options.File is set. The returned closer must be
// closed on exit; it is never nil.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	var handlers []slog.Handler
	if opts.Console != nil {
		handlers = append(handlers, NewHandler(opts.Console, &slog.HandlerOptions{Level: opts.ConsoleLevel}))
	}

	closer := io.Closer(nopCloser{})
	if opts.File != "" {
		fileLogger, c, err := NewFileLoggerWithRotation(opts.File, opts.FileLevel, opts.MaxSizeBytes, opts.MaxBackups)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, fileLogger.Handler())
		closer = c
	}

	switch len(handlers) {
	case 0:
		return NewDiscardLogger(), closer, nil
	case 1:
		return slog.New(handlers[0]), closer, nil
	}
	return slog.New(NewTeeHandler(handlers...)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
