package logging

import (
	"io"
	"log/slog"
)

type Logger interface {
	Info(message string, module string)
	Error(string)
}

// SlogLogger sends info messages and errors to separate slog loggers.
type SlogLogger struct {
	InfoLog  *slog.Logger
	ErrorLog *slog.Logger
}

func (l SlogLogger) Info(message string, module string) {
	l.InfoLog.Info(message, ModuleKey, module)
}

func (l SlogLogger) Error(message string) {
	l.ErrorLog.Error(message)
}

// New returns the logger used by the binaries: plain lines on stdout and
// JSON errors on stderr.
func New(stdout io.Writer, stderr io.Writer, level slog.Level) SlogLogger {
	opts := &slog.HandlerOptions{
		Level: level,
	}
	return SlogLogger{
		InfoLog:  slog.New(NewHandler(stdout, opts)),
		ErrorLog: slog.New(slog.NewJSONHandler(stderr, opts)),
	}
}

type discard struct{}

func (discard) Info(string, string) {}
func (discard) Error(string)        {}

func Discard() Logger {
	return discard{}
}
