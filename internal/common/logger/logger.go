package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type Logger struct {
	service string
	zl      zerolog.Logger
}

func New(service string) *Logger { return NewWithWriter(service, os.Stdout) }

func NewWithWriter(service string, w io.Writer) *Logger {
	zl := zerolog.New(w).With().
		Timestamp().
		Str("service", service).
		Str("hostname", hostname()).
		Logger()
	return &Logger{service: service, zl: zl}
}

// Nop discards everything; used by tests and optional collaborators.
func Nop() *Logger { return &Logger{zl: zerolog.Nop()} }

// Setup applies the process-wide level and, in development, a console writer.
func Setup(level, environment string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if environment == "development" {
		consoleOut = zerolog.ConsoleWriter{Out: os.Stderr}
	}
}

var consoleOut io.Writer

// For returns a logger for a service honouring Setup's writer choice.
func For(service string) *Logger {
	if consoleOut != nil {
		return NewWithWriter(service, consoleOut)
	}
	return New(service)
}

func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{service: l.service, zl: l.zl.With().Fields(fields).Logger()}
}

func (l *Logger) log(ev *zerolog.Event, action string, fields map[string]any, err error) {
	if err != nil {
		ev = ev.AnErr("error", err)
	}
	if fields != nil {
		ev = ev.Fields(fields)
	}
	ev.Str("action", action).Msg(action)
}

func (l *Logger) Info(action string, fields map[string]any) {
	l.log(l.zl.Info(), action, fields, nil)
}

func (l *Logger) Debug(action string, fields map[string]any) {
	l.log(l.zl.Debug(), action, fields, nil)
}

func (l *Logger) Warn(action string, err error, fields map[string]any) {
	l.log(l.zl.Warn(), action, fields, err)
}

func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.log(l.zl.Error(), action, fields, err)
}

func hostname() string { h, _ := os.Hostname(); return h }
