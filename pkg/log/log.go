// Package log builds the zerolog logger of the procnet tools and bridges it
// to the logr and slog interfaces the libraries accept.
package log

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
)

// New returns a logger at level. It writes JSON to stderr when running in
// Kubernetes and human readable lines otherwise.
func New(level zerolog.Level) *zerolog.Logger {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return NewWithWriter(os.Stderr, level)
	}
	return NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02T15:04:05.999Z07:00"}, level)
}

func NewWithWriter(w io.Writer, level zerolog.Level) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &logger
}

// ParseLevel parses a level name such as "debug" or "warn". The empty
// string is info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(s)
}

func Logr(l *zerolog.Logger) logr.Logger {
	return zerologr.New(l)
}

func Slog(l *zerolog.Logger) *slog.Logger {
	return slog.New(logr.ToSlogHandler(Logr(l)))
}
