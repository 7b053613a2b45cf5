// Package logging builds the process logger: log/slog on top of charmbracelet/log.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

// Prefix is printed before every text-formatted log line.
const Prefix = "todo"

// ParseLevel maps a config level name to a charmbracelet/log Level.
// Unknown names fall back to warn.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.WarnLevel
	}
}

// ParseFormatter maps a config format name to a charmbracelet/log Formatter.
func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// New returns a slog.Logger writing to w at the given level and format.
// Machine formats carry timestamps; the text format stays terse.
func New(w io.Writer, level, format string) *slog.Logger {
	formatter := ParseFormatter(format)
	handler := log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		Formatter:       formatter,
		ReportTimestamp: formatter != log.TextFormatter,
		Prefix:          Prefix,
	})
	return slog.New(handler)
}

// Setup installs New(w, level, format) as the slog default and returns it.
func Setup(w io.Writer, level, format string) *slog.Logger {
	logger := New(w, level, format)
	slog.SetDefault(logger)
	return logger
}
