// Package logger provides component-scoped structured logging for hermes.
// Every call names the component that produced it ("gateway", "send_message",
// "directory", ...) so a single stream can be filtered per subsystem.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EnvLogLevel selects the minimum level (debug, info, warn, error).
const EnvLogLevel = "HERMES_LOG_LEVEL"

var (
	mu   sync.RWMutex
	base = newLogger(os.Stderr)
)

func newLogger(out io.Writer) zerolog.Logger {
	level := parseLevel(os.Getenv(EnvLogLevel))
	writer := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func parseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug", "trace":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetOutput redirects log output, keeping the configured level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = base.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true})
}

// SetLevel changes the minimum level at runtime ("debug", "info", "warn", "error").
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	base = base.Level(parseLevel(level))
}

func emit(ev *zerolog.Event, component, msg string, fields map[string]interface{}) {
	if ev == nil {
		return
	}
	ev = ev.Str("component", component)
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(msg)
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

func DebugC(component, msg string) { emit(current().Debug(), component, msg, nil) }
func InfoC(component, msg string)  { emit(current().Info(), component, msg, nil) }
func WarnC(component, msg string)  { emit(current().Warn(), component, msg, nil) }
func ErrorC(component, msg string) { emit(current().Error(), component, msg, nil) }

// DebugCF logs at debug level with structured fields.
func DebugCF(component, msg string, fields map[string]interface{}) {
	emit(current().Debug(), component, msg, fields)
}

// InfoCF logs at info level with structured fields.
func InfoCF(component, msg string, fields map[string]interface{}) {
	emit(current().Info(), component, msg, fields)
}

// WarnCF logs at warn level with structured fields.
func WarnCF(component, msg string, fields map[string]interface{}) {
	emit(current().Warn(), component, msg, fields)
}

// ErrorCF logs at error level with structured fields.
func ErrorCF(component, msg string, fields map[string]interface{}) {
	emit(current().Error(), component, msg, fields)
}
