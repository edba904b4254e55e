// Package logging wraps charmbracelet/log with the teacher's own
// "<component> message" bracket-prefix convention (see http.go's
// log.Printf("<%s> ...", name) throughout the retrieval pack), expressed as
// a structured field instead of a printf prefix.
package logging

import (
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger scopes every line to one named component.
type Logger struct {
	inner *charmlog.Logger
}

var root = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

// For returns a Logger prefixed with component, matching the teacher's
// "<name>" bracket convention from every log.Printf call in http.go.
func For(component string) *Logger {
	return &Logger{inner: root.With("component", component)}
}

func (l *Logger) Debug(msg string, kv ...any) { l.inner.Debug(msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)   { l.inner.Info(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)   { l.inner.Warn(msg, kv...) }
func (l *Logger) Error(msg string, kv ...any)  { l.inner.Error(msg, kv...) }

// SetLevel adjusts verbosity for the whole process.
func SetLevel(debug bool) {
	if debug {
		root.SetLevel(charmlog.DebugLevel)
	} else {
		root.SetLevel(charmlog.InfoLevel)
	}
}
