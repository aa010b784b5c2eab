// Package log provides the zerolog logger shared by the rx command and server.
//
// The library packages never log. Until SetStd or SetOutput is called every event is
// discarded.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu        sync.RWMutex
	pkgLogger = zerolog.Nop()
)

// SetStd installs a human readable logger on stderr. Debug events are only written
// when verbose is set.
func SetStd(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	set(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger())
}

// SetOutput installs a JSON logger writing to w at the given level.
func SetOutput(w io.Writer, level zerolog.Level) {
	set(zerolog.New(w).Level(level).With().Timestamp().Logger())
}

func set(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	pkgLogger = l
}

// Logger returns the current logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return pkgLogger
}

func Debug() *zerolog.Event { l := Logger(); return l.Debug() }
func Info() *zerolog.Event  { l := Logger(); return l.Info() }
func Warn() *zerolog.Event  { l := Logger(); return l.Warn() }
func Error() *zerolog.Event { l := Logger(); return l.Error() }

// Printf sends a log event using info level and no extra field.
// Arguments are handled in the manner of fmt.Printf.
func Printf(format string, v ...any) {
	l := Logger()
	l.Info().CallerSkipFrame(1).Msgf(format, v...)
}
