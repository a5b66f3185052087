// Package logging builds the zerolog logger shared by blockpad components.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const permission = 0664

// Builder assembles a logger from an optional file, writer and level.
type Builder struct {
	writer  io.Writer
	path    string
	level   zerolog.Level
	console bool
}

// Logger is a built logger plus the file it owns, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New returns a Builder that logs at warn level to stderr.
func New() *Builder {
	return &Builder{level: zerolog.WarnLevel}
}

// FromPath logs JSON lines appended to the file at path.
func (b *Builder) FromPath(path string) *Builder {
	b.path = path
	return b
}

// FromWriter logs to w.
func (b *Builder) FromWriter(w io.Writer) *Builder {
	b.writer = w
	return b
}

// Level sets the minimum level.
func (b *Builder) Level(level zerolog.Level) *Builder {
	b.level = level
	return b
}

// Console renders human-readable lines instead of JSON. Ignored for files.
func (b *Builder) Console(enabled bool) *Builder {
	b.console = enabled
	return b
}

// Make builds the logger. The caller closes it to release the log file.
func (b *Builder) Make() (*Logger, error) {
	out := &Logger{}
	var w io.Writer = os.Stderr
	if b.writer != nil {
		w = b.writer
	}
	if b.path != "" {
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		out.file = f
		w = zerolog.SyncWriter(f)
	} else if b.console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	out.Logger = zerolog.New(w).Level(b.level).With().Timestamp().Logger()
	return out, nil
}

// Close releases the log file, if one was opened.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Nop returns a disabled logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
