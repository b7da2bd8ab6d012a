// Package logging provides the timestamped console logger used by a run.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const timeFormat = "15:04:05"

// Logger wraps zerolog with the console format used on the terminal.
type Logger struct {
	zlog    zerolog.Logger
	verbose bool
}

// New creates a logger writing to w. Verbose enables debug events. Colour is
// only used when w is a terminal.
func New(w io.Writer, verbose bool) *Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zlog := zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: timeFormat,
		NoColor:    !isTerminal(w),
	}).Level(level).With().Timestamp().Logger()
	return &Logger{zlog: zlog, verbose: verbose}
}

// Nop discards everything. Used by tests and library callers without a terminal.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// WithRun returns a child logger tagged with the run ID.
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{
		zlog:    l.zlog.With().Str("run", runID).Logger(),
		verbose: l.verbose,
	}
}

func (l *Logger) Verbose() bool {
	return l.verbose
}

func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warnf logs a warning message with printf-style formatting.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// Debugf is only shown when verbose mode is enabled.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
