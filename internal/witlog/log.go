// Package witlog is wit's injected logger: a level ladder (info < verbose
// < debug < spam, each -v flag raising it one step) behind a small
// interface passed explicitly to callers instead of a process-wide
// singleton. Warnings and errors are always emitted.
package witlog

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Level controls which messages a Logger emits.
type Level int

const (
	LevelInfo Level = iota
	LevelVerbose
	LevelDebug
	LevelSpam
)

// FromVerbosity maps the CLI's repeatable -v flag (0-4) to a Level.
func FromVerbosity(v int) Level {
	switch {
	case v >= 3:
		return LevelSpam
	case v == 2:
		return LevelDebug
	case v == 1:
		return LevelVerbose
	default:
		return LevelInfo
	}
}

// Logger is the surface every core package takes instead of a singleton.
type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
	Verbose(format string, args ...interface{})
	Spam(format string, args ...interface{})
	// Output writes raw, unprefixed text (used by `inspect --dot`/`--tree`).
	Output(line string)
}

// Std is the default Logger, colored the way the teacher's cmd/sync.go
// color formatters are: info and raw output go unprefixed to stdout;
// everything else goes to stderr behind a [LEVEL] tag, colored for
// warnings, errors and debug messages.
type Std struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	level  Level

	warnTag  *color.Color
	errTag   *color.Color
	dbgTag   *color.Color
}

// New returns a Std logger writing info/output to stdout and everything
// else to stderr, at the given level.
func New(level Level) *Std {
	return &Std{
		out:     os.Stdout,
		errOut:  os.Stderr,
		level:   level,
		warnTag: color.New(color.FgYellow, color.Bold),
		errTag:  color.New(color.FgRed, color.Bold),
		dbgTag:  color.New(color.FgCyan),
	}
}

func (l *Std) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, format+"\n", args...)
}

func (l *Std) Warn(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnTag.Fprint(l.errOut, "[WARN] ")
	fmt.Fprintf(l.errOut, format+"\n", args...)
}

func (l *Std) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errTag.Fprint(l.errOut, "[ERROR] ")
	fmt.Fprintf(l.errOut, format+"\n", args...)
}

func (l *Std) Debug(format string, args ...interface{}) {
	if l.level < LevelDebug {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dbgTag.Fprint(l.errOut, "[DEBUG] ")
	fmt.Fprintf(l.errOut, format+"\n", args...)
}

func (l *Std) Verbose(format string, args ...interface{}) {
	if l.level < LevelVerbose {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.errOut, "[VERBOSE] "+format+"\n", args...)
}

func (l *Std) Spam(format string, args ...interface{}) {
	if l.level < LevelSpam {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.errOut, "[SPAM] "+format+"\n", args...)
}

func (l *Std) Output(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, line)
}

// Nop discards everything; useful for tests that don't care about output.
type Nop struct{}

func (Nop) Info(string, ...interface{})    {}
func (Nop) Warn(string, ...interface{})    {}
func (Nop) Error(string, ...interface{})   {}
func (Nop) Debug(string, ...interface{})   {}
func (Nop) Verbose(string, ...interface{}) {}
func (Nop) Spam(string, ...interface{})    {}
func (Nop) Output(string)                  {}
