// Package log provides category-based leveled logging for cath.
// Logging is off unless --debug or CATH_DEBUG is set; stdout stays reserved
// for file contents, so entries go to a file (CATH_LOG, default debug.log).
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (Level, bool) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), true
		}
	}
	return LevelDebug, false
}

// Category groups related log messages.
type Category string

const (
	CatGrammar   Category = "grammar"   // Grammar loading and lookup
	CatTheme     Category = "theme"     // Theme loading and lookup
	CatParse     Category = "parse"     // Tokenizer state machine
	CatHighlight Category = "highlight" // Style resolution
	CatRender    Category = "render"    // Output backends
	CatConfig    Category = "config"    // Configuration loading/saving
	CatCache     Category = "cache"     // Cache operations
	CatWatcher   Category = "watcher"   // File watcher events
	CatTrace     Category = "trace"     // Tracing provider
)

// Logger writes formatted entries to one writer.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	closer   io.Closer
	enabled  bool
	minLevel Level
}

// current is nil until Init or InitWriter runs; logging is then a no-op.
var current atomic.Pointer[Logger]

// Init opens path for appending and installs it as the global logger. The
// minimum level comes from CATH_LOG_LEVEL (default DEBUG). The returned
// cleanup closes the file and uninstalls the logger.
func Init(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G304: path is the user's debug log
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	minLevel := LevelDebug
	if lvl, ok := ParseLevel(os.Getenv("CATH_LOG_LEVEL")); ok {
		minLevel = lvl
	}
	l := &Logger{out: f, closer: f, enabled: true, minLevel: minLevel}
	current.Store(l)

	return func() {
		current.CompareAndSwap(l, nil)
		_ = f.Close()
	}, nil
}

// InitWriter installs a logger writing to w, replacing any existing one.
func InitWriter(w io.Writer, minLevel Level) {
	current.Store(&Logger{out: w, enabled: true, minLevel: minLevel})
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if l := current.Load(); l != nil {
		l.mu.Lock()
		l.enabled = enabled
		l.mu.Unlock()
	}
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	if l := current.Load(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

func Debug(cat Category, msg string, fields ...any) { write(LevelDebug, cat, msg, fields) }
func Info(cat Category, msg string, fields ...any)  { write(LevelInfo, cat, msg, fields) }
func Warn(cat Category, msg string, fields ...any)  { write(LevelWarn, cat, msg, fields) }
func Error(cat Category, msg string, fields ...any) { write(LevelError, cat, msg, fields) }

// ErrorErr logs msg at error level with err appended as the "error" field.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	value := "<nil>"
	if err != nil {
		value = err.Error()
	}
	write(LevelError, cat, msg, append(fields, "error", value))
}

func write(level Level, cat Category, msg string, fields []any) {
	l := current.Load()
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled || level < l.minLevel {
		return
	}

	// 2006-01-02T15:04:05 [LEVEL] [category] message key=value ...
	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&b, " [%s] [%s] %s", level, cat, msg)
	for i := 0; i < len(fields); i += 2 {
		if i+1 == len(fields) {
			fmt.Fprintf(&b, " %v=<missing>", fields[i])
			break
		}
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	b.WriteByte('\n')
	_, _ = io.WriteString(l.out, b.String())
}
