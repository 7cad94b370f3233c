package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LogLevel represents different log levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelSuccess
	LevelError
	LevelFatal
)

var levelNames = map[LogLevel]string{
	LevelDebug:   "DEBUG",
	LevelInfo:    "INFO",
	LevelWarn:    "WARN",
	LevelError:   "ERROR",
	LevelFatal:   "FATAL",
	LevelSuccess: "SUCCESS",
}

var levelColors = map[LogLevel]*color.Color{
	LevelDebug:   color.New(color.FgCyan),
	LevelInfo:    color.New(color.FgGreen),
	LevelWarn:    color.New(color.FgYellow),
	LevelError:   color.New(color.FgRed),
	LevelFatal:   color.New(color.FgRed, color.Bold),
	LevelSuccess: color.New(color.FgGreen, color.Bold),
}

var levelEmojis = map[LogLevel]string{
	LevelDebug:   "🐛",
	LevelInfo:    "ℹ️",
	LevelWarn:    "⚠️",
	LevelError:   "❌",
	LevelFatal:   "💀",
	LevelSuccess: "✅",
}

var (
	defaultMu    sync.Mutex
	defaultLevel = levelFromEnv()

	// package loggers follow SetDefaultLevel
	packageLoggers []*Logger
)

// ParseLevel maps a level name such as "debug" or "WARN" to a LogLevel.
// "WARNING" is accepted as an alias of WARN.
func ParseLevel(s string) (LogLevel, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		name = "WARN"
	}
	for lvl, n := range levelNames {
		if n == name {
			return lvl, nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func levelFromEnv() LogLevel {
	lvl, err := ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return LevelInfo
	}
	return lvl
}

// SetDefaultLevel changes the level of every package logger and of loggers
// created after the call.
func SetDefaultLevel(level LogLevel) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLevel = level
	for _, l := range packageLoggers {
		l.SetLevel(level)
	}
}

// Logger is the main logger struct
type Logger struct {
	mu       sync.Mutex
	minLevel LogLevel
	logger   *log.Logger
	display  string
}

// New creates a new Logger instance
func New(out io.Writer, prefix string, flag int, minLevel LogLevel) *Logger {
	return &Logger{
		minLevel: minLevel,
		logger:   log.New(out, prefix, flag),
	}
}

// DefaultLogger creates a stderr logger at the process-wide level.
func DefaultLogger() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return New(os.Stderr, "", log.Ldate|log.Ltime, defaultLevel)
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.minLevel
}

// Log logs a message at a specific level
func (l *Logger) Log(level LogLevel, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.minLevel {
		return
	}

	var pkgDisplay string
	if l.display != "" {
		pkgDisplay = l.display + " "
	}

	formattedMsg := msg
	if len(args) > 0 {
		formattedMsg = fmt.Sprintf(msg, args...)
	}
	logLine := fmt.Sprintf("%s %s %s%s",
		levelColors[level].Sprint(levelNames[level]),
		levelEmojis[level],
		pkgDisplay,
		formattedMsg)

	l.logger.Println(logLine)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.Log(LevelDebug, msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	l.Log(LevelInfo, msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.Log(LevelWarn, msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	l.Log(LevelError, msg, args...)
}

// Success logs a success message
func (l *Logger) Success(msg string, args ...interface{}) {
	l.Log(LevelSuccess, msg, args...)
}

// WithPrefix returns a new Logger sharing this one's writer and level,
// tagged with display in front of every message.
func (l *Logger) WithPrefix(display string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	return &Logger{
		minLevel: l.minLevel,
		logger:   log.New(l.logger.Writer(), l.logger.Prefix(), l.logger.Flags()),
		display:  display,
	}
}

// PackageLogger creates a logger tagged with a package display name.
func PackageLogger(displayName string) *Logger {
	l := DefaultLogger().WithPrefix(displayName)
	defaultMu.Lock()
	packageLoggers = append(packageLoggers, l)
	defaultMu.Unlock()
	return l
}

// Timed logs the duration of a function execution
func (l *Logger) Timed(label string, fn func() error) error {
	start := time.Now()
	l.Info("⏳ Starting %s...", label)
	if err := fn(); err != nil {
		l.Error("%s failed after %v: %v", label, time.Since(start).Round(time.Millisecond), err)
		return err
	}
	l.Success("Completed %s in %v", label, time.Since(start).Round(time.Millisecond))
	return nil
}
