// Package logging provides categorized structured logging for photoaudit.
// Every category is a named child of one zap logger. Until Initialize is
// called all loggers are no-ops, so library code and tests stay silent.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot   Category = "boot"   // Startup, config loading
	CategoryExif   Category = "exif"   // Tag directory decoding and flattening
	CategoryPhoto  Category = "photo"  // Image loading and normalization
	CategoryRubric Category = "rubric" // Rubric asset loading and rendering
	CategoryAPI    Category = "api"    // Reasoning backend calls
	CategoryAudit  Category = "audit"  // Audit orchestration
	CategoryWeb    Category = "web"    // Browser session server
	CategoryAgent  Category = "agent"  // Hardware technician agent server
)

// Options configures the root logger.
type Options struct {
	Level      string          // debug, info, warn, error
	Format     string          // json, console
	Categories map[string]bool // per-category toggles; missing = enabled
	Output     string          // stderr (default), stdout, or a file path
}

// Logger wraps a sugared zap logger with a category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu       sync.RWMutex
	root     = zap.NewNop()
	opts     Options
	loggers  = make(map[Category]*Logger)
	disabled = &Logger{sugar: zap.NewNop().Sugar()}
)

// Initialize builds the root logger. Safe to call more than once; the last
// call wins and cached category loggers are rebuilt.
func Initialize(o Options) error {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(o.Format, "console") || strings.EqualFold(o.Format, "text") {
		cfg = zap.NewDevelopmentConfig()
	}

	level, err := parseLevel(o.Level)
	if err != nil {
		return err
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	switch o.Output {
	case "", "stderr":
		cfg.OutputPaths = []string{"stderr"}
	default:
		cfg.OutputPaths = []string{o.Output}
	}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	Replace(l, o)
	return nil
}

// Replace installs an already-built zap logger. Tests use it with
// zaptest/observer cores.
func Replace(l *zap.Logger, o Options) {
	mu.Lock()
	defer mu.Unlock()
	root = l
	opts = o
	loggers = make(map[Category]*Logger)
}

// Root returns the underlying zap logger for callers that want typed fields.
func Root() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// IsCategoryEnabled reports whether a category is switched on.
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	if opts.Categories == nil {
		return true
	}
	enabled, ok := opts.Categories[string(category)]
	return !ok || enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return disabled
	}

	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{
		category: category,
		sugar:    root.Named(string(category)).Sugar(),
	}
	loggers[category] = l
	return l
}

func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// With returns a logger that attaches key/value pairs to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// Sync flushes the root logger. Errors from syncing stderr on some
// platforms are ignored.
func Sync() {
	mu.RLock()
	l := root
	mu.RUnlock()
	if err := l.Sync(); err != nil && !isIgnorableSyncError(err) {
		fmt.Fprintf(os.Stderr, "[logging] sync failed: %v\n", err)
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl")
}

// Convenience helpers

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func API(format string, args ...interface{})       { Get(CategoryAPI).Info(format, args...) }
func APIDebug(format string, args ...interface{})  { Get(CategoryAPI).Debug(format, args...) }
func Exif(format string, args ...interface{})      { Get(CategoryExif).Info(format, args...) }
func ExifDebug(format string, args ...interface{}) { Get(CategoryExif).Debug(format, args...) }
func Audit(format string, args ...interface{})     { Get(CategoryAudit).Info(format, args...) }

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop logs the elapsed time at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold warns when the operation took longer than threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
