// Package logger provides a small structured logging facade over slog.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	callerSkipFrames = 3 // runtime.Caller -> getCaller -> log -> level method -> caller
)

// Logger defines the logging interface.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Fatal(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// Field constructors.
func String(key, val string) Field                 { return Field{Key: key, Value: val} }
func Int(key string, val int) Field                { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field        { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field              { return Field{Key: key, Value: val} }
func Duration(key string, val time.Duration) Field { return Field{Key: key, Value: val} }
func Any(key string, val any) Field                { return Field{Key: key, Value: val} }
func Error(err error) Field                        { return Field{Key: "error", Value: err} }

type ctxFieldsKey struct{}

// WithContext returns a context carrying fields that every log call made with
// it will include (e.g. the job id of a pipeline run).
func WithContext(ctx context.Context, fields ...Field) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	prev := FieldsFromContext(ctx)
	merged := make([]Field, 0, len(prev)+len(fields))
	merged = append(merged, prev...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, ctxFieldsKey{}, merged)
}

// FieldsFromContext returns the fields attached with WithContext.
func FieldsFromContext(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(ctxFieldsKey{}).([]Field)
	return fields
}

// slogLogger implements Logger using slog.
type slogLogger struct {
	Logger *slog.Logger
}

func (l *slogLogger) Named(name string) Logger {
	return &slogLogger{Logger: l.Logger.With(slog.String("component", name))}
}

func (l *slogLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelInfo, msg, fields)
}

func (l *slogLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelError, msg, fields)
}

func (l *slogLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelDebug, msg, fields)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelWarn, msg, fields)
}

func (l *slogLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelError, msg, fields)
	os.Exit(1)
}

func (l *slogLogger) log(ctx context.Context, level slog.Level, msg string, fields []Field) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Logger.Enabled(ctx, level) {
		return
	}
	ctxFields := FieldsFromContext(ctx)
	attrs := make([]slog.Attr, 0, len(ctxFields)+len(fields)+1)
	attrs = append(attrs, convertFields(ctxFields)...)
	attrs = append(attrs, convertFields(fields)...)
	attrs = append(attrs, slog.String("source", getCaller()))
	l.Logger.LogAttrs(ctx, level, msg, attrs...)
}

// convertFields converts our Field type to slog.Attr.
func convertFields(fields []Field) []slog.Attr {
	attrs := make([]slog.Attr, len(fields))
	for i, f := range fields {
		if err, ok := f.Value.(error); ok && err != nil {
			attrs[i] = slog.String(f.Key, err.Error())
			continue
		}
		attrs[i] = slog.Any(f.Key, f.Value)
	}
	return attrs
}

var (
	mu       sync.RWMutex
	global   Logger
	levelVar slog.LevelVar
)

type initConfig struct {
	writer io.Writer
	format string
	level  string
}

// InitOption customises Init.
type InitOption func(*initConfig)

// WithWriter directs output to w instead of stdout.
func WithWriter(w io.Writer) InitOption {
	return func(c *initConfig) {
		if w != nil {
			c.writer = w
		}
	}
}

// WithFormat selects "text" (default) or "json" output.
func WithFormat(format string) InitOption {
	return func(c *initConfig) { c.format = strings.ToLower(strings.TrimSpace(format)) }
}

// WithLevel sets the initial level; see SetLevelString for accepted values.
func WithLevel(level string) InitOption {
	return func(c *initConfig) { c.level = level }
}

// Init initializes the global logger.
func Init(opts ...InitOption) error {
	cfg := initConfig{writer: os.Stdout, format: "text", level: "info"}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := SetLevelString(cfg.level); err != nil {
		return err
	}

	handlerOpts := &slog.HandlerOptions{Level: &levelVar}
	var h slog.Handler
	switch cfg.format {
	case "", "text":
		h = slog.NewTextHandler(cfg.writer, handlerOpts)
	case "json":
		h = slog.NewJSONHandler(cfg.writer, handlerOpts)
	default:
		return fmt.Errorf("unknown log format: %s", cfg.format)
	}

	mu.Lock()
	global = &slogLogger{Logger: slog.New(h)}
	mu.Unlock()
	return nil
}

// getCaller returns the caller location in format relative/path/file.go:line.
func getCaller() string {
	_, file, line, ok := runtime.Caller(callerSkipFrames)
	if !ok {
		return "unknown:0"
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	relPath, err := filepath.Rel(cwd, file)
	if err != nil {
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return fmt.Sprintf("%s:%d", relPath, line)
}

// Get returns the global logger.
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		panic("logger not initialized. Call logger.Init() first")
	}
	return global
}

// Named creates a named logger.
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync flushes buffered log entries.
func Sync() error {
	// slog does not buffer; nothing to flush
	return nil
}

// SetLevel updates the current logging level for the global logger handler.
func SetLevel(level slog.Level) { levelVar.Set(level) }

// SetLevelString parses and sets the logging level.
// Accepts: debug, info, warn/warning, error (case-insensitive).
func SetLevelString(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		SetLevel(slog.LevelDebug)
	case "", "info":
		SetLevel(slog.LevelInfo)
	case "warn", "warning":
		SetLevel(slog.LevelWarn)
	case "error":
		SetLevel(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}
