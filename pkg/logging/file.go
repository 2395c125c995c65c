package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Format represents the log output format
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// FileLoggerConfig holds configuration for file logging
type FileLoggerConfig struct {
	// Path is the log file path
	Path string
	// Format is the output format (json or text)
	Format Format
	// Level is the minimum log level
	Level Level
	// MaxSize is the maximum size in bytes before rotation (0 = no rotation)
	MaxSize int64
	// MaxBackups is the maximum number of backup files to keep
	MaxBackups int
}

// FileLogger implements Logger on top of zerolog
type FileLogger struct {
	out io.Closer
	zl  zerolog.Logger
}

// NewFileLogger creates a logger writing to a rotated file
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	out, err := openRotating(config.Path, config.MaxSize, config.MaxBackups)
	if err != nil {
		return nil, err
	}

	l := NewWriterLogger(out, config.Format, config.Level)
	l.out = out
	return l, nil
}

// NewWriterLogger creates a logger writing to w; Close does not close w
func NewWriterLogger(w io.Writer, format Format, level Level) *FileLogger {
	if format == FormatText {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "2006-01-02T15:04:05.000Z07:00"}
	}

	return &FileLogger{
		zl: zerolog.New(w).
			With().
			Timestamp().
			Logger().
			Level(toZerolog(level)),
	}
}

// Debug logs a debug message
func (l *FileLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.zl.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

// Info logs an info message
func (l *FileLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.zl.Info().Fields(map[string]interface{}(fields)).Msg(msg)
}

// Warn logs a warning message
func (l *FileLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.zl.Warn().Fields(map[string]interface{}(fields)).Msg(msg)
}

// Error logs an error message
func (l *FileLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.zl.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

// WithFields returns a logger with additional fields sharing the same output
func (l *FileLogger) WithFields(fields Fields) Logger {
	return &FileLogger{
		out: l.out,
		zl:  l.zl.With().Fields(map[string]interface{}(fields)).Logger(),
	}
}

// Close flushes and closes the log file
func (l *FileLogger) Close() error {
	if l.out != nil {
		return l.out.Close()
	}
	return nil
}

// rotatingFile is a size-rotated append-only log file
type rotatingFile struct {
	mu          sync.Mutex
	path        string
	maxSize     int64
	maxBackups  int
	file        *os.File
	currentSize int64
}

func openRotating(path string, maxSize int64, maxBackups int) (*rotatingFile, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	return &rotatingFile{
		path:        path,
		maxSize:     maxSize,
		maxBackups:  maxBackups,
		file:        file,
		currentSize: info.Size(),
	}, nil
}

// Write appends one log line, rotating first when the file is full
func (r *rotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return 0, os.ErrClosed
	}

	if r.maxSize > 0 && r.currentSize >= r.maxSize {
		r.rotate()
	}

	n, err := r.file.Write(p)
	r.currentSize += int64(n)
	return n, err
}

// rotate shifts backups (.1 newest) and reopens the file; must be called with the lock held
func (r *rotatingFile) rotate() {
	r.file.Close()

	for i := r.maxBackups - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", r.path, i), fmt.Sprintf("%s.%d", r.path, i+1))
	}
	os.Rename(r.path, r.path+".1")

	if r.maxBackups > 0 {
		os.Remove(fmt.Sprintf("%s.%d", r.path, r.maxBackups+1))
	}

	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		r.file = nil
		return
	}
	r.file = file
	r.currentSize = 0
}

// Close closes the current file; further writes fail
func (r *rotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func toZerolog(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel parses a log level string, defaulting to info
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return InfoLevel
	}
	switch lvl {
	case zerolog.DebugLevel, zerolog.TraceLevel:
		return DebugLevel
	case zerolog.WarnLevel:
		return WarnLevel
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// LevelString returns the upper-case name of a level
func LevelString(level Level) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
