package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/lmittmann/tint"
)

const maxLogSize = 2 * 1024 * 1024 // 2MB

type RotatingWriter struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	size    int64
	maxSize int64
}

// Options controls where log records go. The TUI owns stdout, so Console
// is only set by CLI commands.
type Options struct {
	Path    string
	Level   string
	Console io.Writer
}

// Setup opens the rotating log file and returns a tint-formatted logger
// that writes to it (and to Console when set). The logger is also installed
// as slog's default.
func Setup(opts Options) (*slog.Logger, *RotatingWriter, error) {
	rw, err := Open(opts.Path, maxLogSize)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = rw
	if opts.Console != nil {
		out = io.MultiWriter(opts.Console, rw)
	}

	logger := slog.New(tint.NewHandler(out, &tint.Options{
		Level:      ParseLevel(opts.Level),
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    opts.Console == nil,
	}))
	slog.SetDefault(logger)

	return logger, rw, nil
}

// Discard is a logger for tests and for commands that must stay silent.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Open(logPath string, maxSize int64) (*RotatingWriter, error) {
	// Truncate if too large on startup
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxSize {
		os.Truncate(logPath, 0)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	info, _ := f.Stat()
	size := int64(0)
	if info != nil {
		size = info.Size()
	}

	return &RotatingWriter{
		file:    f,
		path:    logPath,
		size:    size,
		maxSize: maxSize,
	}, nil
}

func (w *RotatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err = w.file.Write(p)
	w.size += int64(n)

	if w.size > w.maxSize {
		w.rotate()
	}

	return n, err
}

func (w *RotatingWriter) rotate() {
	w.file.Close()

	// Keep one backup
	os.Rename(w.path, w.path+".1")

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return
	}

	w.file = f
	w.size = 0
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
