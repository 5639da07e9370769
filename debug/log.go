package debug

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu       sync.Mutex
	logger   *logrus.Logger
	file     *os.File
	counters = make(map[string]int)
)

// DefaultPath returns ~/.config/go-backtrack/debug.log
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "go-backtrack", "debug.log")
}

// Enable starts debug logging to path, or DefaultPath when empty
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if logger != nil {
		return nil
	}
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	l := logrus.New()
	l.SetOutput(f)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	file = f
	logger = l
	logger.WithField("category", "debug").Info("=== Debug logging started ===")
	return nil
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	logger = nil
}

// Enabled reports whether Log writes anywhere
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return logger != nil
}

// Log writes a message to the debug log
func Log(category, format string, args ...any) {
	mu.Lock()
	l := logger
	mu.Unlock()

	if l == nil {
		return
	}
	l.WithField("category", category).Debugf(format, args...)
}

// LogEvery logs only every N calls (use for high-frequency events)
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if n > 0 && count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
