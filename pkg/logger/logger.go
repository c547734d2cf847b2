// Package logger provides the process logger used by pagecheck.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	globalLogger = New(io.Discard, logrus.InfoLevel)
	logFile      *os.File
	mu           sync.Mutex
)

// New builds a text logger writing to w.
func New(w io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000000",
	})
	return l
}

// Init points the global logger at the specified log file path.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	// Close previous log file if exists
	if logFile != nil {
		logFile.Close()
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	globalLogger.SetOutput(f)

	return nil
}

// SetLevel changes the global log level.
func SetLevel(level logrus.Level) {
	mu.Lock()
	defer mu.Unlock()
	globalLogger.SetLevel(level)
}

// Close closes the log file and silences the global logger.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	globalLogger.SetOutput(io.Discard)
}

// Global returns the process logger.
func Global() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	return globalLogger
}

// Component returns an entry tagged with a component field.
func Component(name string) *logrus.Entry {
	return Global().WithField("component", name)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	Global().Warnf(format, v...)
}

// GetWriter returns the log file, or io.Discard when none is open. Launched
// browsers write their own output here.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}
