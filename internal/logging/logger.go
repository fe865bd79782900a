// Package logging routes the standard logger to both stdout and a log
// file under the configured directory.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const logFileName = "telematic.log"

var (
	mu      sync.Mutex
	logFile *os.File
	logDir  string
)

// Initialize opens the log file and points the standard logger at it.
func Initialize(dir string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, logFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	logFile = file
	logDir = dir
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	log.Printf("Logging initialized: %s", path)
	return nil
}

// Rotate renames the current log file with a timestamp and starts a new
// one.
func Rotate() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile == nil {
		return fmt.Errorf("logging not initialized")
	}

	if err := logFile.Close(); err != nil {
		return fmt.Errorf("failed to close current log file: %w", err)
	}

	current := filepath.Join(logDir, logFileName)
	rotated := filepath.Join(logDir, fmt.Sprintf("telematic-%s.log", time.Now().Format("20060102-150405")))
	if err := os.Rename(current, rotated); err != nil {
		logFile, _ = os.OpenFile(current, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		return fmt.Errorf("failed to rotate log file: %w", err)
	}

	file, err := os.OpenFile(current, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open new log file: %w", err)
	}
	logFile = file
	log.SetOutput(io.MultiWriter(os.Stdout, file))

	log.Printf("Log rotation completed: %s", rotated)
	return nil
}

// Close closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}
