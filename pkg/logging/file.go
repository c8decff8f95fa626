package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileWriter appends entries as JSON lines to a file with size-based rotation
type FileWriter struct {
	basePath string
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	rotate   bool
	maxSize  int64
	maxFiles int
}

// FileWriterConfig configures the file writer
type FileWriterConfig struct {
	BasePath string // Base directory for log files
	Rotate   bool   // Enable size-based rotation
	MaxSize  int64  // Max file size in bytes (default: 100MB)
	MaxFiles int    // Max number of rotated files to keep (default: 10)
}

// NewFileWriter creates a file-based log writer
func NewFileWriter(config FileWriterConfig) (*FileWriter, error) {
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &FileWriter{
		basePath: config.BasePath,
		rotate:   config.Rotate,
		maxSize:  config.MaxSize,
		maxFiles: config.MaxFiles,
	}
	if w.maxSize == 0 {
		w.maxSize = 100 * 1024 * 1024
	}
	if w.maxFiles == 0 {
		w.maxFiles = 10
	}

	if err := w.openLogFile(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *FileWriter) currentPath() string {
	return filepath.Join(w.basePath, "events.log")
}

func (w *FileWriter) openLogFile() error {
	filename := w.currentPath()

	if w.rotate {
		if info, err := os.Stat(filename); err == nil && info.Size() >= w.maxSize {
			if err := w.rotateFile(); err != nil {
				return fmt.Errorf("failed to rotate log file: %w", err)
			}
		}
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	w.file = file
	w.encoder = json.NewEncoder(file)
	return nil
}

func (w *FileWriter) rotateFile() error {
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}

	timestamp := time.Now().Format("2006-01-02-15-04-05")
	rotated := filepath.Join(w.basePath, fmt.Sprintf("events-%s.log", timestamp))

	if err := os.Rename(w.currentPath(), rotated); err != nil {
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	if err := w.cleanupOldFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to cleanup old log files: %v\n", err)
	}
	return nil
}

func (w *FileWriter) cleanupOldFiles() error {
	pattern := filepath.Join(w.basePath, "events-*.log")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	if len(files) > w.maxFiles {
		for _, file := range files[:len(files)-w.maxFiles] {
			if err := os.Remove(file); err != nil {
				fmt.Fprintf(os.Stderr, "failed to remove old log file %s: %v\n", file, err)
			}
		}
	}
	return nil
}

// Write appends the entry as one JSON line
func (w *FileWriter) Write(_ context.Context, entry *Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return fmt.Errorf("file writer is closed")
	}

	if w.rotate {
		if info, err := w.file.Stat(); err == nil && info.Size() >= w.maxSize {
			if err := w.openLogFile(); err != nil {
				return fmt.Errorf("failed to rotate log file: %w", err)
			}
		}
	}

	if err := w.encoder.Encode(entry); err != nil {
		return fmt.Errorf("failed to write log entry: %w", err)
	}
	return nil
}

// Shutdown flushes and closes the underlying file
func (w *FileWriter) Shutdown(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}

// ReadEntries reads back up to count entries from the current log file.
// count <= 0 reads everything. Intended for tests and operational tooling.
func (w *FileWriter) ReadEntries(count int) ([]*Entry, error) {
	file, err := os.Open(w.currentPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	var entries []*Entry
	decoder := json.NewDecoder(file)
	for decoder.More() {
		var entry Entry
		if err := decoder.Decode(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode log entry: %w", err)
		}
		entries = append(entries, &entry)
		if count > 0 && len(entries) >= count {
			break
		}
	}
	return entries, nil
}
