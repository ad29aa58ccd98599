package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// RotationConfig controls size-based rotation of the log file.
type RotationConfig struct {
	// MaxSizeMB rotates the file once a write would push it past this size.
	// Zero disables rotation.
	MaxSizeMB int
	// MaxBackups is how many rotated files are kept (claudeflow.log.1 is the
	// newest).
	MaxBackups int
	// Compress gzips rotated files.
	Compress bool
}

// RotatingWriter is an append-only file writer that rotates by size.
// It is safe for concurrent use.
type RotatingWriter struct {
	mu     sync.Mutex
	path   string
	limit  int64
	cfg    RotationConfig
	file   *os.File
	size   int64
	gzipWG sync.WaitGroup
}

// NewRotatingWriter opens (or creates) path for appending.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	w := &RotatingWriter{
		path:  path,
		limit: int64(cfg.MaxSizeMB) * 1024 * 1024,
		cfg:   cfg,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingWriter) open() error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.file = file
	w.size = info.Size()
	return nil
}

// Write appends p, rotating first if p would overflow the size limit.
// A record is never split across files.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.limit > 0 && w.size > 0 && w.size+int64(len(p)) > w.limit {
		if err := w.rotate(); err != nil {
			// Logging must not stop on a failed rotation.
			fmt.Fprintf(os.Stderr, "claudeflow: log rotation failed: %v\n", err)
			if w.file == nil {
				return 0, err
			}
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// rotate shifts backups up by one and starts a fresh file. Callers hold w.mu.
func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	w.file = nil

	w.shiftBackups()

	if w.cfg.MaxBackups > 0 {
		first := w.backup(1)
		if err := os.Rename(w.path, first); err != nil {
			if openErr := w.open(); openErr != nil {
				return openErr
			}
			return fmt.Errorf("failed to rename log file: %w", err)
		}
		if w.cfg.Compress {
			w.gzipWG.Add(1)
			go func() {
				defer w.gzipWG.Done()
				gzipFile(first)
			}()
		}
	} else if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove log file: %w", err)
	}

	return w.open()
}

// shiftBackups renames .N to .N+1, dropping the oldest.
func (w *RotatingWriter) shiftBackups() {
	for _, suffix := range []string{"", ".gz"} {
		_ = os.Remove(w.backup(w.cfg.MaxBackups) + suffix)
	}
	for i := w.cfg.MaxBackups - 1; i >= 1; i-- {
		for _, suffix := range []string{"", ".gz"} {
			from := w.backup(i) + suffix
			if _, err := os.Stat(from); err == nil {
				_ = os.Rename(from, w.backup(i+1)+suffix)
			}
		}
	}
}

func (w *RotatingWriter) backup(n int) string {
	return fmt.Sprintf("%s.%d", w.path, n)
}

// gzipFile replaces path with path.gz. The original is kept on failure.
func gzipFile(path string) {
	src, err := os.Open(path)
	if err != nil {
		return
	}
	defer src.Close()

	gzPath := path + ".gz"
	dst, err := os.Create(gzPath)
	if err != nil {
		return
	}

	zw := gzip.NewWriter(dst)
	_, copyErr := io.Copy(zw, src)
	closeErr := zw.Close()
	fileErr := dst.Close()
	if copyErr != nil || closeErr != nil || fileErr != nil {
		_ = os.Remove(gzPath)
		return
	}
	_ = os.Remove(path)
}

// Size reports the current file size in bytes.
func (w *RotatingWriter) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Path returns the active log file path.
func (w *RotatingWriter) Path() string {
	return w.path
}

// Close syncs and closes the file and waits for pending compressions.
// Closing twice is a no-op.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.gzipWG.Wait()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	file := w.file
	w.file = nil
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}
