package driver

import (
	"fmt"
	"os"
	"sync"
	"time"

	"sanity/engine-go/pkg/runtime"
)

// OSFiles is the real-filesystem file adapter. Open tracks the handle so the
// engine's close bookkeeping has something to balance against; reads and
// writes are whole-file operations, which matches how programs actually use
// handles in this language.
type OSFiles struct {
	mu   sync.Mutex
	open map[string]bool
}

func NewOSFiles() *OSFiles {
	return &OSFiles{open: map[string]bool{}}
}

var _ runtime.FileAdapter = (*OSFiles)(nil)

func (f *OSFiles) Open(path string) error {
	// Opening a file that does not exist yet is allowed; the first write
	// creates it.
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("files: %s is a directory", path)
	}
	f.mu.Lock()
	f.open[path] = true
	f.mu.Unlock()
	return nil
}

func (f *OSFiles) Read(path string) (string, int64, error) {
	if err := f.checkOpen(path); err != nil {
		return "", 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("files: read %s: %w", path, err)
	}
	return string(data), int64(len(data)), nil
}

func (f *OSFiles) Write(path string, data string) (int64, error) {
	if err := f.checkOpen(path); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return 0, fmt.Errorf("files: write %s: %w", path, err)
	}
	return int64(len(data)), nil
}

func (f *OSFiles) Append(path string, data string) (int64, error) {
	if err := f.checkOpen(path); err != nil {
		return 0, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("files: append %s: %w", path, err)
	}
	defer file.Close()
	n, err := file.WriteString(data)
	if err != nil {
		return int64(n), fmt.Errorf("files: append %s: %w", path, err)
	}
	return int64(n), nil
}

func (f *OSFiles) Close(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open[path] {
		return fmt.Errorf("files: %s is not open", path)
	}
	delete(f.open, path)
	return nil
}

func (f *OSFiles) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (f *OSFiles) Delete(path string) error {
	f.mu.Lock()
	delete(f.open, path)
	f.mu.Unlock()
	return os.Remove(path)
}

func (f *OSFiles) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("files: stat %s: %w", path, err)
	}
	return info.Size(), nil
}

func (f *OSFiles) Modified(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("files: stat %s: %w", path, err)
	}
	return info.ModTime(), nil
}

func (f *OSFiles) checkOpen(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open[path] {
		return fmt.Errorf("files: %s is not open", path)
	}
	return nil
}
