package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// AtomicWriter replaces a file with a payload so that readers never observe a partial file.
type AtomicWriter interface {
	WriteAtomic(payload []byte) error
}

type atomicFileWriter struct {
	path string
	mu   *sync.Mutex
}

var (
	atomicFileLocksMu sync.Mutex
	atomicFileLocks   = map[string]*sync.Mutex{}
)

// NewAtomicFileWriter creates an AtomicWriter for a file path.
// Writers for the same path within a process share a lock.
func NewAtomicFileWriter(path string) AtomicWriter {
	return &atomicFileWriter{
		path: path,
		mu:   atomicFileLock(path),
	}
}

func (w *atomicFileWriter) WriteAtomic(payload []byte) (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(w.path)
	file, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := file.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := file.Write(payload); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, w.path); err != nil {
		return err
	}

	if err := syncDir(dir); err != nil {
		log.WithError(err).Warn("error syncing artifact directory")
	}
	return nil
}

func syncDir(path string) error {
	dir, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = dir.Close()
	}()
	if err := dir.Sync(); err != nil {
		return fmt.Errorf("sync dir: %w", err)
	}
	return nil
}

func atomicFileLock(path string) *sync.Mutex {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	atomicFileLocksMu.Lock()
	defer atomicFileLocksMu.Unlock()
	if lock, ok := atomicFileLocks[path]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	atomicFileLocks[path] = lock
	return lock
}
