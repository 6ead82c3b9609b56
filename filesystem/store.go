// Package filesystem manages the directory that holds realm files.
// It resolves realm paths inside a sandboxed root, guards realm files with
// cross-process advisory locks, and removes a realm together with its
// auxiliary files.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

var (
	// ErrNotFound is returned when a realm file does not exist.
	ErrNotFound = errors.New("realm file not found")
	// ErrLocked is returned when a lock is held by another handle.
	ErrLocked = errors.New("realm file locked")
)

// LockSuffix is appended to a realm file name to form its lock file.
const LockSuffix = ".lock"

// auxSuffixes are the files SQLite keeps next to a realm file.
var auxSuffixes = []string{"-wal", "-shm", "-journal"}

// Store provides realm directory operations.
type Store struct {
	root *os.Root
	dir  string
}

// Entry describes one realm file in the directory.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Open creates dir if needed and returns a Store rooted at it.
func Open(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("open realm directory: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create realm directory: %w", err)
	}

	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("open realm directory: %w", err)
	}

	return &Store{root: root, dir: abs}, nil
}

// Dir returns the absolute directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute path of the realm file name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether the realm file name exists.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := s.root.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", name, err)
}

// Size returns the size in bytes of the realm file name.
func (s *Store) Size(ctx context.Context, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	info, err := s.root.Stat(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("stat %s: %w", name, err)
	}

	return info.Size(), nil
}

// List returns the realm files in the directory sorted by name. Lock files,
// SQLite auxiliary files and subdirectories are skipped.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("list realm directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if entry.IsDir() || isAuxiliary(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("list realm directory: %w", err)
		}

		entries = append(entries, Entry{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return entries, nil
}

// Lock is an advisory lock on one realm file.
type Lock struct {
	fl *flock.Flock
}

// Release drops the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.fl.Path(), err)
	}
	return nil
}

// Share takes a shared lock on the realm file name without blocking. Any
// number of shared locks may be held at once; they exclude Remove.
func (s *Store) Share(name string) (*Lock, error) {
	fl := flock.New(s.Path(name) + LockSuffix)

	ok, err := fl.TryRLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: %w", name, ErrLocked)
	}

	return &Lock{fl: fl}, nil
}

// Remove deletes the realm file name and its auxiliary files. It fails with
// ErrLocked while any shared lock is held. The lock file itself is kept.
// Removing a missing realm is a no-op and reports false.
func (s *Store) Remove(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	lockName := name + LockSuffix
	fl := flock.New(s.Path(lockName))

	ok, err := fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", name, err)
	}
	if !ok {
		return false, fmt.Errorf("remove %s: %w", name, ErrLocked)
	}
	// The lock file stays so every Share and Remove lock the same inode.
	defer func() {
		if err := fl.Unlock(); err != nil {
			slog.Warn("failed to release lock", "path", fl.Path(), "err", err)
		}
	}()

	removed, err := s.remove(name)
	if err != nil {
		return false, err
	}

	for _, suffix := range auxSuffixes {
		if _, err := s.remove(name + suffix); err != nil {
			return removed, err
		}
	}

	return removed, nil
}

func (s *Store) remove(name string) (bool, error) {
	err := s.root.Remove(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("could not delete file %s: %w", name, err)
}

// Close releases the directory handle.
func (s *Store) Close() error {
	return s.root.Close()
}

func isAuxiliary(name string) bool {
	if strings.HasSuffix(name, LockSuffix) {
		return true
	}
	return slices.ContainsFunc(auxSuffixes, func(suffix string) bool {
		return strings.HasSuffix(name, suffix)
	})
}
