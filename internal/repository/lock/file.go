package lock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/composer-wrapper/internal/config"
	"github.com/oshokin/composer-wrapper/internal/service/common"
)

// Record describes who holds the install lock and since when.
type Record struct {
	// Owner is the process that created the lock.
	Owner common.Actor `yaml:"owner"`
	// AcquiredAt is when the lock was taken.
	AcquiredAt time.Time `yaml:"acquired_at"`
}

// Repository defines operations on the install lock.
type Repository interface {
	TryLock(ctx context.Context, record *Record) (*Handle, error)
	Load(ctx context.Context) (*Record, error)
}

// FileRepository keeps the lock as an OS advisory lock on a file holding a YAML record.
// The kernel drops the lock when the owner process exits, so a crashed owner never blocks others.
type FileRepository struct {
	// path is the filesystem location of the lock file.
	path string
}

var (
	// ErrNotFound is returned when no lock file exists.
	ErrNotFound = errors.New("lock not found")
	// ErrLocked is returned by TryLock when another holder owns the lock.
	ErrLocked = errors.New("lock is held")
)

// NewFileRepository creates a repository for the lock file at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the lock file location.
func (r *FileRepository) Path() string {
	return r.path
}

// TryLock takes the lock without blocking and writes record into the lock file.
// It fails with ErrLocked when someone else holds it.
func (r *FileRepository) TryLock(_ context.Context, record *Record) (*Handle, error) {
	data, err := yaml.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode lock: %w", err)
	}

	for {
		file, err := os.OpenFile(r.path, os.O_CREATE|os.O_RDWR, config.DefaultFilePermissions)
		if err != nil {
			return nil, fmt.Errorf("open lock file: %w", err)
		}

		if err = lockFile(file); err != nil {
			_ = file.Close()
			return nil, err
		}

		// The previous holder may have unlinked the file between our open and lock.
		// Locking an orphaned inode excludes nobody, so start over on the new file.
		current, statErr := os.Stat(r.path)
		opened, fstatErr := file.Stat()

		if statErr != nil || fstatErr != nil || !os.SameFile(current, opened) {
			_ = unlockFile(file)
			_ = file.Close()

			continue
		}

		handle := &Handle{file: file, path: r.path}

		if err = handle.write(data); err != nil {
			_ = handle.Release()
			return nil, err
		}

		return handle, nil
	}
}

// Load reads the record of the current holder. A lock file that is empty
// or unreadable YAML yields an empty record and no error.
func (r *FileRepository) Load(_ context.Context) (*Record, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("open lock file: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	var record Record
	if err = yaml.NewDecoder(file).Decode(&record); err != nil && !errors.Is(err, io.EOF) {
		return &Record{}, nil //nolint:nilerr // A half-written lock is still a lock.
	}

	return &record, nil
}

// Handle is a held lock.
type Handle struct {
	file *os.File
	path string
}

// write replaces the lock file contents with data.
func (h *Handle) write(data []byte) error {
	if err := h.file.Truncate(0); err != nil {
		return fmt.Errorf("truncate lock file: %w", err)
	}

	if _, err := h.file.WriteAt(data, 0); err != nil {
		return fmt.Errorf("write lock file: %w", err)
	}

	return nil
}

// Release removes the lock file and drops the lock. Releasing twice is a no-op.
func (h *Handle) Release() error {
	if h == nil || h.file == nil {
		return nil
	}

	var removeErr error
	if removeWhileLocked {
		removeErr = os.Remove(h.path)
	}

	unlockErr := unlockFile(h.file)
	closeErr := h.file.Close()
	h.file = nil

	if !removeWhileLocked {
		removeErr = os.Remove(h.path)
	}

	if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", removeErr)
	}

	if unlockErr != nil {
		return fmt.Errorf("unlock: %w", unlockErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close lock file: %w", closeErr)
	}

	return nil
}
