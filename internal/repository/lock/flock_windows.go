//go:build windows

package lock

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// removeWhileLocked is false: Windows refuses to delete a file that is still open.
const removeWhileLocked = false

// lockedBytes is the range covered by the lock; any non-empty range works.
const lockedBytes = 1

func lockFile(file *os.File) error {
	overlapped := new(windows.Overlapped)

	err := windows.LockFileEx(
		windows.Handle(file.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0,
		lockedBytes,
		0,
		overlapped,
	)
	if errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
		return ErrLocked
	}

	if err != nil {
		return fmt.Errorf("lock %s: %w", file.Name(), err)
	}

	return nil
}

func unlockFile(file *os.File) error {
	return windows.UnlockFileEx(windows.Handle(file.Fd()), 0, lockedBytes, 0, new(windows.Overlapped))
}
