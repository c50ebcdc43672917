//go:build unix

package lock

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// removeWhileLocked unlinks the file before unlocking so a waiter never
// locks a path that is about to disappear.
const removeWhileLocked = true

func lockFile(file *os.File) error {
	err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB) //nolint:gosec // File descriptors fit into int.
	if errors.Is(err, unix.EWOULDBLOCK) {
		return ErrLocked
	}

	if err != nil {
		return fmt.Errorf("flock %s: %w", file.Name(), err)
	}

	return nil
}

func unlockFile(file *os.File) error {
	return unix.Flock(int(file.Fd()), unix.LOCK_UN) //nolint:gosec // File descriptors fit into int.
}
