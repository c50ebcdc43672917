//go:build unix

package wrapper

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// processExecer replaces the current process image with the executable.
type processExecer struct{}

// Exec calls execve(2); it only returns on failure.
func (processExecer) Exec(_ context.Context, path string, args []string) error {
	argv := append([]string{path}, args...)

	if err := unix.Exec(path, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}

	return nil
}
