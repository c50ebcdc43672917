//go:build !unix

package wrapper

import (
	"context"
	"fmt"
)

// processExecer runs the executable as a child process and reports its exit code,
// since this platform cannot replace the running process image.
type processExecer struct{}

// Exec runs path with args and returns *ExitError when it exits non-zero.
func (processExecer) Exec(ctx context.Context, path string, args []string) error {
	exitCode, err := ExecRunner{}.Run(ctx, path, args...)
	if err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}

	if exitCode != 0 {
		return &ExitError{Code: exitCode}
	}

	return nil
}
