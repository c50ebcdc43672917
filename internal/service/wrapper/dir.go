package wrapper

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveDir picks the working directory: override when set, fallback otherwise.
// The chosen path must be an existing directory.
func ResolveDir(override, fallback string) (string, error) {
	dir := override
	if dir == "" {
		dir = fallback
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a dir", ErrInvalidDir, dir)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidDir, dir, err)
	}

	return abs, nil
}

// DefaultDir returns the directory holding the running wrapper binary.
func DefaultDir() (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate wrapper executable: %w", err)
	}

	if resolved, resolveErr := filepath.EvalSymlinks(self); resolveErr == nil {
		self = resolved
	}

	return filepath.Dir(self), nil
}
