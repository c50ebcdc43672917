package wrapper

import (
	"io/fs"
	"os"
)

const (
	readBits    fs.FileMode = 0o444
	specialBits             = fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky
)

// ExecutableMode grants execute permission to every class that can read.
func ExecutableMode(mode fs.FileMode) fs.FileMode {
	return mode | (mode&readBits)>>2
}

// EnsureExecutable applies ExecutableMode to the file at path when it changes anything.
func EnsureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	current := info.Mode().Perm()

	wanted := ExecutableMode(current)
	if wanted == current {
		return nil
	}

	return os.Chmod(path, info.Mode()&specialBits|wanted)
}
