package wrapper

import (
	"context"
)

// Fetcher downloads a small remote document and returns its contents.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Copier downloads a remote file to a local path.
type Copier interface {
	Copy(ctx context.Context, rawURL, destination string) error
}

// Remover deletes a local file.
type Remover interface {
	Remove(path string) error
}

// Runner starts a subprocess with inherited stdio, waits for it and returns its exit code.
// The error is non-nil only when the process could not be run at all.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (int, error)
}

// Execer hands control over to the executable. On success it does not return
// on platforms that support exec(2).
type Execer interface {
	Exec(ctx context.Context, path string, args []string) error
}

// ProcessFinder reports whether a process with the given pid is running.
type ProcessFinder interface {
	Alive(pid int) (bool, error)
}
