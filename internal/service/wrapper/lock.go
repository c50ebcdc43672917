package wrapper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/oshokin/composer-wrapper/internal/logger"
	lockrepo "github.com/oshokin/composer-wrapper/internal/repository/lock"
	"github.com/oshokin/composer-wrapper/internal/service/common"
)

// LockFilename is the advisory install lock created next to the executable.
const LockFilename = ".composer-wrapper.lock"

// installLock is a held install lock.
type installLock struct {
	handle *lockrepo.Handle
}

// acquireInstallLock takes the OS lock on the lock file in dir, polling while
// another wrapper holds it, up to the configured timeout.
// A lock left behind by a crashed wrapper is free: the OS released it with the process.
func (w *Wrapper) acquireInstallLock(ctx context.Context, dir string) (*installLock, error) {
	repo := lockrepo.NewFileRepository(filepath.Join(dir, LockFilename))

	actor, err := common.DetectActor()
	if err != nil {
		logger.DebugKV(ctx, "Unable to detect lock owner details", "error", err)

		actor = &common.Actor{PID: os.Getpid()}
	}

	timeout := time.NewTimer(w.cfg.LockTimeout)
	defer timeout.Stop()

	announced := false

	for {
		record := &lockrepo.Record{
			Owner:      *actor,
			AcquiredAt: w.now().UTC(),
		}

		handle, err := repo.TryLock(ctx, record)
		if err == nil {
			logger.DebugKV(ctx, "Install lock acquired", "path", repo.Path())
			return &installLock{handle: handle}, nil
		}

		if !errors.Is(err, lockrepo.ErrLocked) {
			return nil, fmt.Errorf("acquire install lock: %w", err)
		}

		if !announced {
			owner, running := w.describeLockOwner(ctx, repo, actor.Hostname)
			logger.InfoKV(ctx, "Waiting for another installation to finish",
				"path", repo.Path(), "owner", owner, "owner_running", running)

			announced = true
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout.C:
			owner, _ := w.describeLockOwner(ctx, repo, actor.Hostname)
			return nil, fmt.Errorf("%w: %s is held by %s", ErrInstallLocked, repo.Path(), owner)
		case <-time.After(w.lockPollInterval):
		}
	}
}

// describeLockOwner reads who holds the lock. Whether the owner is running can
// only be told for a lock taken on this host.
func (w *Wrapper) describeLockOwner(
	ctx context.Context,
	repo lockrepo.Repository,
	hostname string,
) (owner, running string) {
	record, err := repo.Load(ctx)
	if err != nil {
		return "unknown", "unknown"
	}

	owner = record.Owner.String()

	if record.Owner.PID <= 0 || record.Owner.Hostname != hostname {
		return owner, "unknown"
	}

	alive, err := w.processes.Alive(record.Owner.PID)
	if err != nil {
		logger.DebugKV(ctx, "Unable to look up lock owner", "pid", record.Owner.PID, "error", err)
		return owner, "unknown"
	}

	return owner, strconv.FormatBool(alive)
}

// release drops the lock and removes the lock file.
func (l *installLock) release(ctx context.Context) {
	if err := l.handle.Release(); err != nil {
		logger.WarnKV(ctx, "Unable to release install lock", "error", err)
	}
}
