package wrapper

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/composer-wrapper/internal/config"
	lockrepo "github.com/oshokin/composer-wrapper/internal/repository/lock"
	"github.com/oshokin/composer-wrapper/internal/service/common"
)

// currentHost returns the hostname the wrapper records in its locks.
func currentHost() string {
	actor, err := common.DetectActor()
	if err != nil {
		return ""
	}

	return actor.Hostname
}

// holdLock takes the lock in dir on behalf of pid on host until the test ends.
func holdLock(t *testing.T, dir, host string, pid int) *lockrepo.Handle {
	t.Helper()

	repo := lockrepo.NewFileRepository(filepath.Join(dir, LockFilename))
	handle, err := repo.TryLock(context.Background(), &lockrepo.Record{
		Owner:      common.Actor{Hostname: host, Username: "someone", PID: pid},
		AcquiredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = handle.Release()
	})

	return handle
}

// leaveLockFile writes a lock record that nobody holds, as a crashed wrapper would.
func leaveLockFile(t *testing.T, dir string, pid int) {
	t.Helper()

	record := "owner:\n  hostname: " + currentHost() + "\n  username: someone\n  pid: " +
		strconv.Itoa(pid) + "\nacquired_at: 2020-01-01T00:00:00Z\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, LockFilename), []byte(record), 0o600))
}

// TestAcquireInstallLock_Free takes and releases an uncontended lock.
func TestAcquireInstallLock_Free(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	dir := t.TempDir()

	lock, err := h.wrapper.acquireInstallLock(context.Background(), dir)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, LockFilename))

	lock.release(context.Background())
	require.NoFileExists(t, filepath.Join(dir, LockFilename))
}

// TestAcquireInstallLock_LeftoverFromCrashedOwner takes over a lock file nobody holds.
func TestAcquireInstallLock_LeftoverFromCrashedOwner(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	dir := t.TempDir()
	leaveLockFile(t, dir, 999999)

	ctx, logs := observedContext()

	lock, err := h.wrapper.acquireInstallLock(ctx, dir)
	require.NoError(t, err)
	require.Zero(t, logs.Len())

	record, err := lockrepo.NewFileRepository(filepath.Join(dir, LockFilename)).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), record.Owner.PID)

	lock.release(context.Background())
}

// TestAcquireInstallLock_HeldTimesOut waits for the holder and gives up after the timeout.
func TestAcquireInstallLock_HeldTimesOut(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.cfg.LockTimeout = 30 * time.Millisecond

	dir := t.TempDir()
	holdLock(t, dir, currentHost(), 4242)

	_, err := h.wrapper.acquireInstallLock(context.Background(), dir)
	require.ErrorIs(t, err, ErrInstallLocked)
	require.FileExists(t, filepath.Join(dir, LockFilename))

	// Windows forbids reading a locked range, so the owner is unknown there.
	if runtime.GOOS != "windows" {
		require.Contains(t, err.Error(), "4242")
		require.Contains(t, h.processes.calls, 4242)
	}
}

// TestAcquireInstallLock_ForeignHost never checks pids recorded on another machine.
func TestAcquireInstallLock_ForeignHost(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.cfg.LockTimeout = 30 * time.Millisecond

	dir := t.TempDir()
	holdLock(t, dir, "some-other-host.invalid", 4242)

	_, err := h.wrapper.acquireInstallLock(context.Background(), dir)
	require.ErrorIs(t, err, ErrInstallLocked)
	require.Empty(t, h.processes.calls)
}

// TestAcquireInstallLock_Cancelled stops waiting when the context is cancelled.
func TestAcquireInstallLock_Cancelled(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	dir := t.TempDir()
	holdLock(t, dir, currentHost(), 4242)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.wrapper.acquireInstallLock(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
}

// TestEnsureInstalled_InstalledWhileWaiting skips the download when another wrapper finished first.
func TestEnsureInstalled_InstalledWhileWaiting(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	dir := t.TempDir()
	executable := filepath.Join(dir, config.DefaultExecutableName)
	handle := holdLock(t, dir, currentHost(), 4242)

	done := make(chan struct{})

	go func() {
		defer close(done)

		time.Sleep(20 * time.Millisecond)

		_ = os.WriteFile(executable, []byte("#!/usr/bin/env php\n"), 0o644)
		_ = handle.Release()
	}()

	require.NoError(t, h.wrapper.EnsureInstalled(context.Background(), executable))
	<-done

	require.Empty(t, h.fetcher.calls)
	require.Empty(t, h.copier.calls)
	require.Empty(t, h.runner.calls)
	require.NoFileExists(t, filepath.Join(dir, LockFilename))
}

// TestEnsureInstalled_ConcurrentWrappersInstallOnce runs several wrappers at once
// over a lock file left by a crashed run: exactly one installs, the rest reuse its result.
func TestEnsureInstalled_ConcurrentWrappersInstallOnce(t *testing.T) {
	t.Parallel()

	const wrappers = 8

	dir := t.TempDir()
	executable := filepath.Join(dir, config.DefaultExecutableName)
	leaveLockFile(t, dir, 999999)

	var (
		mu         sync.Mutex
		running    int
		maxRunning int
		installs   int
	)

	runInstaller := func(string, []string) {
		mu.Lock()
		running++
		installs++
		maxRunning = max(maxRunning, running)
		mu.Unlock()

		time.Sleep(30 * time.Millisecond)

		_ = os.WriteFile(executable, []byte("#!/usr/bin/env php\n"), 0o644)

		mu.Lock()
		running--
		mu.Unlock()
	}

	harnesses := make([]*harness, wrappers)
	for i := range harnesses {
		h := newHarness(t)
		h.processes.alive = false
		h.fetcher.body = sha384Hex([]byte(stubInstaller))
		h.copier.content = []byte(stubInstaller)
		h.runner.onRun = runInstaller

		harnesses[i] = h
	}

	errs := make([]error, wrappers)

	var wg sync.WaitGroup

	for i, h := range harnesses {
		i, h := i, h
		wg.Add(1)

		go func() {
			defer wg.Done()

			errs[i] = h.wrapper.EnsureInstalled(context.Background(), executable)
		}()
	}

	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, 1, maxRunning)
	require.Equal(t, 1, installs)
	require.FileExists(t, executable)
	require.NoFileExists(t, filepath.Join(dir, config.DefaultInstallerName))
	require.NoFileExists(t, filepath.Join(dir, LockFilename))
}
