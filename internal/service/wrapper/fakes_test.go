package wrapper

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/composer-wrapper/internal/config"
)

// fakeFetcher returns a canned checksum and records requested URLs.
type fakeFetcher struct {
	body  string
	err   error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (string, error) {
	f.calls = append(f.calls, rawURL)
	return f.body, f.err
}

// fakeCopier writes content to the destination instead of downloading it.
type fakeCopier struct {
	content []byte
	err     error
	calls   [][2]string
}

func (c *fakeCopier) Copy(_ context.Context, rawURL, destination string) error {
	c.calls = append(c.calls, [2]string{rawURL, destination})

	if c.err != nil {
		return c.err
	}

	return os.WriteFile(destination, c.content, 0o600)
}

// fakeRemover records removals and deletes the file.
type fakeRemover struct {
	calls []string
}

func (r *fakeRemover) Remove(path string) error {
	r.calls = append(r.calls, path)
	return os.Remove(path)
}

// fakeRunner records commands and returns a canned exit code.
type fakeRunner struct {
	exitCode int
	err      error
	onRun    func(name string, args []string)
	calls    [][]string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) (int, error) {
	r.calls = append(r.calls, append([]string{name}, args...))

	if r.onRun != nil {
		r.onRun(name, args)
	}

	return r.exitCode, r.err
}

// fakeExecer records the delegated command.
type fakeExecer struct {
	err   error
	calls [][]string
}

func (e *fakeExecer) Exec(_ context.Context, path string, args []string) error {
	e.calls = append(e.calls, append([]string{path}, args...))
	return e.err
}

// fakeProcesses answers liveness queries with a fixed value.
type fakeProcesses struct {
	alive bool
	calls []int
}

func (p *fakeProcesses) Alive(pid int) (bool, error) {
	p.calls = append(p.calls, pid)
	return p.alive, nil
}

// harness bundles a Wrapper with all of its fakes.
type harness struct {
	cfg       *config.Config
	fetcher   *fakeFetcher
	copier    *fakeCopier
	remover   *fakeRemover
	runner    *fakeRunner
	execer    *fakeExecer
	processes *fakeProcesses
	wrapper   *Wrapper
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	return newHarnessWithConfig(t, config.Default(), opts...)
}

func newHarnessWithConfig(t *testing.T, cfg *config.Config, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		cfg:       cfg,
		fetcher:   new(fakeFetcher),
		copier:    new(fakeCopier),
		remover:   new(fakeRemover),
		runner:    new(fakeRunner),
		execer:    new(fakeExecer),
		processes: &fakeProcesses{alive: true},
	}

	h.cfg.LockTimeout = time.Second

	base := []Option{
		WithFetcher(h.fetcher),
		WithCopier(h.copier),
		WithRemover(h.remover),
		WithRunner(h.runner),
		WithExecer(h.execer),
		WithProcessFinder(h.processes),
		WithLockPollInterval(5 * time.Millisecond),
	}

	w, err := New(h.cfg, append(base, opts...)...)
	require.NoError(t, err)

	h.wrapper = w

	return h
}

func touch(t *testing.T, path string, modTime time.Time) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}
