package wrapper

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/oshokin/composer-wrapper/internal/config"
	"github.com/oshokin/composer-wrapper/internal/logger"
	"github.com/oshokin/composer-wrapper/internal/version"
)

// defaultLockPollInterval is how often a waiting wrapper re-checks the install lock.
const defaultLockPollInterval = 250 * time.Millisecond

// Wrapper installs, updates and delegates to the managed executable.
type Wrapper struct {
	cfg *config.Config

	fetcher   Fetcher
	copier    Copier
	remover   Remover
	runner    Runner
	execer    Execer
	processes ProcessFinder
	now       func() time.Time

	phpCommand        []string // Parsed config.PHPCommand.
	selfUpdateCommand []string // Parsed config.SelfUpdateCommand.
	lockPollInterval  time.Duration
}

// Option configures the Wrapper.
type Option func(*Wrapper)

// WithFetcher replaces the checksum downloader.
func WithFetcher(f Fetcher) Option {
	return func(w *Wrapper) {
		w.fetcher = f
	}
}

// WithCopier replaces the installer downloader.
func WithCopier(c Copier) Option {
	return func(w *Wrapper) {
		w.copier = c
	}
}

// WithRemover replaces file deletion.
func WithRemover(r Remover) Option {
	return func(w *Wrapper) {
		w.remover = r
	}
}

// WithRunner replaces subprocess execution.
func WithRunner(r Runner) Option {
	return func(w *Wrapper) {
		w.runner = r
	}
}

// WithExecer replaces the final hand-over to the executable.
func WithExecer(e Execer) Option {
	return func(w *Wrapper) {
		w.execer = e
	}
}

// WithProcessFinder replaces the process table lookup used to describe the install lock owner.
func WithProcessFinder(p ProcessFinder) Option {
	return func(w *Wrapper) {
		w.processes = p
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Wrapper) {
		if now != nil {
			w.now = now
		}
	}
}

// WithLockPollInterval sets how often the install lock is re-checked while waiting.
func WithLockPollInterval(interval time.Duration) Option {
	return func(w *Wrapper) {
		if interval > 0 {
			w.lockPollInterval = interval
		}
	}
}

// New validates cfg and builds a Wrapper backed by the real network, filesystem and processes
// unless options say otherwise.
func New(cfg *config.Config, opts ...Option) (*Wrapper, error) {
	if cfg == nil {
		return nil, errConfigIsNotSet
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	phpCommand, err := splitCommand(cfg.PHPCommand)
	if err != nil {
		return nil, fmt.Errorf("php command: %w", err)
	}

	selfUpdateCommand, err := splitCommand(cfg.SelfUpdateCommand)
	if err != nil {
		return nil, fmt.Errorf("self-update command: %w", err)
	}

	httpClient := NewHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout})

	w := &Wrapper{
		cfg:               cfg,
		fetcher:           httpClient,
		copier:            httpClient,
		remover:           OSRemover{},
		runner:            ExecRunner{},
		execer:            processExecer{},
		processes:         psFinder{},
		now:               time.Now,
		phpCommand:        phpCommand,
		selfUpdateCommand: selfUpdateCommand,
		lockPollInterval:  defaultLockPollInterval,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Run resolves the working directory, ensures the executable is installed,
// executable and fresh, then delegates to it with args.
// On platforms with exec(2) a successful Run never returns.
func (w *Wrapper) Run(ctx context.Context, args []string) error {
	ctx = logger.WithName(ctx, "composer-wrapper")

	logger.DebugKV(ctx, "Starting", "version", version.Full())

	dir, err := ResolveDir(w.cfg.Dir, w.cfg.DefaultDir)
	if err != nil {
		return err
	}

	ctx = logger.WithKV(ctx, "dir", dir)
	executable := filepath.Join(dir, w.cfg.ExecutableName)

	if err = w.EnsureInstalled(ctx, executable); err != nil {
		return err
	}

	if err = EnsureExecutable(executable); err != nil {
		return fmt.Errorf("make %s executable: %w", executable, err)
	}

	w.EnsureUpToDate(ctx, executable)

	return w.Delegate(ctx, executable, args)
}

// splitCommand parses a shell-quoted command line.
func splitCommand(command string) ([]string, error) {
	words, err := shellquote.Split(strings.TrimSpace(command))
	if err != nil {
		return nil, err
	}

	if len(words) == 0 {
		return nil, errEmptyCommand
	}

	return words, nil
}
