package wrapper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/oshokin/composer-wrapper/internal/logger"
)

// EnsureInstalled installs the executable into its directory unless a file
// already exists at executable. Installation is serialized between concurrent
// wrappers by an advisory lock file next to the executable.
func (w *Wrapper) EnsureInstalled(ctx context.Context, executable string) error {
	installed, err := fileExists(executable)
	if err != nil || installed {
		return err
	}

	dir := filepath.Dir(executable)

	lock, err := w.acquireInstallLock(ctx, dir)
	if err != nil {
		return err
	}

	defer lock.release(ctx)

	// Another wrapper may have finished the installation while we were waiting.
	if installed, err = fileExists(executable); err != nil || installed {
		return err
	}

	logger.InfoKV(ctx, "Composer is not installed, installing", "path", executable)

	return w.install(ctx, dir, executable)
}

// install downloads the installer, verifies it and runs it.
func (w *Wrapper) install(ctx context.Context, dir, executable string) error {
	messages := w.cfg.Messages

	rawChecksum, err := w.fetcher.Fetch(ctx, w.cfg.ChecksumURL)
	if err != nil {
		return stepError(ErrChecksumDownload, messages.ChecksumDownloadFailed, err)
	}

	expected := trimTrailingSpace(rawChecksum)
	if expected == "" {
		return stepError(ErrChecksumDownload, messages.ChecksumDownloadFailed, errEmptyChecksum)
	}

	installer := filepath.Join(dir, w.cfg.InstallerName)

	if err = w.copier.Copy(ctx, w.cfg.InstallerURL, installer); err != nil {
		return stepError(ErrInstallerDownload, messages.InstallerDownloadFailed, err)
	}

	actual, err := FileChecksum(installer)
	if err != nil {
		return stepError(ErrInstallerDownload, messages.InstallerDownloadFailed, err)
	}

	if strings.TrimSpace(actual) != expected {
		// The installer stays on disk so it can be inspected.
		logger.WarnKV(ctx, "Installer checksum mismatch, keeping the file for inspection",
			"path", installer, "expected", expected, "actual", actual)

		return stepError(ErrChecksumMismatch, messages.ChecksumMismatch,
			fmt.Errorf("expected %s, got %s", expected, actual))
	}

	exitCode, runErr := w.runInstaller(ctx, dir, installer)

	if removeErr := w.remover.Remove(installer); removeErr != nil {
		logger.WarnKV(ctx, "Unable to remove installer", "path", installer, "error", removeErr)
	}

	if runErr != nil {
		return stepError(ErrInstallFailed, messages.InstallFailed, runErr)
	}

	if exitCode != 0 {
		return stepError(ErrInstallFailed, messages.InstallFailed,
			fmt.Errorf("installer exited with code %d: %w", exitCode, errNonZeroExitStatus))
	}

	installed, err := fileExists(executable)
	if err != nil {
		return stepError(ErrInstallFailed, messages.InstallFailed, err)
	}

	if !installed {
		return stepError(ErrInstallFailed, messages.InstallFailed, errNotProduced)
	}

	logger.InfoKV(ctx, "Composer installed", "path", executable)

	return nil
}

// runInstaller runs the installer with PHP, asking it to place the PHAR into dir.
func (w *Wrapper) runInstaller(ctx context.Context, dir, installer string) (int, error) {
	args := make([]string, 0, len(w.phpCommand)+2)
	args = append(args, w.phpCommand[1:]...)
	args = append(args,
		installer,
		"--install-dir="+dir,
		"--filename="+w.cfg.ExecutableName,
	)

	return w.runner.Run(ctx, w.phpCommand[0], args...)
}

// fileExists reports whether anything exists at path.
func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, fmt.Errorf("stat %s: %w", path, err)
}

func trimTrailingSpace(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}
