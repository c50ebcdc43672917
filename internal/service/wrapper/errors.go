package wrapper

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDir is returned when the working directory does not exist or is not a directory.
	ErrInvalidDir = errors.New("invalid working directory")
	// ErrChecksumDownload is returned when the expected installer checksum cannot be fetched.
	ErrChecksumDownload = errors.New("checksum download failed")
	// ErrInstallerDownload is returned when the installer cannot be downloaded.
	ErrInstallerDownload = errors.New("installer download failed")
	// ErrChecksumMismatch is returned when the installer hash differs from the published one.
	ErrChecksumMismatch = errors.New("installer checksum mismatch")
	// ErrInstallFailed is returned when the installer could not produce the executable.
	ErrInstallFailed = errors.New("installation failed")
	// ErrInstallLocked is returned when another installation holds the lock for too long.
	ErrInstallLocked = errors.New("another installation is in progress")

	errEmptyChecksum     = errors.New("empty checksum received")
	errBadHTTPStatus     = errors.New("unexpected http status")
	errNotProduced       = errors.New("installer finished but the executable is missing")
	errHashUnavailable   = errors.New("hash function unavailable")
	errEmptyCommand      = errors.New("command is empty")
	errConfigIsNotSet    = errors.New("configuration is not set")
	errNonZeroExitStatus = errors.New("non-zero exit status")
)

// ExitError carries the exit code of a delegated process on platforms
// where the wrapper cannot replace itself with the executable.
type ExitError struct {
	// Code is the exit status of the delegated process.
	Code int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("delegated process exited with code %d", e.Code)
}

// stepError combines the user-facing message of a failed step with its kind and cause.
func stepError(kind error, message string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", message, kind)
	}

	return fmt.Errorf("%s: %w: %w", message, kind, cause)
}
