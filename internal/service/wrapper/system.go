package wrapper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/kballard/go-shellquote"
	"github.com/mitchellh/go-ps"

	"github.com/oshokin/composer-wrapper/internal/logger"
	"github.com/oshokin/composer-wrapper/internal/version"
)

const (
	// maxFetchSize caps documents read by Fetch; a checksum is under a hundred bytes.
	maxFetchSize = 64 << 10

	// installerFileMode is applied to the downloaded installer.
	installerFileMode os.FileMode = 0o644
)

// HTTPClient downloads documents and files over HTTP(S).
// It implements both Fetcher and Copier.
type HTTPClient struct {
	client    *http.Client
	userAgent string
}

// NewHTTPClient wraps client; nil means http.DefaultClient.
func NewHTTPClient(client *http.Client) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPClient{
		client:    client,
		userAgent: version.UserAgent(),
	}
}

// Fetch returns the body of the document at rawURL.
func (c *HTTPClient) Fetch(ctx context.Context, rawURL string) (string, error) {
	response, err := c.get(ctx, rawURL)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(response.Body, maxFetchSize))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rawURL, err)
	}

	return string(data), nil
}

// Copy downloads rawURL into destination, replacing the file atomically.
func (c *HTTPClient) Copy(ctx context.Context, rawURL, destination string) error {
	response, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	// go-update swaps files by renaming the current target away, so it has to exist.
	createdPlaceholder := false

	if _, err = os.Stat(destination); errors.Is(err, os.ErrNotExist) {
		var placeholder *os.File

		placeholder, err = os.OpenFile(destination, os.O_CREATE|os.O_WRONLY, installerFileMode)
		if err != nil {
			return fmt.Errorf("create %s: %w", destination, err)
		}

		_ = placeholder.Close()
		createdPlaceholder = true
	}

	options := goupdate.Options{
		TargetPath: destination,
		TargetMode: installerFileMode,
	}

	if err = goupdate.Apply(response.Body, options); err != nil {
		if createdPlaceholder {
			_ = os.Remove(destination)
		}

		return fmt.Errorf("write %s: %w", destination, err)
	}

	logger.DebugKV(ctx, "Downloaded file", "url", rawURL, "path", destination)

	return nil
}

// get performs a GET request and checks the status code.
func (c *HTTPClient) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)

	response, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()

		return nil, fmt.Errorf("%s, %s: %w", rawURL, response.Status, errBadHTTPStatus)
	}

	return response, nil
}

// OSRemover deletes files from the local filesystem.
type OSRemover struct{}

// Remove deletes the file at path.
func (OSRemover) Remove(path string) error {
	return os.Remove(path)
}

// ExecRunner runs subprocesses with the wrapper's stdio attached.
type ExecRunner struct{}

// Run starts name with args and waits for it to finish.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (int, error) {
	logger.DebugKV(ctx, "Running command", "command", shellquote.Join(append([]string{name}, args...)...))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return -1, err
}

// psFinder looks processes up in the OS process table.
type psFinder struct{}

// Alive reports whether pid belongs to a running process.
func (psFinder) Alive(pid int) (bool, error) {
	process, err := ps.FindProcess(pid)
	if err != nil {
		return false, err
	}

	return process != nil, nil
}
