package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the wrapper needs to install, update and run Composer.
type Config struct {
	// InstallerURL serves the installer script.
	InstallerURL string `yaml:"installer_url"`
	// ChecksumURL serves the expected SHA-384 of the installer as hex text.
	ChecksumURL string `yaml:"checksum_url"`
	// ExecutableName is the managed PHAR filename inside the working directory.
	ExecutableName string `yaml:"executable_name"`
	// InstallerName is the transient installer filename inside the working directory.
	InstallerName string `yaml:"installer_name"`
	// PHPCommand is the shell-quoted command line used to run the installer.
	PHPCommand string `yaml:"php_command"`
	// SelfUpdateCommand is the subcommand that makes the PHAR update itself.
	SelfUpdateCommand string `yaml:"self_update_command"`
	// UpdateInterval is the staleness threshold after which self-update is attempted.
	UpdateInterval time.Duration `yaml:"update_interval"`
	// HTTPTimeout bounds every download.
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	// LockTimeout is how long to wait for another wrapper that is installing right now.
	LockTimeout time.Duration `yaml:"lock_timeout"`
	// LogLevel is the minimum level of diagnostics printed to stderr.
	LogLevel string `yaml:"log_level"`
	// Messages are the user-facing texts of the wrapper.
	Messages Messages `yaml:"messages"`

	// Dir is the working directory override taken from the environment.
	// It is not persisted to YAML.
	Dir string `yaml:"-"`
	// DefaultDir is used when Dir is empty. It is set at runtime by the entry point.
	DefaultDir string `yaml:"-"`
}

// Messages are the texts attached to errors and warnings.
type Messages struct {
	ChecksumDownloadFailed  string `yaml:"checksum_download_failed"`
	InstallerDownloadFailed string `yaml:"installer_download_failed"`
	ChecksumMismatch        string `yaml:"checksum_mismatch"`
	InstallFailed           string `yaml:"install_failed"`
	SelfUpdateFailed        string `yaml:"self_update_failed"`
}

const (
	// DefaultInstallerURL is the official Composer installer location.
	DefaultInstallerURL = "https://getcomposer.org/installer"

	// DefaultChecksumURL publishes the SHA-384 of the current installer.
	DefaultChecksumURL = "https://composer.github.io/installer.sig"

	// DefaultExecutableName is the PHAR produced by the installer.
	DefaultExecutableName = "composer.phar"

	// DefaultInstallerName is where the installer is downloaded to.
	DefaultInstallerName = "composer-setup.php"

	// DefaultPHPCommand runs the installer.
	DefaultPHPCommand = "php"

	// DefaultSelfUpdateCommand is Composer's self-update subcommand.
	DefaultSelfUpdateCommand = "self-update"

	// DefaultUpdateInterval is the staleness threshold for self-update.
	DefaultUpdateInterval = 7 * 24 * time.Hour

	// DefaultHTTPTimeout bounds every download.
	DefaultHTTPTimeout = 5 * time.Minute

	// DefaultLockTimeout is how long a second wrapper waits for a running install.
	DefaultLockTimeout = 2 * time.Minute

	// DefaultLogLevel keeps the wrapper quiet unless something goes wrong.
	DefaultLogLevel = "warn"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBadFilename is returned when a managed filename is empty or contains a path.
	errBadFilename = errors.New("filename must be a plain file name")
	// errSameFilename is returned when the installer would overwrite the executable.
	errSameFilename = errors.New("installer and executable names must differ")
	// errEmptyCommand is returned when a required command is empty.
	errEmptyCommand = errors.New("command must be provided")
)

// DefaultMessages returns the stock user-facing texts.
func DefaultMessages() Messages {
	return Messages{
		ChecksumDownloadFailed:  "error when downloading composer installer checksum",
		InstallerDownloadFailed: "error when downloading composer installer",
		ChecksumMismatch:        "composer installer checksum does not match the published one",
		InstallFailed:           "error when running composer installer",
		SelfUpdateFailed:        "composer self-update failed, proceeding with the installed version",
	}
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	return &Config{
		InstallerURL:      DefaultInstallerURL,
		ChecksumURL:       DefaultChecksumURL,
		ExecutableName:    DefaultExecutableName,
		InstallerName:     DefaultInstallerName,
		PHPCommand:        DefaultPHPCommand,
		SelfUpdateCommand: DefaultSelfUpdateCommand,
		UpdateInterval:    DefaultUpdateInterval,
		HTTPTimeout:       DefaultHTTPTimeout,
		LockTimeout:       DefaultLockTimeout,
		LogLevel:          DefaultLogLevel,
		Messages:          DefaultMessages(),
	}
}

// Load reads configuration from the provided path on top of the defaults and validates it.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the settings and fills zero values with defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if _, err := url.ParseRequestURI(cfg.InstallerURL); err != nil {
		return fmt.Errorf("invalid installer URL: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.ChecksumURL); err != nil {
		return fmt.Errorf("invalid checksum URL: %w", err)
	}

	if err := validateFilename(cfg.ExecutableName); err != nil {
		return fmt.Errorf("executable name %q: %w", cfg.ExecutableName, err)
	}

	if err := validateFilename(cfg.InstallerName); err != nil {
		return fmt.Errorf("installer name %q: %w", cfg.InstallerName, err)
	}

	if cfg.ExecutableName == cfg.InstallerName {
		return errSameFilename
	}

	if strings.TrimSpace(cfg.PHPCommand) == "" {
		return fmt.Errorf("php command: %w", errEmptyCommand)
	}

	if strings.TrimSpace(cfg.SelfUpdateCommand) == "" {
		return fmt.Errorf("self-update command: %w", errEmptyCommand)
	}

	applyDefaults(cfg)

	return nil
}

// applyDefaults replaces unset durations, level and messages with defaults.
func applyDefaults(cfg *Config) {
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = DefaultUpdateInterval
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}

	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	defaults := DefaultMessages()
	fillEmpty(&cfg.Messages.ChecksumDownloadFailed, defaults.ChecksumDownloadFailed)
	fillEmpty(&cfg.Messages.InstallerDownloadFailed, defaults.InstallerDownloadFailed)
	fillEmpty(&cfg.Messages.ChecksumMismatch, defaults.ChecksumMismatch)
	fillEmpty(&cfg.Messages.InstallFailed, defaults.InstallFailed)
	fillEmpty(&cfg.Messages.SelfUpdateFailed, defaults.SelfUpdateFailed)
}

func fillEmpty(target *string, value string) {
	if *target == "" {
		*target = value
	}
}

func validateFilename(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return errBadFilename
	}

	return nil
}
