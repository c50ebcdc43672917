package config

import (
	"fmt"
	"strings"
)

const (
	// EnvDir overrides the directory holding the managed PHAR.
	EnvDir = "COMPOSER_DIR"
	// EnvConfig points to an optional YAML settings file.
	EnvConfig = "COMPOSER_WRAPPER_CONFIG"
	// EnvPHP overrides the PHP command line used to run the installer.
	EnvPHP = "COMPOSER_WRAPPER_PHP"
	// EnvLogLevel overrides the log level.
	EnvLogLevel = "COMPOSER_WRAPPER_LOG_LEVEL"
)

// LookupFunc mirrors os.LookupEnv so tests can supply their own environment.
type LookupFunc func(key string) (string, bool)

// FromEnv loads the settings file named by EnvConfig (if any) and applies the
// remaining environment overrides on top of it.
func FromEnv(lookup LookupFunc) (*Config, error) {
	path, _ := lookup(EnvConfig)

	cfg, err := Load(strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}

	if err = ApplyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides fields of cfg with values from the environment.
// An empty COMPOSER_DIR counts as unset.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if dir, ok := lookup(EnvDir); ok && dir != "" {
		cfg.Dir = dir
	}

	if php, ok := lookup(EnvPHP); ok && strings.TrimSpace(php) != "" {
		cfg.PHPCommand = php
	}

	if level, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(level) != "" {
		cfg.LogLevel = strings.TrimSpace(level)
	}

	if err := Validate(cfg); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}

	return nil
}
