// Package config defines the wrapper settings: download endpoints, managed
// filenames, the PHP command, thresholds and user-facing messages.
//
// Settings start from Default, may be overlaid by a YAML file and are finally
// overridden by environment variables (COMPOSER_DIR and friends).
package config
