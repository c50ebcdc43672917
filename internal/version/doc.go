// Package version exposes build metadata for the wrapper.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags and default to sensible values for local builds.
// Helper functions render the version for logs and the HTTP User-Agent.
package version
