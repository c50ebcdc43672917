// Package lock implements the install lock: an OS advisory lock on a file
// that also records who holds it, for diagnostics.
package lock
