// Package integration holds end-to-end tests that run the wrapper against
// local HTTP servers standing in for the Composer download site.
package integration
