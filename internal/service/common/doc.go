// Package common holds helpers shared by several services.
//
// It detects the current system actor (hostname, username and pid), which is
// recorded as the owner of the install lock.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
