//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"
)

// Actor identifies the host and user running the wrapper.
type Actor struct {
	// Hostname of the machine.
	Hostname string `yaml:"hostname"`
	// Username of the account that started the process.
	Username string `yaml:"username"`
	// PID of the current process.
	PID int `yaml:"pid"`
}

// DetectActor gathers host, user and process information for lock ownership.
func DetectActor() (*Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &Actor{
		Hostname: hostname,
		Username: currentUser.Username,
		PID:      os.Getpid(),
	}, nil
}

// String renders the actor as user@host[pid].
func (a *Actor) String() string {
	if a == nil {
		return "unknown"
	}

	return fmt.Sprintf("%s@%s[%d]", a.Username, a.Hostname, a.PID)
}
