package credentials

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringServicePrefix is the prefix for all bubbletasks keyring entries
	KeyringServicePrefix = "bubbletasks"

	// tokenAccount is the keyring account under which a remote token is kept
	tokenAccount = "token"
)

// ErrNoToken is returned when the keyring holds no token for a remote
var ErrNoToken = errors.New("no token found in keyring")

// getServiceName returns the keyring service name for a remote
func getServiceName(remoteName string) string {
	return fmt.Sprintf("%s-%s", KeyringServicePrefix, remoteName)
}

// SetToken stores a remote bearer token in the OS keyring
func SetToken(remoteName, token string) error {
	if remoteName == "" {
		return fmt.Errorf("remote name cannot be empty")
	}
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	if err := keyring.Set(getServiceName(remoteName), tokenAccount, token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

// GetToken retrieves a remote bearer token from the OS keyring
func GetToken(remoteName string) (string, error) {
	if remoteName == "" {
		return "", fmt.Errorf("remote name cannot be empty")
	}

	token, err := keyring.Get(getServiceName(remoteName), tokenAccount)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w for remote %q", ErrNoToken, remoteName)
		}
		return "", fmt.Errorf("failed to retrieve token from keyring: %w", err)
	}
	return token, nil
}

// DeleteToken removes a remote bearer token from the OS keyring
func DeleteToken(remoteName string) error {
	if remoteName == "" {
		return fmt.Errorf("remote name cannot be empty")
	}

	err := keyring.Delete(getServiceName(remoteName), tokenAccount)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%w for remote %q", ErrNoToken, remoteName)
		}
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// IsAvailable checks if the keyring is accessible
func IsAvailable() bool {
	// A working keyring answers ErrNotFound for an entry that never exists
	_, err := keyring.Get("bubbletasks-keyring-test", "test")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
