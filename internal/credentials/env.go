package credentials

import (
	"os"
	"strings"
)

// normalizeRemoteName converts a remote name to the format used in environment variables
// Example: "http-work" becomes "HTTP_WORK"
func normalizeRemoteName(remoteName string) string {
	normalized := strings.ToUpper(remoteName)
	return strings.ReplaceAll(normalized, "-", "_")
}

// getEnvVarName returns the environment variable name for a remote field
func getEnvVarName(remoteName, field string) string {
	return "BUBBLETASKS_" + normalizeRemoteName(remoteName) + "_" + strings.ToUpper(field)
}

// GetEnvToken retrieves the token from environment variables
// Looks for: BUBBLETASKS_{REMOTE_NAME}_TOKEN
func GetEnvToken(remoteName string) string {
	if remoteName == "" {
		return ""
	}
	return os.Getenv(getEnvVarName(remoteName, "TOKEN"))
}
