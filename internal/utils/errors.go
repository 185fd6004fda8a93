package utils

import (
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a helpful suggestion for the user
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// Common error constructors with suggestions

// ErrTaskNotFound creates an error when no task matches a reference
func ErrTaskNotFound(ref string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("no task found matching '%s'", ref),
		Suggestion: "Run 'bubbletasks list' to see task ids and positions",
	}
}

// ErrAmbiguousTask creates an error when a reference matches several tasks
func ErrAmbiguousTask(ref string, count int) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("'%s' matches %d tasks", ref, count),
		Suggestion: "Use the task id or its position from 'bubbletasks list'",
	}
}

// ErrEmptyTaskText creates an error for blank task text
func ErrEmptyTaskText() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("task text is empty"),
		Suggestion: "Provide some text, e.g. bubbletasks add \"Buy milk\"",
	}
}

// ErrInvalidTheme creates an error for invalid theme values
func ErrInvalidTheme(theme string, valid []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid theme: %s", theme),
		Suggestion: fmt.Sprintf("Valid themes: %s", strings.Join(valid, ", ")),
	}
}

// ErrNotSignedIn creates an error when a sync operation needs a session
func ErrNotSignedIn() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("not signed in"),
		Suggestion: "Sign in with 'bubbletasks auth login <user-id>'",
	}
}

// ErrSyncNotEnabled creates an error when sync operations are attempted but sync is disabled
func ErrSyncNotEnabled() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("sync is not enabled in configuration"),
		Suggestion: "Enable sync in ~/.config/bubbletasks/config.yaml by setting 'sync.enabled: true'",
	}
}

// ErrRemoteOffline creates an error when the remote store cannot be reached
func ErrRemoteOffline(remote, reason string) error {
	suggestion := "Check your internet connection and try again"
	if strings.Contains(reason, "refused") {
		suggestion = "Check if the remote server is running ('bubbletasks serve')"
	} else if strings.Contains(reason, "timeout") {
		suggestion = "The server may be slow or unreachable. Try again later"
	}

	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("remote '%s' is unreachable: %s", remote, reason),
		Suggestion: suggestion,
	}
}

// ErrInvalidViewport creates an error for malformed WIDTHxHEIGHT flags
func ErrInvalidViewport(value string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid size: %s", value),
		Suggestion: "Use WIDTHxHEIGHT in pixels, e.g. 1280x800",
	}
}

// ErrConfigFileNotFound creates an error when config file is not found
func ErrConfigFileNotFound(path string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("config file not found at %s", path),
		Suggestion: "Run 'bubbletasks config init' to create a default configuration file",
	}
}

// ErrInvalidConfig creates an error for invalid configuration
func ErrInvalidConfig(field string, reason string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid configuration for '%s': %s", field, reason),
		Suggestion: fmt.Sprintf("Check ~/.config/bubbletasks/config.yaml and fix the '%s' field", field),
	}
}

// WrapWithSuggestion wraps an existing error with a suggestion
func WrapWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}
