package credentials

import (
	"testing"
)

func TestNormalizeRemoteName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple name",
			input:    "http",
			expected: "HTTP",
		},
		{
			name:     "name with hyphen",
			input:    "http-work",
			expected: "HTTP_WORK",
		},
		{
			name:     "already uppercase",
			input:    "POSTGRES",
			expected: "POSTGRES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizeRemoteName(tt.input)
			if result != tt.expected {
				t.Errorf("normalizeRemoteName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetEnvVarName(t *testing.T) {
	if got := getEnvVarName("http-work", "token"); got != "BUBBLETASKS_HTTP_WORK_TOKEN" {
		t.Errorf("getEnvVarName() = %q", got)
	}
}

func TestGetEnvToken(t *testing.T) {
	t.Setenv("BUBBLETASKS_HTTP_TOKEN", "from-env")

	if got := GetEnvToken("http"); got != "from-env" {
		t.Errorf("GetEnvToken() = %q, want %q", got, "from-env")
	}
	if got := GetEnvToken(""); got != "" {
		t.Errorf("GetEnvToken(\"\") = %q, want empty", got)
	}
	if got := GetEnvToken("postgres"); got != "" {
		t.Errorf("GetEnvToken(postgres) = %q, want empty", got)
	}
}
