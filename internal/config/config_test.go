package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bubbletasks/backend"
)

// TestConfigValidation tests Validate on variations of the default config
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: true,
		},
		{
			name:    "negative margin",
			mutate:  func(c *Config) { c.Widget.Margin = -1 },
			wantErr: true,
		},
		{
			name:    "zero auto hide delay",
			mutate:  func(c *Config) { c.Widget.AutoHideDelay = 0 },
			wantErr: true,
			errMsg:  "auto_hide_delay",
		},
		{
			name:    "sync enabled without remote",
			mutate:  func(c *Config) { c.Sync.Enabled = true },
			wantErr: true,
			errMsg:  "sync.remote",
		},
		{
			name: "unknown remote type",
			mutate: func(c *Config) {
				c.Sync = SyncConfig{Enabled: true, Remote: &backend.RemoteConfig{Type: "ftp"}}
			},
			wantErr: true,
		},
		{
			name: "http remote missing url",
			mutate: func(c *Config) {
				c.Sync = SyncConfig{Enabled: true, Remote: &backend.RemoteConfig{Type: "http"}}
			},
			wantErr: true,
			errMsg:  "sync.remote.url",
		},
		{
			name: "postgres server remote missing dsn",
			mutate: func(c *Config) {
				c.Server.Remote = &backend.RemoteConfig{Type: "postgres"}
			},
			wantErr: true,
			errMsg:  "server.remote.dsn",
		},
		{
			name: "valid http remote",
			mutate: func(c *Config) {
				c.Sync = SyncConfig{Enabled: true, Remote: &backend.RemoteConfig{Type: "http", URL: "http://localhost:8787"}}
			},
			wantErr: false,
		},
		{
			name:    "missing server address",
			mutate:  func(c *Config) { c.Server.Addr = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	cfg, err := parseConfig(SampleConfig(), "sample")
	if err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}

	if cfg.Widget.Margin != 20 || cfg.Widget.MenuGap != 20 || cfg.Widget.ScreenPadding != 20 {
		t.Errorf("widget geometry = %+v", cfg.Widget)
	}
	if cfg.Widget.AutoHideDelay != 5*time.Second {
		t.Errorf("auto_hide_delay = %v", cfg.Widget.AutoHideDelay)
	}
	if cfg.Widget.PinTransition != 300*time.Millisecond {
		t.Errorf("pin_transition = %v", cfg.Widget.PinTransition)
	}
	if cfg.Sync.Enabled {
		t.Error("sync should be disabled in the sample")
	}
	if cfg.Server.Remote == nil || cfg.Server.Remote.Type != "memory" {
		t.Errorf("server remote = %+v", cfg.Server.Remote)
	}
}

func TestParseConfig_PartialKeepsDefaults(t *testing.T) {
	data := []byte(`
widget:
  auto_hide_delay: 2s
sync:
  enabled: true
  remote:
    type: http
    url: "http://example.com"
    timeout: 3s
`)
	cfg, err := parseConfig(data, "partial.yaml")
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if cfg.Widget.AutoHideDelay != 2*time.Second {
		t.Errorf("auto_hide_delay = %v", cfg.Widget.AutoHideDelay)
	}
	if cfg.Widget.Margin != 20 {
		t.Errorf("margin should keep its default, got %v", cfg.Widget.Margin)
	}
	if cfg.Sync.Remote.Timeout != 3*time.Second {
		t.Errorf("remote timeout = %v", cfg.Sync.Remote.Timeout)
	}

	settings := cfg.WidgetSettings()
	if settings.AutoHideDelay != 2*time.Second || settings.Engine.Margin != 20 {
		t.Errorf("WidgetSettings() = %+v", settings)
	}
	term := cfg.TerminalSettings()
	if term.Engine.Margin != 1 || term.Engine.Gap != 1 || term.Engine.Padding != 1 {
		t.Errorf("TerminalSettings() engine = %+v", term.Engine)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	if _, err := parseConfig([]byte("widget: [unclosed"), "bad.yaml"); err == nil {
		t.Error("Expected error for invalid YAML")
	}
	if _, err := parseConfig([]byte("log_level: shouting\n"), "bad.yaml"); err == nil {
		t.Error("Expected validation error")
	}
}

func TestSetCustomConfigPath(t *testing.T) {
	defer func() { customConfigPath = "" }()

	dir := t.TempDir()
	SetCustomConfigPath(dir)
	got, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath failed: %v", err)
	}
	if got != filepath.Join(dir, CONFIG_FILE_PATH) {
		t.Errorf("directory path: got %q", got)
	}

	file := filepath.Join(dir, "custom.yaml")
	SetCustomConfigPath(file)
	got, _ = GetConfigPath()
	if got != file {
		t.Errorf("file path: got %q, want %q", got, file)
	}

	SetCustomConfigPath(".")
	got, _ = GetConfigPath()
	if got != filepath.Join(".", CONFIG_DIR_PATH, CONFIG_FILE_PATH) {
		t.Errorf("dot path: got %q", got)
	}
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := WriteSample(path, false); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != string(SampleConfig()) {
		t.Error("written sample differs from the embedded one")
	}

	if err := WriteSample(path, false); err == nil {
		t.Error("Expected error when the file exists")
	}
	if err := WriteSample(path, true); err != nil {
		t.Errorf("WriteSample with force failed: %v", err)
	}
}

func TestConfigDataFromPath_MissingUsesSample(t *testing.T) {
	data, err := configDataFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("configDataFromPath failed: %v", err)
	}
	if string(data) != string(SampleConfig()) {
		t.Error("missing config should fall back to the sample")
	}
}
