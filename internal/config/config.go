package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bubbletasks/backend"
	"bubbletasks/internal/position"
	"bubbletasks/internal/utils"
	"bubbletasks/internal/widget"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	_ "embed"
)

var configOnce sync.Once

var globalConfig *Config

var customConfigPath string // Custom config path set via --config flag

//go:embed config.sample.yaml
var sampleConfig []byte

const (
	CONFIG_DIR_PATH  = "bubbletasks"
	CONFIG_FILE_PATH = "config.yaml"
	CONFIG_DIR_PERM  = 0755
	CONFIG_FILE_PERM = 0644
)

// Config represents the application configuration.
type Config struct {
	Storage  StorageConfig `yaml:"storage"`
	Widget   WidgetConfig  `yaml:"widget"`
	TUI      TUIConfig     `yaml:"tui"`
	Sync     SyncConfig    `yaml:"sync"`
	Server   ServerConfig  `yaml:"server"`
	LogLevel string        `yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
}

// StorageConfig locates the local sqlite database
type StorageConfig struct {
	DBPath string `yaml:"db_path,omitempty"` // empty means the XDG data dir
}

// WidgetConfig holds the bubble geometry in pixels and its timings
type WidgetConfig struct {
	Margin        float64       `yaml:"margin" validate:"gte=0"`
	MenuGap       float64       `yaml:"menu_gap" validate:"gte=0"`
	ScreenPadding float64       `yaml:"screen_padding" validate:"gte=0"`
	AutoHideDelay time.Duration `yaml:"auto_hide_delay"`
	PinTransition time.Duration `yaml:"pin_transition"`
}

// TUIConfig holds the terminal geometry in cells
type TUIConfig struct {
	Margin        float64       `yaml:"margin" validate:"gte=0"`
	MenuGap       float64       `yaml:"menu_gap" validate:"gte=0"`
	ScreenPadding float64       `yaml:"screen_padding" validate:"gte=0"`
	Refresh       time.Duration `yaml:"refresh,omitempty"`
}

// SyncConfig enables the premium sync and names its remote
type SyncConfig struct {
	Enabled bool                  `yaml:"enabled"`
	Remote  *backend.RemoteConfig `yaml:"remote,omitempty"`
}

// ServerConfig configures `bubbletasks serve`
type ServerConfig struct {
	Addr   string                `yaml:"addr" validate:"required"`
	Token  string                `yaml:"token,omitempty"`
	Remote *backend.RemoteConfig `yaml:"remote,omitempty"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Widget: WidgetConfig{
			Margin:        position.DefaultMargin,
			MenuGap:       position.DefaultMenuGap,
			ScreenPadding: position.DefaultScreenPadding,
			AutoHideDelay: widget.DefaultAutoHideDelay,
			PinTransition: widget.DefaultPinTransition,
		},
		TUI: TUIConfig{
			Margin:        1,
			MenuGap:       1,
			ScreenPadding: 1,
			Refresh:       2 * time.Second,
		},
		Server: ServerConfig{
			Addr:   "127.0.0.1:8787",
			Remote: &backend.RemoteConfig{Type: "memory"},
		},
		LogLevel: "info",
	}
}

func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Widget.AutoHideDelay <= 0 {
		return utils.ErrInvalidConfig("widget.auto_hide_delay", "must be positive")
	}
	if c.Widget.PinTransition < 0 {
		return utils.ErrInvalidConfig("widget.pin_transition", "must not be negative")
	}
	if c.TUI.Refresh < 0 {
		return utils.ErrInvalidConfig("tui.refresh", "must not be negative")
	}

	if c.Sync.Enabled && c.Sync.Remote == nil {
		return utils.ErrInvalidConfig("sync.remote", "required when sync is enabled")
	}
	for name, remote := range map[string]*backend.RemoteConfig{"sync.remote": c.Sync.Remote, "server.remote": c.Server.Remote} {
		if remote == nil {
			continue
		}
		switch remote.Type {
		case "http":
			if remote.URL == "" {
				return utils.ErrInvalidConfig(name+".url", "required for the http remote")
			}
		case "postgres":
			if remote.DSN == "" {
				return utils.ErrInvalidConfig(name+".dsn", "required for the postgres remote")
			}
		}
	}

	return nil
}

// WidgetSettings converts the pixel geometry into controller settings
func (c *Config) WidgetSettings() widget.Config {
	return widget.Config{
		Engine: position.Engine{
			Margin:  c.Widget.Margin,
			Gap:     c.Widget.MenuGap,
			Padding: c.Widget.ScreenPadding,
		},
		AutoHideDelay: c.Widget.AutoHideDelay,
		PinTransition: c.Widget.PinTransition,
	}
}

// TerminalSettings is WidgetSettings with the geometry measured in cells
func (c *Config) TerminalSettings() widget.Config {
	cfg := c.WidgetSettings()
	cfg.Engine = position.Engine{
		Margin:  c.TUI.Margin,
		Gap:     c.TUI.MenuGap,
		Padding: c.TUI.ScreenPadding,
	}
	return cfg
}

// SetCustomConfigPath sets a custom config path to use instead of the default user config directory.
// If path is empty or ".", it uses "./bubbletasks/config.yaml" (current directory).
// If path is a directory, it looks for "config.yaml" inside it.
// If path is a file, it uses that file directly.
// This must be called before GetConfig() is called for the first time.
func SetCustomConfigPath(path string) {
	if path == "" || path == "." {
		customConfigPath = filepath.Join(".", CONFIG_DIR_PATH, CONFIG_FILE_PATH)
	} else {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			customConfigPath = filepath.Join(path, CONFIG_FILE_PATH)
		} else {
			customConfigPath = path
		}
	}
}

// GetConfig loads the configuration once. A broken file is reported and the
// defaults are used instead.
func GetConfig() *Config {
	configOnce.Do(func() {
		config, err := loadUserOrSampleConfig()
		if err != nil {
			utils.Errorf("%v", err)
			config = Default()
		}
		globalConfig = config
	})
	return globalConfig
}

func loadUserOrSampleConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	configData, err := configDataFromPath(configPath)
	if err != nil {
		return nil, err
	}
	return parseConfig(configData, configPath)
}

func GetConfigPath() (string, error) {
	if customConfigPath != "" {
		return customConfigPath, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	return filepath.Join(dir, CONFIG_DIR_PATH, CONFIG_FILE_PATH), nil
}

func createConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), CONFIG_DIR_PERM)
}

func WriteConfigFile(configPath string, data []byte) error {
	return os.WriteFile(configPath, data, CONFIG_FILE_PERM)
}

// SampleConfig returns the embedded sample configuration
func SampleConfig() []byte {
	return sampleConfig
}

// WriteSample writes the sample configuration to configPath. An existing
// file is only replaced when force is set.
func WriteSample(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file already exists: %s", configPath)
	}
	if err := createConfigDir(configPath); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	return WriteConfigFile(configPath, sampleConfig)
}

func parseConfig(configData []byte, configPath string) (*Config, error) {
	configObj := Default()
	if err := yaml.Unmarshal(configData, configObj); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file %s: %w", configPath, err)
	}

	if err := configObj.expandPaths(); err != nil {
		return nil, err
	}

	if err := configObj.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return configObj, nil
}

func (c *Config) expandPaths() error {
	c.Storage.DBPath = expandPath(c.Storage.DBPath)
	for _, remote := range []*backend.RemoteConfig{c.Sync.Remote, c.Server.Remote} {
		if remote == nil {
			continue
		}
		remote.DSN = os.ExpandEnv(remote.DSN)
		remote.Token = os.ExpandEnv(remote.Token)
	}
	return nil
}

func configDataFromPath(configPath string) ([]byte, error) {
	configData, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		utils.Debugf("No config at %s, using the built-in sample", configPath)
		return sampleConfig, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return configData, nil
}

const (
	escapedDollar = "\x00dollar\x00"
	escapedTilde  = "\x00tilde\x00"
)

// expandPath expands environment variables anywhere in path and a leading ~.
// A backslash before $ or ~ keeps the character literally.
func expandPath(path string) string {
	if path == "" {
		return path
	}

	path = strings.ReplaceAll(path, `\$`, escapedDollar)
	path = strings.ReplaceAll(path, `\~`, escapedTilde)

	path = os.ExpandEnv(path)

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}

	path = strings.ReplaceAll(path, escapedDollar, "$")
	return strings.ReplaceAll(path, escapedTilde, "~")
}

// ExpandPath is expandPath for callers outside the package, such as the --db flag
func ExpandPath(path string) string {
	return expandPath(path)
}
