// Package config handles XDG configuration directory, file paths, and the
// optional settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "taskman"

	// SettingsFile is the optional YAML settings filename.
	SettingsFile = "config.yaml"

	// SessionFile is the persisted sign-in session filename.
	SessionFile = "session.json"
)

// DefaultBaseURL is where the backend listens when run locally.
const DefaultBaseURL = "http://localhost:5000"

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// Duration lets timeout values be written in YAML as "30s" or "1m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Settings are the values read from the optional config.yaml file. Absent
// fields keep their defaults.
type Settings struct {
	API struct {
		// BaseURL is the task backend root, without a trailing slash.
		BaseURL string `yaml:"base_url"`

		// Timeout bounds each backend request.
		Timeout Duration `yaml:"timeout"`
	} `yaml:"api"`

	Auth struct {
		// APIKey is the Firebase web API key used for sign-in.
		APIKey string `yaml:"api_key"`
	} `yaml:"auth"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskman or $HOME/.config/taskman.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{Dir: dir}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to the YAML settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// SessionPath returns the path to the persisted session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasSession checks if a persisted session file exists.
func (c *Config) HasSession() bool {
	_, err := os.Stat(c.SessionPath())
	return err == nil
}

// RemoveSession deletes the persisted session file.
func (c *Config) RemoveSession() error {
	return os.Remove(c.SessionPath())
}

// LoadSettings reads the settings file if present. A missing file is not an
// error; the returned settings then carry only defaults. An API key may also
// be supplied through the TASKMAN_API_KEY environment variable, which takes
// precedence over the file.
func (c *Config) LoadSettings() (Settings, error) {
	var s Settings
	s.API.BaseURL = DefaultBaseURL

	data, err := os.ReadFile(c.SettingsPath())
	if err == nil {
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("parsing %s: %w", c.SettingsPath(), err)
		}
	} else if !os.IsNotExist(err) {
		return Settings{}, err
	}

	if key := os.Getenv("TASKMAN_API_KEY"); key != "" {
		s.Auth.APIKey = key
	}
	if s.API.BaseURL == "" {
		s.API.BaseURL = DefaultBaseURL
	}
	return s, nil
}
