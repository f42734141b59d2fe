// Package config loads weft.json, the CLI's project configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ConfigFileName is the name of the configuration file.
const ConfigFileName = "weft.json"

// Config is the weft.json schema. Durations are strings in time.Duration
// syntax ("5m", "16ms").
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Addr is the listen address for weft serve.
	Addr string `json:"addr,omitempty"`

	// Server contains live-server settings.
	Server ServerConfig `json:"server,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path the config was loaded from.
	configPath string
}

// ServerConfig contains live-server settings.
type ServerConfig struct {
	// MaxSessions caps live sessions.
	MaxSessions int `json:"maxSessions,omitempty"`

	// HistoryLimit is the per-session ops frame retention for resume.
	HistoryLimit int `json:"historyLimit,omitempty"`

	// ResumeWindow is how long detached sessions stay resumable.
	ResumeWindow string `json:"resumeWindow,omitempty"`

	// Slice is the engine time slice per scheduler turn.
	Slice string `json:"slice,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is the minimum level: "debug", "info", "warn", or "error".
	Level string `json:"level,omitempty"`
}

// New returns a Config with defaults applied.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads weft.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the given path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config: no %s in %s", ConfigFileName, filepath.Dir(path))
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("config: no path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the given path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string { return c.configPath }

// applyDefaults fills in empty fields.
func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Server.ResumeWindow == "" {
		c.Server.ResumeWindow = "5m"
	}
	if c.Server.Slice == "" {
		c.Server.Slice = "16ms"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks field values that Load cannot reject structurally.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Server.ResumeWindow); err != nil {
		return fmt.Errorf("config: resumeWindow: %w", err)
	}
	if _, err := time.ParseDuration(c.Server.Slice); err != nil {
		return fmt.Errorf("config: slice: %w", err)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Server.MaxSessions < 0 {
		return fmt.Errorf("config: maxSessions must not be negative")
	}
	return nil
}

// ResumeWindow returns the parsed resume window.
func (c *Config) ResumeWindow() time.Duration {
	d, _ := time.ParseDuration(c.Server.ResumeWindow)
	return d
}

// Slice returns the parsed engine time slice.
func (c *Config) Slice() time.Duration {
	d, _ := time.ParseDuration(c.Server.Slice)
	return d
}

// Exists reports whether dir holds a weft.json.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
