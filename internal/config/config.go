// Package config loads ticgit settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvUser  = "TICGIT_USER"
	EnvColor = "TICGIT_COLOR"

	// RepoFile is the per-repository config file, relative to the root.
	RepoFile = ".ticgit.yaml"

	// SourceDefault is Config.Source when no file was read.
	SourceDefault = "default"
)

// ---------------------------------------------------------------------------
// Config types
// ---------------------------------------------------------------------------

// DisplayConfig controls terminal output.
type DisplayConfig struct {
	Color        string `yaml:"color"`      // "auto" | "always" | "never"
	WideCells    bool   `yaml:"wide_cells"` // measure East Asian wide glyphs as two cells
	CommentWidth int    `yaml:"comment_width"`
	CommentLines int    `yaml:"comment_lines"`
}

// LogConfig sets the default log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// StoreConfig locates the ticket database.
type StoreConfig struct {
	Dir string `yaml:"dir"`
}

// Config is the merged configuration.
type Config struct {
	User    string        `yaml:"user"`
	Editor  string        `yaml:"editor"`
	Display DisplayConfig `yaml:"display"`
	Log     LogConfig     `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`

	// Source is the file the config was read from, or SourceDefault.
	Source string `yaml:"-"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		User: defaultUser(),
		Display: DisplayConfig{
			Color:        "auto",
			CommentWidth: 80,
			CommentLines: 6,
		},
		Log:    LogConfig{Level: "warn"},
		Source: SourceDefault,
	}
}

func defaultUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return "unknown"
}

// Load reads a config file. A missing file yields Default() with no error;
// keys absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Source = path
	return cfg, cfg.Validate()
}

// Validate rejects values no consumer can use.
func (c *Config) Validate() error {
	switch c.Display.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("config: display.color must be auto, always or never, got %q", c.Display.Color)
	}
	if c.Display.CommentWidth < 0 {
		return fmt.Errorf("config: display.comment_width must not be negative, got %d", c.Display.CommentWidth)
	}
	if c.Display.CommentLines < 0 {
		return fmt.Errorf("config: display.comment_lines must not be negative, got %d", c.Display.CommentLines)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

// GlobalPath returns ~/.config/ticgit/config.yaml.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ticgit", "config.yaml"), nil
}

// Path picks the config file: the explicit path, else the repository file
// when it exists, else the global file.
func Path(explicit, repoRoot string) string {
	if explicit != "" {
		return explicit
	}
	if repoRoot != "" {
		p := filepath.Join(repoRoot, RepoFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if p, err := GlobalPath(); err == nil {
		return p
	}
	return ""
}

// Resolve loads .env from repoRoot, reads the chosen config file and
// applies environment overrides.
func Resolve(explicit, repoRoot string) (*Config, error) {
	if err := LoadDotEnv(repoRoot); err != nil {
		return nil, err
	}

	path := Path(explicit, repoRoot)
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
		if explicit != "" && cfg.Source == SourceDefault {
			return nil, fmt.Errorf("config file %s does not exist", explicit)
		}
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

// LoadDotEnv loads dir/.env without overriding variables already set.
// A missing file is not an error.
func LoadDotEnv(dir string) error {
	if dir == "" {
		return nil
	}
	p := filepath.Join(dir, ".env")
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(p); err != nil {
		return fmt.Errorf("load %s: %w", p, err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvUser)); v != "" {
		c.User = v
	}
	if v := strings.TrimSpace(getenv(EnvColor)); v != "" {
		c.Display.Color = strings.ToLower(v)
	}
}
