// Package config loads karm.yaml project settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the project configuration file.
const FileName = "karm.yaml"

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the settings of a Karm project.
type Config struct {
	// Extension is the required source file extension, including the dot.
	// Defaults to ".kr"
	Extension string `yaml:"extension"`

	// Check runs the type checker after parsing.
	// Defaults to true
	Check bool `yaml:"check"`

	// Strict resolves prefix calls against the signatures of the
	// program's own definitions.
	Strict bool `yaml:"strict"`

	// Workers is the number of definitions checked concurrently.
	// Defaults to 1
	Workers int `yaml:"workers"`

	// AllErrors keeps checking after a failing definition and reports
	// every failure instead of the first.
	AllErrors bool `yaml:"all_errors"`

	// FollowUses loads and checks the files named by use definitions.
	FollowUses bool `yaml:"follow_uses"`

	// SearchPaths are directories tried, in order, when a use path is not
	// found next to the using file. Relative entries are relative to the
	// configuration file.
	SearchPaths []string `yaml:"search_paths"`

	// Color is one of auto, always or never.
	// Defaults to auto
	Color string `yaml:"color"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `yaml:"-"`
}

// DefaultConfig returns the configuration used when no karm.yaml exists.
func DefaultConfig() *Config {
	return &Config{
		Extension: ".kr",
		Check:     true,
		Workers:   1,
		Color:     ColorAuto,
	}
}

// Load reads and validates the configuration file at path. Keys missing
// from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	for i, dir := range cfg.SearchPaths {
		if !filepath.IsAbs(dir) {
			cfg.SearchPaths[i] = filepath.Join(filepath.Dir(path), dir)
		}
	}
	return cfg, nil
}

// Parse parses karm.yaml content. The path argument is used only for
// error messages.
func Parse(data []byte, path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find searches for karm.yaml starting from dir and walking up to the
// filesystem root. It returns an empty path and a nil error if there is
// none.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Resolve returns the configuration at explicit if it is set, otherwise
// the nearest karm.yaml above dir, otherwise the defaults.
func Resolve(explicit, dir string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, err := Find(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	if c.Extension == "" || !strings.HasPrefix(c.Extension, ".") {
		return fmt.Errorf("extension %q must start with a dot", c.Extension)
	}
	if strings.ContainsAny(c.Extension, `/\`) {
		return fmt.Errorf("extension %q must not contain a path separator", c.Extension)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	for _, dir := range c.SearchPaths {
		if dir == "" {
			return fmt.Errorf("search_paths must not contain empty entries")
		}
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color %q must be one of %s, %s, %s", c.Color, ColorAuto, ColorAlways, ColorNever)
	}
	return nil
}

// HasExtension reports whether path ends with the configured extension.
func (c *Config) HasExtension(path string) bool {
	base := filepath.Base(path)
	return len(base) > len(c.Extension) && strings.HasSuffix(base, c.Extension)
}
