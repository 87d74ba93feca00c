// Package config handles owiz.toml runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/owiz/gc"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "owiz.toml"

// DefaultStackSize is the call stack size used when none is configured.
const DefaultStackSize = 500

// Config represents an owiz.toml configuration.
type Config struct {
	Memory  Memory  `toml:"memory"`
	Stack   Stack   `toml:"stack"`
	Modules Modules `toml:"modules"`
	Log     Log     `toml:"log"`

	// Dir is the directory containing the owiz.toml file (set at load time).
	Dir string `toml:"-"`
}

// Memory configures the object heap.
type Memory struct {
	Verbose     bool `toml:"verbose"`
	GCThreshold int  `toml:"gc-threshold"`
	AllocateMax int  `toml:"allocate-max"`
}

// Stack configures the call stack.
type Stack struct {
	Size int `toml:"size"`
}

// Modules configures module search.
type Modules struct {
	Paths []string `toml:"paths"`
}

// Log configures logging.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no owiz.toml is present.
func Default() Config {
	return Config{
		Memory: Memory{
			GCThreshold: gc.DefaultThreshold,
			AllocateMax: gc.DefaultAllocateMax,
		},
		Stack: Stack{Size: DefaultStackSize},
	}
}

// Load parses an owiz.toml file from the given directory. Unset values keep
// their defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

// FindAndLoad walks up from startDir to find an owiz.toml file,
// then loads and returns the configuration. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Validate checks that the memory and stack settings are usable.
func (c *Config) Validate() error {
	if c.Memory.GCThreshold <= 0 {
		return fmt.Errorf("memory.gc-threshold must be positive, got %d", c.Memory.GCThreshold)
	}
	if c.Memory.AllocateMax < c.Memory.GCThreshold {
		return fmt.Errorf("memory.allocate-max (%d) is below memory.gc-threshold (%d)",
			c.Memory.AllocateMax, c.Memory.GCThreshold)
	}
	if c.Stack.Size < 0 {
		return fmt.Errorf("stack.size must not be negative, got %d", c.Stack.Size)
	}
	return nil
}

// ModulePaths returns absolute paths for the configured module directories.
// Relative entries resolve against the configuration directory.
func (c *Config) ModulePaths() []string {
	var paths []string
	for _, d := range c.Modules.Paths {
		if filepath.IsAbs(d) || c.Dir == "" {
			paths = append(paths, d)
			continue
		}
		paths = append(paths, filepath.Join(c.Dir, d))
	}
	return paths
}
