// Package config handles plexc.toml project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/plexc/compiler"
	"github.com/chazu/plexc/decompiler"
)

// FileName is the name of the configuration file.
const FileName = "plexc.toml"

// Config represents a plexc.toml project configuration.
type Config struct {
	Compiler   Compiler   `toml:"compiler"`
	Decompiler Decompiler `toml:"decompiler"`
	Output     Output     `toml:"output"`
	Store      Store      `toml:"store"`
	Log        Log        `toml:"log"`

	// Dir is the directory containing the plexc.toml file (set at load time).
	// Empty for Default.
	Dir string `toml:"-"`
}

// Compiler configures checking and emission.
type Compiler struct {
	MaxDepth         int    `toml:"max-depth"`
	IDs              string `toml:"ids"` // "sequential" or "uuid"
	WarningsAsErrors bool   `toml:"warnings-as-errors"`
}

// Decompiler configures text rendering.
type Decompiler struct {
	Indent   string `toml:"indent"`
	MaxDepth int    `toml:"max-depth"`
}

// Output selects the plan encoding written by compile.
type Output struct {
	Format string `toml:"format"` // "xml" or "cbor"
}

// Store locates the diagnostics database.
type Store struct {
	Path string `toml:"path"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no plexc.toml is found.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Compiler.IDs == "" {
		c.Compiler.IDs = "sequential"
	}
	if c.Decompiler.Indent == "" {
		c.Decompiler.Indent = "  "
	}
	if c.Output.Format == "" {
		c.Output.Format = "xml"
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(".plexc", "diagnostics.db")
	}
}

// Load parses a plexc.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return c, nil
}

// Parse decodes and validates configuration text.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var c Config
	if _, err := toml.Decode(string(data), &c); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

// FindAndLoad walks up from startDir to find a plexc.toml file, then loads
// and returns it. Returns Default if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// StorePath returns the diagnostics database path, resolved against Dir
// when relative.
func (c *Config) StorePath() string {
	if c.Store.Path == ":memory:" || filepath.IsAbs(c.Store.Path) || c.Dir == "" {
		return c.Store.Path
	}
	return filepath.Join(c.Dir, c.Store.Path)
}

// CompilerOptions returns the compiler options this configuration selects.
func (c *Config) CompilerOptions() compiler.Options {
	return compiler.Options{
		MaxDepth:         c.Compiler.MaxDepth,
		WarningsAsErrors: c.Compiler.WarningsAsErrors,
		IDs:              compiler.NewIDSource(c.Compiler.IDs),
	}
}

// DecompilerOptions returns the decompiler options this configuration
// selects.
func (c *Config) DecompilerOptions() decompiler.Options {
	return decompiler.Options{
		Indent:   c.Decompiler.Indent,
		MaxDepth: c.Decompiler.MaxDepth,
	}
}
