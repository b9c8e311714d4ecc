// Package config loads the optional ffi-bindgen configuration file. YAML and
// TOML are accepted; both are validated against one JSON Schema.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// Front ends accepted by the frontend setting.
const (
	FrontendCC   = "cc"
	FrontendScan = "scan"
)

// DefaultPackage is used when no package name can be derived.
const DefaultPackage = "bindings"

// Config holds every generation setting. Command line flags override the
// values read from a file.
type Config struct {
	Input       string   `yaml:"input" toml:"input"`
	Output      string   `yaml:"output" toml:"output"`
	Library     string   `yaml:"library" toml:"library"`
	Package     string   `yaml:"package" toml:"package"`
	Frontend    string   `yaml:"frontend" toml:"frontend"`
	Target      string   `yaml:"target" toml:"target"`
	IncludeDirs []string `yaml:"include_dirs" toml:"include_dirs"`
	Defines     []string `yaml:"defines" toml:"defines"`
	ExtraArgs   []string `yaml:"extra_args" toml:"extra_args"`
	Exclude     []string `yaml:"exclude" toml:"exclude"`
}

// Load reads the file at path. The format is chosen by extension.
func Load(path string) (*Config, error) {
	var parse func([]byte) (*Config, error)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parse = parseYAML
	case ".toml":
		parse = parseTOML
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return parse(data)
}

func parseYAML(data []byte) (*Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if raw == nil {
		return &Config{}, nil
	}
	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

func parseTOML(data []byte) (*Config, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}
	if err := validate(tree.ToMap()); err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills the settings that can be derived from the input
// header: the library name from its base name, the package from the library
// name and the output file from the library name.
func (c *Config) ApplyDefaults() error {
	if c.Input == "" {
		return errors.New("no input header")
	}

	if c.Library == "" {
		base := filepath.Base(c.Input)
		c.Library = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if c.Package == "" {
		c.Package = packageName(c.Library)
	}

	if c.Output == "" {
		c.Output = c.Library + ".go"
	}

	if c.Frontend == "" {
		c.Frontend = FrontendCC
	}

	switch c.Frontend {
	case FrontendCC, FrontendScan:
	default:
		return fmt.Errorf("unknown frontend %q", c.Frontend)
	}

	return nil
}

// packageName lowers name and drops the characters a package clause cannot
// carry.
func packageName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9' && b.Len() > 0:
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return DefaultPackage
	}
	return b.String()
}
