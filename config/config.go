// Package config reads project configuration in the sushi-config.yaml
// format and maps it onto compiler options and tank configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	fshc "github.com/gofhir/fshc"
	"github.com/gofhir/fshc/fsh"
)

// DefaultFileName is the conventional configuration file name.
const DefaultFileName = "sushi-config.yaml"

// Config is the project configuration. Only the fields the compiler core
// consumes are modeled; unknown keys are ignored.
type Config struct {
	ID          string `yaml:"id"`
	Canonical   string `yaml:"canonical"`
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	Version     string `yaml:"version"`
	FHIRVersion string `yaml:"fhirVersion"`
	Status      string `yaml:"status"`
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// LoadFromDir looks for the conventional configuration file in a directory.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, DefaultFileName))
}

// Parse parses YAML configuration data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Canonical == "" {
		return nil, fmt.Errorf("configuration is missing required key: canonical")
	}
	return &cfg, nil
}

// TankConfig converts the configuration into the tank's view of it.
func (c *Config) TankConfig() fsh.Config {
	return fsh.Config{
		Canonical: c.Canonical,
		Version:   c.Version,
		ID:        c.ID,
		Name:      c.Name,
	}
}

// Options converts the configuration into compiler options, layered over
// the defaults.
func (c *Config) Options() []fshc.Option {
	opts := []fshc.Option{fshc.WithCanonical(c.Canonical)}
	if v, ok := c.ResolveFHIRVersion(); ok {
		opts = append(opts, fshc.WithVersion(v))
	}
	return opts
}

// ResolveFHIRVersion maps the configured fhirVersion value onto a supported
// release. Both release labels ("R4") and version numbers ("4.0.1") are
// accepted.
func (c *Config) ResolveFHIRVersion() (fshc.FHIRVersion, bool) {
	switch strings.TrimSpace(c.FHIRVersion) {
	case "", "R4", "4.0.0", "4.0.1":
		return fshc.R4, c.FHIRVersion != ""
	case "R4B", "4.3.0":
		return fshc.R4B, true
	case "R5", "5.0.0":
		return fshc.R5, true
	default:
		return fshc.R4, false
	}
}
