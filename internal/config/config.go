// Package config loads the per-project .plume.json settings.
//
// Values come from, in increasing precedence: built-in defaults, the JSON
// file in the project directory, and PLUME_* environment variables. The
// free-form "context" object is decoded separately so its keys keep their
// case.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/simonhull/firebird-suite/plume/filesystem"
	"github.com/simonhull/firebird-suite/plume/scope"
)

// FileName is the config file looked up in the project directory.
const FileName = ".plume.json"

// Config holds project settings.
type Config struct {
	Blueprints  []string       `mapstructure:"blueprints" json:"blueprints,omitempty"`   // Extra template roots, highest precedence first
	Templates   string         `mapstructure:"templates" json:"templates"`               // Base template root
	Suffix      string         `mapstructure:"suffix" json:"suffix"`                     // Template suffix
	Concurrency int            `mapstructure:"concurrency" json:"concurrency,omitempty"` // Render workers, 0 for one per CPU
	FakerSeed   string         `mapstructure:"fakerSeed" json:"fakerSeed,omitempty"`     // Mixed into every entity seed
	Entities    string         `mapstructure:"entities" json:"entities"`                 // Directory of entity definitions
	Strategy    string         `mapstructure:"strategy" json:"strategy"`                 // Conflict strategy name
	Database    string         `mapstructure:"database" json:"database"`
	Cache       string         `mapstructure:"cache" json:"cache"`
	Context     map[string]any `mapstructure:"-" json:"context,omitempty"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Config {
	return Config{
		Templates: "templates",
		Suffix:    ".tmpl",
		Entities:  filepath.Join(".plume", "entities"),
		Strategy:  "force",
		Database:  "none",
		Cache:     "none",
	}
}

// Load reads dir/.plume.json on top of the defaults. A missing file is not
// an error.
func Load(dir string) (*Config, error) {
	defaults := Defaults()

	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(FileName, ".json"))
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("PLUME")
	v.AutomaticEnv()

	v.SetDefault("blueprints", defaults.Blueprints)
	v.SetDefault("templates", defaults.Templates)
	v.SetDefault("suffix", defaults.Suffix)
	v.SetDefault("concurrency", defaults.Concurrency)
	v.SetDefault("fakerSeed", defaults.FakerSeed)
	v.SetDefault("entities", defaults.Entities)
	v.SetDefault("strategy", defaults.Strategy)
	v.SetDefault("database", defaults.Database)
	v.SetDefault("cache", defaults.Cache)

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
		}
		found = false
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", FileName, err)
	}

	if found {
		ctx, err := readContext(v.ConfigFileUsed())
		if err != nil {
			return nil, err
		}
		cfg.Context = ctx
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return cfg, nil
}

// readContext decodes the "context" object without the key folding viper
// applies.
func readContext(path string) (map[string]any, error) {
	data, err := filesystem.OS{}.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var raw struct {
		Context map[string]any `yaml:"context"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return raw.Context, nil
}

// Validate checks the closed enumerations.
func (c *Config) Validate() error {
	if _, ok := databases[strings.ToLower(c.Database)]; !ok {
		return fmt.Errorf("unknown database %q (supported: %s)", c.Database, strings.Join(DatabaseNames(), ", "))
	}
	if !slices.Contains(cacheProviders, strings.ToLower(c.Cache)) {
		return fmt.Errorf("unknown cache %q (supported: %s)", c.Cache, strings.Join(cacheProviders, ", "))
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	return nil
}

// Roots returns the template roots in precedence order: blueprints first,
// then the base templates, all relative to dir unless absolute.
func (c *Config) Roots(dir string) []string {
	var roots []string
	for _, r := range append(slices.Clone(c.Blueprints), c.Templates) {
		if r == "" {
			continue
		}
		if !filepath.IsAbs(r) {
			r = filepath.Join(dir, r)
		}
		roots = append(roots, r)
	}
	return roots
}

// RenderContext is the generator-wide context the config contributes:
// derived flags, the faker seed and the user context, later entries
// winning.
func (c *Config) RenderContext() scope.Context {
	base := Derive(c)
	if c.FakerSeed != "" {
		base[scope.FakerSeedKey] = c.FakerSeed
	}
	return scope.Merge(base, c.Context)
}

// Save writes cfg to dir/.plume.json.
func Save(dir string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := (filesystem.OS{}).WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
