package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory
const FileName = "unitc.yaml"

// ComparisonPolicy decides what happens when a comparison mixes units
type ComparisonPolicy string

const (
	// ComparisonsStrict reports comparisons of incompatible units as errors
	ComparisonsStrict ComparisonPolicy = "strict"
	// ComparisonsPermissive accepts any comparison
	ComparisonsPermissive ComparisonPolicy = "permissive"
)

// UnhandledPolicy decides whether constructs the checker does not model
// produce a warning
type UnhandledPolicy string

const (
	UnhandledWarn   UnhandledPolicy = "warn"
	UnhandledIgnore UnhandledPolicy = "ignore"
)

// Config controls the unit checker
type Config struct {
	Path         string
	Attribute    string
	Comparisons  ComparisonPolicy
	Unhandled    UnhandledPolicy
	MaxBaseUnits int
	BaseUnits    []string
}

type configFile struct {
	Attribute    string   `yaml:"attribute"`
	Comparisons  string   `yaml:"comparisons"`
	Unhandled    string   `yaml:"unhandled"`
	MaxBaseUnits int      `yaml:"max_base_units"`
	BaseUnits    []string `yaml:"base_units"`
}

// ValidationError aggregates configuration problems
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Attribute:   "unit",
		Comparisons: ComparisonsStrict,
		Unhandled:   UnhandledWarn,
	}
}

// Load reads and validates the configuration file at path
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: resolve %s", path)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", absPath)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config: %s", absPath)
	}
	cfg.Path = absPath
	return cfg, nil
}

// Discover loads FileName from dir when it exists and returns Default
// otherwise
func Discover(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrapf(err, "config: stat %s", path)
	}
	return Load(path)
}

// Parse decodes and validates configuration from YAML. Empty input yields
// the defaults; unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil {
		if err == io.EOF {
			return Default(), nil
		}
		return nil, errors.Wrap(err, "parse")
	}

	cfg := raw.toConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *configFile) toConfig() *Config {
	cfg := Default()
	if f.Attribute != "" {
		cfg.Attribute = f.Attribute
	}
	if f.Comparisons != "" {
		cfg.Comparisons = ComparisonPolicy(strings.ToLower(f.Comparisons))
	}
	if f.Unhandled != "" {
		cfg.Unhandled = UnhandledPolicy(strings.ToLower(f.Unhandled))
	}
	cfg.MaxBaseUnits = f.MaxBaseUnits
	cfg.BaseUnits = f.BaseUnits
	return cfg
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	var errs ValidationError
	if !isIdentifier(c.Attribute) {
		errs.Issues = append(errs.Issues, fmt.Sprintf("attribute %q must be a C identifier", c.Attribute))
	}
	switch c.Comparisons {
	case ComparisonsStrict, ComparisonsPermissive:
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("comparisons must be %q or %q, got %q", ComparisonsStrict, ComparisonsPermissive, c.Comparisons))
	}
	switch c.Unhandled {
	case UnhandledWarn, UnhandledIgnore:
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("unhandled must be %q or %q, got %q", UnhandledWarn, UnhandledIgnore, c.Unhandled))
	}
	if c.MaxBaseUnits < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("max_base_units must not be negative, got %d", c.MaxBaseUnits))
	}
	for i, name := range c.BaseUnits {
		if !isUnitName(name) {
			errs.Issues = append(errs.Issues, fmt.Sprintf("base_units[%d] %q must be alphabetic", i, name))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case '0' <= r && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func isUnitName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			return false
		}
	}
	return true
}
