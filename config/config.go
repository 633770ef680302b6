// Package config loads the optional unitcube YAML configuration file.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/CraigKelly/unitcube/stanc"
	"github.com/CraigKelly/unitcube/transpile"
)

// DefaultName is the file name looked up in the home directory
const DefaultName = ".unitcube.yaml"

// Config holds everything that can be set in the config file. Flags given on
// the command line override these values.
type Config struct {
	Stanc            string   `yaml:"stanc"`
	IncludePaths     []string `yaml:"include_paths"`
	InverseTransform string   `yaml:"inverse_transform"`
	UnitPrefix       string   `yaml:"unit_prefix"`
	Lower            string   `yaml:"lower"`
	Upper            string   `yaml:"upper"`
	Indent           string   `yaml:"indent"`
	Declare          bool     `yaml:"declare"`
	Jobs             int      `yaml:"jobs"`
	LogLevel         string   `yaml:"log_level"`
}

// Default returns the built in configuration
func Default() *Config {
	sym := transpile.DefaultSymbols()
	return &Config{
		Stanc:            stanc.DefaultPath,
		InverseTransform: sym.InverseTransform,
		UnitPrefix:       sym.UnitPrefix,
		Lower:            sym.Lower,
		Upper:            sym.Upper,
		Indent:           sym.Indent,
		Declare:          sym.Declare,
		Jobs:             4,
		LogLevel:         "info",
	}
}

// DefaultPath returns $HOME/.unitcube.yaml, or "" if there is no home
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultName)
}

// Load reads the config file at path on top of the defaults. If path is
// empty the default path is used, and a missing default file is not an
// error. A file named explicitly must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "Could not read config %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "Could not parse config %s", path)
	}
	if err := cfg.Check(); err != nil {
		return nil, errors.Wrapf(err, "Invalid config %s", path)
	}

	return cfg, nil
}

// Check validates the settings that can be checked without running anything
func (c *Config) Check() error {
	if c.Jobs < 1 {
		return errors.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return c.Symbols().Check()
}

// Symbols returns the symbol table described by the config
func (c *Config) Symbols() transpile.Symbols {
	return transpile.Symbols{
		InverseTransform: c.InverseTransform,
		UnitPrefix:       c.UnitPrefix,
		Lower:            c.Lower,
		Upper:            c.Upper,
		Indent:           c.Indent,
		Declare:          c.Declare,
	}
}

// Level parses LogLevel
func (c *Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, errors.Wrapf(err, "Invalid log_level %q", c.LogLevel)
	}
	return lvl, nil
}
