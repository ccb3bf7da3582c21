package command

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const configFileName = ".wadtool.yaml"

// Config holds the defaults read from the configuration file. Command line
// flags override every field.
type Config struct {
	Verbose bool   `yaml:"verbose"`
	Atomic  bool   `yaml:"atomic"`
	Format  string `yaml:"format"` // table or json
	Game    string `yaml:"game"`   // doom, hexen or strife; empty to detect
	Kind    string `yaml:"kind"`   // IWAD or PWAD, for archives created by add and marker
}

func DefaultConfig() Config {
	return Config{Format: FormatTable, Kind: "PWAD"}
}

// DefaultConfigPath returns $HOME/.wadtool.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(home, configFileName)
}

// LoadConfig reads the YAML file at path over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}
