package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ecsboss/pkg/logging"
)

// ConfigFileName is the per-project tool configuration file, looked up in the
// working directory.
const ConfigFileName = ".ecsboss.yaml"

// Config carries per-project defaults so invocations don't have to repeat
// them as flags. Flags still win over file values.
type Config struct {
	Region      string `yaml:"region,omitempty"`
	Profile     string `yaml:"profile,omitempty"`
	Repository  string `yaml:"repository,omitempty"`
	TaskFile    string `yaml:"taskFile,omitempty"`
	ServiceFile string `yaml:"serviceFile,omitempty"`
}

// GetDefaultConfig returns the configuration used when no file is present.
func GetDefaultConfig() Config {
	return Config{
		TaskFile:    "task-def.json",
		ServiceFile: "service.json",
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error,
// the defaults apply as-is.
func LoadConfig(path string) (Config, error) {
	config := GetDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("Config", "No %s found, using defaults", path)
			return config, nil
		}
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	logging.Debug("Config", "Loaded configuration from %s", path)
	return config, nil
}
