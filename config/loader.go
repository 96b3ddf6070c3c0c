package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/settings.yaml
var defaultSettingsYAML []byte

const settingsFile = "settings.yaml"

// Load loads the solver settings.
// Search order: customPath -> ~/.feather2d/settings.yaml -> ./configs/settings.yaml -> embedded default
func Load(customPath string) (Settings, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath(settingsFile); userCfgPath != "" {
		if cfg, found, err := loadFile(userCfgPath); found {
			return cfg, err
		}
	}

	// Try local configs directory
	if cfg, found, err := loadFile(filepath.Join("configs", settingsFile)); found {
		return cfg, err
	}

	// Use embedded default YAML
	cfg, err := Parse(defaultSettingsYAML)
	if err != nil {
		return Default(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// loadFile reads and parses the settings at path. found is false only when the file does
// not exist; a file that exists but cannot be read or parsed is an error.
func loadFile(path string) (cfg Settings, found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, true, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err = Parse(data)
	if err != nil {
		return Settings{}, true, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, true, nil
}

// Parse decodes YAML over the defaults, so a partial file only overrides the keys it names,
// then validates the result.
func Parse(data []byte) (Settings, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Settings{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".feather2d", filename)
}
