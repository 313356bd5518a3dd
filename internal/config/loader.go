package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables applied over the YAML configuration.
const (
	EnvName   = "SM64CRYPTO_NAME"
	EnvDBPath = "SM64CRYPTO_DB"
)

// Load loads the miner configuration.
// Search order: customPath -> ~/.sm64crypto/config.yaml -> ./configs/miner.yaml -> embedded default.
// Files are decoded over Default(), so a partial file only overrides what it sets.
func Load(customPath string) (Config, error) {
	cfg := Default()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return finish(cfg, customPath)
	}

	// Try user config directory
	if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			candidate := Default()
			if err := yaml.Unmarshal(data, &candidate); err == nil {
				return finish(candidate, userCfgPath)
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile("configs/miner.yaml"); err == nil {
		candidate := Default()
		if err := yaml.Unmarshal(data, &candidate); err == nil {
			return finish(candidate, "configs/miner.yaml")
		}
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultMinerYAML, &cfg); err != nil {
		cfg = Default() // Fallback to hardcoded if embed fails
	}
	return finish(cfg, "embedded default")
}

// finish applies environment overrides and validates the result.
func finish(cfg Config, source string) (Config, error) {
	ApplyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", source, err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// ApplyEnv overrides the miner name and database path from the environment.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvName); v != "" {
		cfg.Miner.Name = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Miner.DBPath = v
	}
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sm64crypto", filename)
}

// ExpandHome replaces a leading '~' with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
