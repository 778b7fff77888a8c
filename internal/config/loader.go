package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// FileName is the configuration file inside the collective directory.
const FileName = "config.toml"

// placeholder matches ${VAR} and ${VAR:default}.
var placeholder = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// Load reads the configuration from dir (the .claude-collective directory).
// A .env file in dir is loaded into the environment first. Missing
// config.toml yields defaults, so a fresh install works unconfigured.
func Load(dir string) (*Config, error) {
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	cfg := Default()

	path := filepath.Join(dir, FileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Decoding over the defaults keeps unset keys at their default values.
	if _, err := toml.Decode(expandEnv(string(content)), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks the struct-level validation tags.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// expandEnv substitutes ${VAR} and ${VAR:default} placeholders with
// environment values.
func expandEnv(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(match string) string {
		groups := placeholder.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}

		if val := os.Getenv(groups[1]); val != "" {
			return val
		}
		if len(groups) >= 3 {
			return groups[2]
		}
		return ""
	})
}
