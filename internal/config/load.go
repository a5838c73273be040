package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are fatal errors with "did you mean?"
// suggestions.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values, so credentials can come from
// the environment alone.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment variables -> CLI flags.
// The result has every required credential present.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Config, error) {
	// 1. Resolve config path: CLI > env > default
	cfgPath := DefaultConfigPath()
	explicit := false

	if env.ConfigPath != "" {
		cfgPath, explicit = env.ConfigPath, true
	}

	if cli.ConfigPath != "" {
		cfgPath, explicit = cli.ConfigPath, true
	}

	// 2. Load config file. Only the implicit default path may be absent.
	cfg, err := loadConfigFile(cfgPath, explicit)
	if err != nil {
		return nil, err
	}

	// 3. Apply env overrides
	applyIfSet(&cfg.PublicKey, env.PublicKey)
	applyIfSet(&cfg.PrivateKey, env.PrivateKey)
	applyIfSet(&cfg.GroupID, env.GroupID)
	applyIfSet(&cfg.BaseURL, env.BaseURL)

	// 4. Apply CLI overrides
	applyIfSet(&cfg.GroupID, cli.GroupID)

	// 5. Validate the final result
	if err := ValidateResolved(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadConfigFile loads path, treating a missing file as an error when the
// path was named explicitly.
func loadConfigFile(path string, explicit bool) (*Config, error) {
	if !explicit {
		return LoadOrDefault(path)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return Load(path)
}

func applyIfSet(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
