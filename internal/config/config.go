// Package config loads the optional per-project membank configuration
// from memory-bank/config.yaml. Everything has a working default — a
// project without a config file gets the stock command table, the
// embedded guidance texts, and a history database under the user's home.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file name inside the memory-bank directory.
const FileName = "config.yaml"

// Config is the user-editable membank configuration.
type Config struct {
	// Aliases maps extra command tokens to mode names (exact-match,
	// case-sensitive). Example:  v: Init
	Aliases map[string]string `yaml:"aliases,omitempty"`
	// RulesDir overrides where per-project rule files live.
	// Default: memory-bank/rules under the project root.
	RulesDir string `yaml:"rules_dir,omitempty"`
	// HistoryDir overrides where the history database lives.
	// Default: ~/.membank
	HistoryDir string `yaml:"history_dir,omitempty"`
}

// Default returns the configuration used when no config file exists.
func Default(projectRoot string) Config {
	home, _ := os.UserHomeDir()
	return Config{
		RulesDir:   filepath.Join(projectRoot, "memory-bank", "rules"),
		HistoryDir: filepath.Join(home, ".membank"),
	}
}

// Load reads memory-bank/config.yaml under the project root. A missing
// file is not an error; unset fields fall back to defaults. Relative
// directories are resolved against the project root.
func Load(projectRoot string) (Config, error) {
	cfg := Default(projectRoot)

	path := filepath.Join(projectRoot, "memory-bank", FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	if len(file.Aliases) > 0 {
		cfg.Aliases = file.Aliases
	}
	if file.RulesDir != "" {
		cfg.RulesDir = resolve(projectRoot, file.RulesDir)
	}
	if file.HistoryDir != "" {
		cfg.HistoryDir = resolve(projectRoot, file.HistoryDir)
	}
	return cfg, nil
}

// resolve makes a relative path absolute against the project root.
func resolve(projectRoot, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(projectRoot, path)
}
