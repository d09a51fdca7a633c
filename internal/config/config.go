// Package config loads kasm's TOML configuration file: the default
// extension formula, main memory size, maximum run steps (the "kasm run"
// verb's execution bound), and the search paths internal/extio consults
// for extension records.
//
// Grounded on lookbusy1344-arm_emulator/config/config.go: the same
// DefaultConfig/Load/LoadFrom/Save shape, the same platform-specific
// GetConfigPath convention, and the same BurntSushi/toml dependency —
// trimmed of ARM-emulator-specific debugger/display/trace/statistics
// sections spec.md has no analogue for.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is kasm's on-disk configuration.
type Config struct {
	Assembly struct {
		DefaultFormula     []string `toml:"default_formula"`      // extension names, e.g. ["rv32i", "rv32m"]
		ExtensionSearchPaths []string `toml:"extension_search_paths"`
	} `toml:"assembly"`

	Execution struct {
		MainMemorySize int `toml:"main_memory_size"` // bytes
		MaxRunSteps    int `toml:"max_run_steps"`
	} `toml:"execution"`
}

// DefaultConfig returns kasm's built-in defaults, used whenever no config
// file is present or a field is left unset in one that is.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Assembly.DefaultFormula = []string{"rv32i", "rv32m"}
	cfg.Assembly.ExtensionSearchPaths = []string{"."}
	cfg.Execution.MainMemorySize = 1 << 20 // 1 MiB
	cfg.Execution.MaxRunSteps = 1_000_000
	return cfg
}

// GetConfigPath returns the platform-specific config file path, creating
// its containing directory if necessary.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "kasm")
	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "kasm")
	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return "config.toml"
	}
	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file, falling back to
// DefaultConfig if it does not exist.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, starting from DefaultConfig and
// letting the file override whatever fields it sets.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %q: %w", path, err)
	}
	return cfg, nil
}

// Save writes c to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo writes c to path in TOML form, creating its directory if needed.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("config: failed to create directory %q: %w", dir, err)
	}

	f, err := os.Create(path) // #nosec G304 -- caller-controlled config file path
	if err != nil {
		return fmt.Errorf("config: failed to create %q: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("config: failed to encode: %w", err)
	}
	return nil
}
