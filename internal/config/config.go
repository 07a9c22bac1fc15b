// Package config loads the goconstruct CLI settings from TOML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

const (
	EnvConfig   = "GOCONSTRUCT_CONFIG"
	EnvLogLevel = "GOCONSTRUCT_LOG_LEVEL"
	EnvNoColor  = "GOCONSTRUCT_NO_COLOR"
)

// Config holds the CLI defaults. Flags override it.
type Config struct {
	LogLevel zerolog.Level
	// Format is the output format for parse: json, yaml or cbor.
	Format  string
	NoColor bool
	// Path is the file the settings came from, empty when none was read.
	Path string
}

type fileConfig struct {
	LogLevel string `toml:"log_level"`
	Format   string `toml:"format"`
	NoColor  bool   `toml:"no_color"`
}

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{LogLevel: zerolog.WarnLevel, Format: "json"}
}

// DefaultPath returns ~/.config/goconstruct/config.toml, or the empty
// string when the home directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "goconstruct", "config.toml")
}

// Resolve picks the config file: the explicit path, then $GOCONSTRUCT_CONFIG,
// then DefaultPath. explicit reports whether the file must exist.
func Resolve(flagPath string) (path string, explicit bool) {
	if flagPath != "" {
		return flagPath, true
	}
	if p := strings.TrimSpace(os.Getenv(EnvConfig)); p != "" {
		return p, true
	}
	return DefaultPath(), false
}

// Load reads the settings for flagPath (see Resolve) and applies
// environment overrides. A missing default file is not an error.
func Load(flagPath string) (Config, error) {
	cfg := Default()
	path, explicit := Resolve(flagPath)
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return Config{}, err
			}
		} else {
			cfg.Path = path
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config (%s): unknown key %q", path, undecoded[0].String())
	}
	if meta.IsDefined("log_level") {
		lvl, err := ParseLevel(raw.LogLevel)
		if err != nil {
			return fmt.Errorf("load config (%s): %w", path, err)
		}
		cfg.LogLevel = lvl
	}
	if meta.IsDefined("format") {
		f, err := ParseFormat(raw.Format)
		if err != nil {
			return fmt.Errorf("load config (%s): %w", path, err)
		}
		cfg.Format = f
	}
	if meta.IsDefined("no_color") {
		cfg.NoColor = raw.NoColor
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if raw := strings.TrimSpace(os.Getenv(EnvLogLevel)); raw != "" {
		lvl, err := ParseLevel(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = lvl
	}
	if raw := strings.TrimSpace(os.Getenv(EnvNoColor)); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvNoColor, err)
		}
		cfg.NoColor = v
	}
	return nil
}

// ParseLevel accepts zerolog level names, case-insensitive.
func ParseLevel(raw string) (zerolog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q", raw)
	}
	return lvl, nil
}

// ParseFormat validates an output format name.
func ParseFormat(raw string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case "json", "yaml", "cbor":
		return f, nil
	}
	return "", fmt.Errorf("invalid format %q (want json, yaml or cbor)", raw)
}
