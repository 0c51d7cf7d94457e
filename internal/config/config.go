// Package config loads server configuration from built-in defaults, an
// optional sqlite-viewer.yaml next to the binary, environment variables
// and command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is the optional config file looked up next to the binary.
const ConfigFileName = "sqlite-viewer.yaml"

// Default values applied before any other configuration source.
const (
	DefaultHost      = "127.0.0.1"
	DefaultPort      = 8000
	DefaultPublicDir = "public"
	DefaultDataDir   = "data"
)

// Config holds the runtime configuration for the viewer.
type Config struct {
	Host      string `koanf:"host"`
	Port      int    `koanf:"port"`
	PublicDir string `koanf:"public_dir"`
	DataDir   string `koanf:"data_dir"`
	Verbose   bool   `koanf:"verbose"`
}

// Load assembles the configuration. flags may be nil; only flags the user
// actually set override earlier sources.
func Load(flags *pflag.FlagSet) (*Config, error) {
	base := baseDir()
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"host":       DefaultHost,
		"port":       DefaultPort,
		"public_dir": DefaultPublicDir,
		"data_dir":   DefaultDataDir,
		"verbose":    false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	cfgFile := filepath.Join(base, ConfigFileName)
	if _, err := os.Stat(cfgFile); err == nil {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.PublicDir = resolveRelativeTo(cfg.PublicDir, base)
	cfg.DataDir = resolveRelativeTo(cfg.DataDir, base)
	return &cfg, nil
}

// envKey maps environment variables to config keys. HOST and PORT are
// honored bare; everything else needs the SQLITE_VIEWER_ prefix. An
// empty return tells koanf to skip the variable.
func envKey(s string) string {
	switch s {
	case "HOST":
		return "host"
	case "PORT":
		return "port"
	}
	if rest, ok := strings.CutPrefix(s, "SQLITE_VIEWER_"); ok {
		return strings.ToLower(rest)
	}
	return ""
}

// baseDir anchors relative paths next to the binary, which is where the
// UI bundle and the data directory live. Falls back to the working
// directory when the executable path cannot be determined.
func baseDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

func resolveRelativeTo(path, base string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
