package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads, defaults and validates the TOML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		slog.Warn("unknown config keys ignored", "path", path, "keys", strings.Join(keys, ","))
	}

	applyDefaults(&cfg)
	normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOptional loads path when it exists. A missing file yields the defaults
// unless required is set.
func LoadOptional(path string, required bool) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			slog.Debug("no config file", "path", path)
			return Default(), nil
		}
		return nil, err
	}
	slog.Debug("config loaded", "path", path)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Pacman.Binary) == "" {
		cfg.Pacman.Binary = DefaultBinary
	}
	if strings.TrimSpace(cfg.Linker.LibDir) == "" {
		cfg.Linker.LibDir = DefaultLibDir
	}
	if strings.TrimSpace(cfg.Linker.Prefix) == "" {
		cfg.Linker.Prefix = DefaultPrefix
	}
	if cfg.Scan.ChunkSize == 0 {
		cfg.Scan.ChunkSize = DefaultChunkSize
	}
	if cfg.Scan.SpawnRate > 0 && cfg.Scan.SpawnBurst == 0 {
		cfg.Scan.SpawnBurst = 1
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}
}

func normalize(cfg *Config) {
	cfg.Pacman.Binary = strings.TrimSpace(cfg.Pacman.Binary)
	cfg.Pacman.Root = strings.TrimSpace(cfg.Pacman.Root)
	cfg.Pacman.DBPath = strings.TrimSpace(cfg.Pacman.DBPath)
	cfg.Linker.LibDir = strings.TrimSpace(cfg.Linker.LibDir)
	cfg.Linker.Prefix = strings.TrimSpace(cfg.Linker.Prefix)
	cfg.Observability.MetricsTextfile = strings.TrimSpace(cfg.Observability.MetricsTextfile)
	cfg.Observability.MetricsAddr = strings.TrimSpace(cfg.Observability.MetricsAddr)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
	cfg.Scan.IncludePackages = normalizeList(cfg.Scan.IncludePackages)
	cfg.Scan.ExcludePackages = normalizeList(cfg.Scan.ExcludePackages)
	cfg.Scan.IgnoreFiles = normalizeList(cfg.Scan.IgnoreFiles)
}

func normalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
