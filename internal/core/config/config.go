package config

import (
	"time"
)

type Config struct {
	Pacman        Pacman        `toml:"pacman"`
	Linker        Linker        `toml:"linker"`
	Scan          Scan          `toml:"scan"`
	Output        Output        `toml:"output"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Pacman struct {
	Binary string `toml:"binary"`
	// Root and DBPath override the values reported by pacman --verbose.
	Root   string `toml:"root"`
	DBPath string `toml:"db_path"`
}

type Linker struct {
	LibDir string `toml:"lib_dir"`
	Prefix string `toml:"prefix"`
}

type Scan struct {
	ChunkSize       int      `toml:"chunk_size"`
	IncludePackages []string `toml:"include_packages"`
	ExcludePackages []string `toml:"exclude_packages"`
	IgnoreFiles     []string `toml:"ignore_files"`
	// SpawnRate limits child processes per second; zero means unlimited.
	SpawnRate  float64 `toml:"spawn_rate"`
	SpawnBurst int     `toml:"spawn_burst"`
}

type Output struct {
	Colors *bool `toml:"colors"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Observability struct {
	MetricsTextfile string `toml:"metrics_textfile"`
	MetricsAddr     string `toml:"metrics_addr"`
	OTLPEndpoint    string `toml:"otlp_endpoint"`
}

const (
	DefaultBinary    = "pacman"
	DefaultLibDir    = "/lib"
	DefaultPrefix    = "ld-linux"
	DefaultChunkSize = 256
	DefaultDebounce  = 500 * time.Millisecond
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// ColorsEnabled reports whether colored output is on. Colors default to on.
func (c *Config) ColorsEnabled() bool {
	return c.Output.Colors == nil || *c.Output.Colors
}

// SetColors records an explicit color choice.
func (c *Config) SetColors(enabled bool) {
	c.Output.Colors = &enabled
}
