package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"

	domainerrors "brokenpkg/internal/core/errors"
	"brokenpkg/internal/shared/util"
)

// Validate checks a defaulted configuration.
func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validatePacman,
		validateLinker,
		validateScan,
		validateWatch,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeValidationError, "invalid configuration")
		}
	}
	return nil
}

func validatePacman(cfg *Config) error {
	if strings.TrimSpace(cfg.Pacman.Binary) == "" {
		return fmt.Errorf("pacman.binary must not be empty")
	}
	if cfg.Pacman.Root != "" && !filepath.IsAbs(cfg.Pacman.Root) {
		return fmt.Errorf("pacman.root must be absolute, got %q", cfg.Pacman.Root)
	}
	if cfg.Pacman.DBPath != "" && !filepath.IsAbs(cfg.Pacman.DBPath) {
		return fmt.Errorf("pacman.db_path must be absolute, got %q", cfg.Pacman.DBPath)
	}
	return nil
}

func validateLinker(cfg *Config) error {
	if !filepath.IsAbs(cfg.Linker.LibDir) {
		return fmt.Errorf("linker.lib_dir must be absolute, got %q", cfg.Linker.LibDir)
	}
	if strings.Contains(cfg.Linker.Prefix, "/") {
		return fmt.Errorf("linker.prefix must be a file name prefix, got %q", cfg.Linker.Prefix)
	}
	return nil
}

func validateScan(cfg *Config) error {
	if cfg.Scan.ChunkSize < 1 {
		return fmt.Errorf("scan.chunk_size must be >= 1, got %d", cfg.Scan.ChunkSize)
	}
	if cfg.Scan.SpawnRate < 0 {
		return fmt.Errorf("scan.spawn_rate must be >= 0, got %v", cfg.Scan.SpawnRate)
	}
	if cfg.Scan.SpawnBurst < 0 {
		return fmt.Errorf("scan.spawn_burst must be >= 0, got %d", cfg.Scan.SpawnBurst)
	}
	for name, patterns := range map[string][]string{
		"scan.include_packages": cfg.Scan.IncludePackages,
		"scan.exclude_packages": cfg.Scan.ExcludePackages,
		"scan.ignore_files":     cfg.Scan.IgnoreFiles,
	} {
		if _, err := util.CompilePatterns(patterns); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", cfg.Watch.Debounce)
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if addr := cfg.Observability.MetricsAddr; addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("observability.metrics_addr %q: %w", addr, err)
		}
	}
	return nil
}

// Patterns compiles the scan globs. Validate has already rejected bad ones.
func (c *Config) Patterns() (include, exclude, ignore util.Patterns, err error) {
	if include, err = util.CompilePatterns(c.Scan.IncludePackages); err != nil {
		return
	}
	if exclude, err = util.CompilePatterns(c.Scan.ExcludePackages); err != nil {
		return
	}
	ignore, err = util.CompilePatterns(c.Scan.IgnoreFiles)
	return
}
