package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: BROKENPKG_[SECTION]_[KEY] (e.g., BROKENPKG_PACMAN_DB_PATH).
// List values are comma separated.
func ApplyEnvOverrides(cfg *Config) {
	// Pacman
	setEnvString(&cfg.Pacman.Binary, "BROKENPKG_PACMAN_BINARY")
	setEnvString(&cfg.Pacman.Root, "BROKENPKG_PACMAN_ROOT")
	setEnvString(&cfg.Pacman.DBPath, "BROKENPKG_PACMAN_DB_PATH")

	// Linker
	setEnvString(&cfg.Linker.LibDir, "BROKENPKG_LINKER_LIB_DIR")
	setEnvString(&cfg.Linker.Prefix, "BROKENPKG_LINKER_PREFIX")

	// Scan
	setEnvInt(&cfg.Scan.ChunkSize, "BROKENPKG_SCAN_CHUNK_SIZE")
	setEnvList(&cfg.Scan.IncludePackages, "BROKENPKG_SCAN_INCLUDE_PACKAGES")
	setEnvList(&cfg.Scan.ExcludePackages, "BROKENPKG_SCAN_EXCLUDE_PACKAGES")
	setEnvList(&cfg.Scan.IgnoreFiles, "BROKENPKG_SCAN_IGNORE_FILES")
	setEnvFloat64(&cfg.Scan.SpawnRate, "BROKENPKG_SCAN_SPAWN_RATE")
	setEnvInt(&cfg.Scan.SpawnBurst, "BROKENPKG_SCAN_SPAWN_BURST")

	// Output
	if val, ok := os.LookupEnv("BROKENPKG_OUTPUT_COLORS"); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", "BROKENPKG_OUTPUT_COLORS", "value", val)
			cfg.SetColors(b)
		}
	}

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "BROKENPKG_WATCH_DEBOUNCE")

	// Observability
	setEnvString(&cfg.Observability.MetricsTextfile, "BROKENPKG_OBSERVABILITY_METRICS_TEXTFILE")
	setEnvString(&cfg.Observability.MetricsAddr, "BROKENPKG_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "BROKENPKG_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = strings.TrimSpace(val)
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = normalizeList(strings.Split(val, ","))
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
