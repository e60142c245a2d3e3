package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ProcessSpawnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brokenpkg_process_spawns_total",
		Help: "Total number of child processes started, by command.",
	}, []string{"command"})

	ProcessSpawnFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brokenpkg_process_spawn_failures_total",
		Help: "Total number of child processes that could not be started or reaped.",
	}, []string{"command"})

	ProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "brokenpkg_process_seconds",
		Help:    "Wall time from spawn to reap of a child process.",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})

	PackagesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brokenpkg_packages_scanned_total",
		Help: "Total number of packages whose file list was inspected.",
	})

	PackageQueryErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brokenpkg_package_query_errors_total",
		Help: "Total number of packages skipped because the package database lookup failed.",
	})

	FilesCheckedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brokenpkg_files_checked_total",
		Help: "Total number of ELF executables handed to the dynamic linker.",
	})

	BrokenFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brokenpkg_broken_files_total",
		Help: "Total number of executables with unresolved shared library dependencies.",
	})

	BrokenPackages = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "brokenpkg_broken_packages",
		Help: "Number of broken packages found by the most recent scan.",
	})

	LinkerNotFoundTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brokenpkg_linker_not_found_total",
		Help: "Total number of ELF files skipped because no dynamic linker accepted them.",
	})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "brokenpkg_scan_seconds",
		Help:    "Time spent on a full foreign package scan.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brokenpkg_watcher_events_total",
		Help: "Total number of package database events received by the watcher.",
	})
)

// WriteTextfile dumps the default registry in the text exposition format, for
// node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
