// Package metrics exposes Prometheus collectors for the crawl engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP calls made by the access layer.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "policycrawler_http_requests_total",
		Help: "Total HTTP requests sent, labeled by source and outcome.",
	}, []string{"source", "outcome"})

	// RetriesTotal counts request attempts beyond the first.
	RetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "policycrawler_http_retries_total",
		Help: "Total HTTP request retries.",
	})

	// SessionRotationsTotal counts access-layer session refreshes.
	SessionRotationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "policycrawler_session_rotations_total",
		Help: "Total client session rotations.",
	})

	// RecordsTotal counts processed policy records by terminal status.
	RecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "policycrawler_records_total",
		Help: "Total policy records processed, labeled by status.",
	}, []string{"status"})

	// DownloadsTotal counts attachment downloads by outcome.
	DownloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "policycrawler_downloads_total",
		Help: "Total attachment downloads, labeled by outcome.",
	}, []string{"outcome"})

	// RunsTotal counts crawl runs by terminal status.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "policycrawler_runs_total",
		Help: "Total crawl runs, labeled by terminal status.",
	}, []string{"status"})
)
