package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mnr-tools/policy-crawler/internal/progress"
)

// PrometheusSink exports run-level progress metrics. It owns the collectors
// for runs started/completed/running and per-source record counters; the
// lower-level HTTP counters live in the metrics package.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runsRunning   prometheus.Gauge
	runRuntime    *prometheus.HistogramVec

	recordsDone *prometheus.CounterVec

	tracker *runTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "policycrawler_runs_started_total",
			Help: "Total crawl runs that have started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "policycrawler_runs_completed_total",
			Help: "Total crawl runs completed partitioned by terminal status.",
		}, []string{"status"}),
		runsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "policycrawler_runs_running",
			Help: "Current number of running crawl runs.",
		}),
		runRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "policycrawler_run_runtime_seconds",
			Help:    "Wall time per completed crawl run.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"status"}),
		recordsDone: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "policycrawler_records_processed_total",
			Help: "Policy records processed partitioned by source and result.",
		}, []string{"source", "result"}),
		tracker: newRunTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runsRunning,
		s.runRuntime,
		s.recordsDone,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the event.
func (s *PrometheusSink) Consume(_ context.Context, evt progress.Event) error {
	switch evt.Kind {
	case progress.KindRunStart:
		s.runsStarted.Inc()
		if s.tracker.start(evt.RunID.String()) {
			s.runsRunning.Inc()
		}
	case progress.KindRunDone:
		status := evt.Status
		if status == "" {
			status = "unknown"
		}
		s.runsCompleted.WithLabelValues(status).Inc()
		if evt.Dur > 0 {
			s.runRuntime.WithLabelValues(status).Observe(evt.Dur.Seconds())
		}
		if s.tracker.complete(evt.RunID.String()) {
			s.runsRunning.Dec()
		}
	case progress.KindRecordDone:
		s.recordsDone.WithLabelValues(sourceLabel(evt), "success").Inc()
	case progress.KindRecordFailed:
		s.recordsDone.WithLabelValues(sourceLabel(evt), "failure").Inc()
	}
	return nil
}

func sourceLabel(evt progress.Event) string {
	if evt.Source == "" {
		return "unknown"
	}
	return evt.Source
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

type runTracker struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newRunTracker() *runTracker {
	return &runTracker{running: make(map[string]struct{})}
}

func (t *runTracker) start(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *runTracker) complete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; !ok {
		return false
	}
	delete(t.running, id)
	return true
}
