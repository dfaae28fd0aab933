// Package metrics records load and filter statistics for sttools using
// Prometheus metrics.
//
// # Overview
//
// A Collector owns a private registry so several collectors (one per CLI
// invocation or per test) never clash on registration. Batch jobs dump the
// registry with WriteTextfile for the node-exporter textfile collector.
//
// # Basic Usage
//
//	collector := metrics.NewCollector()
//	timer := metrics.NewTimer()
//	table, err := dump.Load(ctx, path, cfg, log)
//	collector.FileLoaded("dump", rowsOf(table), skippedOf(table), timer.Stop(), err)
//	_ = collector.WriteTextfile("/var/lib/node_exporter/sttools.prom")
//
// Every method is safe on a nil *Collector, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/ajitpratap0/sttools/pkg/errors"
)

const namespace = "sttools"

// Status label values
const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// Collector holds the sttools metrics and the registry they live in
type Collector struct {
	registry     *prometheus.Registry
	filesLoaded  *prometheus.CounterVec   // files by format and status
	rowsLoaded   *prometheus.CounterVec   // rows in loaded tables
	rowsSkipped  *prometheus.CounterVec   // lenient-mode skipped rows
	loadDuration *prometheus.HistogramVec // seconds per file
	filters      *prometheus.CounterVec   // filter calls by status
}

// NewCollector creates a collector with its own registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		filesLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_loaded_total",
				Help:      "Total number of files loaded",
			},
			[]string{"format", "status"},
		),
		rowsLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_loaded_total",
				Help:      "Total number of rows stored in loaded tables",
			},
			[]string{"format"},
		),
		rowsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_skipped_total",
				Help:      "Total number of malformed rows skipped in lenient mode",
			},
			[]string{"format"},
		),
		loadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "load_duration_seconds",
				Help:      "Time spent loading one file",
				Buckets: []float64{
					0.001, // small TFS tables
					0.01,
					0.1,
					1,  // typical dump files
					10, // large dumps, compressed inputs
					60,
				},
			},
			[]string{"format"},
		),
		filters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filter_total",
				Help:      "Total number of filter calls",
			},
			[]string{"status"},
		),
	}
	c.registry.MustRegister(c.filesLoaded, c.rowsLoaded, c.rowsSkipped, c.loadDuration, c.filters)
	return c
}

// FileLoaded records the outcome of one file load
func (c *Collector) FileLoaded(format string, rows, skipped int, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.filesLoaded.WithLabelValues(format, Status(err)).Inc()
	c.loadDuration.WithLabelValues(format).Observe(d.Seconds())
	if err != nil {
		return
	}
	c.rowsLoaded.WithLabelValues(format).Add(float64(rows))
	if skipped > 0 {
		c.rowsSkipped.WithLabelValues(format).Add(float64(skipped))
	}
}

// FilterApplied records the outcome of one filter call
func (c *Collector) FilterApplied(err error) {
	if c == nil {
		return
	}
	c.filters.WithLabelValues(Status(err)).Inc()
}

// Registry exposes the private registry, for example to serve it over HTTP
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Gather returns the current metric families
func (c *Collector) Gather() ([]*dto.MetricFamily, error) {
	if c == nil {
		return nil, nil
	}
	return c.registry.Gather()
}

// WriteTextfile writes the registry in the text exposition format. The
// file is written to a temporary name and renamed into place.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write metrics textfile").
			WithDetail("path", path)
	}
	return nil
}

// Status maps an error to a status label
func Status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.IsType(err, errors.ErrorTypeNotFound):
		return StatusNotFound
	default:
		return StatusError
	}
}

// Timer measures the duration of an operation.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation. It can be called
// several times.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
