// Package metrics exports wipe progress as Prometheus metrics in the
// node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"devwipe/wipe"
)

// Exporter is a wipe.Reporter that mirrors progress into a private
// registry and rewrites the textfile at the end of every pass.
type Exporter struct {
	path     string
	registry *prometheus.Registry

	bytesWritten    prometheus.Counter
	passesCompleted prometheus.Counter
	currentPass     prometheus.Gauge
	passProgress    prometheus.Gauge
	totalETA        prometheus.Gauge
	passDuration    prometheus.Histogram

	lastTotal  uint64
	passStart  time.Duration
	writeError error
}

var _ wipe.Reporter = (*Exporter)(nil)

// NewExporter creates an Exporter writing to path. Every series carries
// the run id and the device path as constant labels.
func NewExporter(path string, runID uuid.UUID, device string, passes int) *Exporter {
	labels := prometheus.Labels{"run_id": runID.String(), "device": device}
	e := &Exporter{
		path:     path,
		registry: prometheus.NewRegistry(),
		bytesWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace:   "devwipe",
				Subsystem:   "wipe",
				Name:        "bytes_written_total",
				Help:        "Number of bytes overwritten on the device, summed over all passes.",
				ConstLabels: labels,
			}),
		passesCompleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace:   "devwipe",
				Subsystem:   "wipe",
				Name:        "passes_completed_total",
				Help:        "Number of passes that were written and flushed completely.",
				ConstLabels: labels,
			}),
		currentPass: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   "devwipe",
				Subsystem:   "wipe",
				Name:        "current_pass",
				Help:        "1-based index of the pass that is being written.",
				ConstLabels: labels,
			}),
		passProgress: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   "devwipe",
				Subsystem:   "wipe",
				Name:        "pass_progress_ratio",
				Help:        "Fraction of the device overwritten by the current pass.",
				ConstLabels: labels,
			}),
		totalETA: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   "devwipe",
				Subsystem:   "wipe",
				Name:        "eta_seconds",
				Help:        "Estimated time until the whole run completes, or -1 while unknown.",
				ConstLabels: labels,
			}),
		passDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   "devwipe",
				Subsystem:   "wipe",
				Name:        "pass_duration_seconds",
				Help:        "Amount of time spent per pass, in seconds.",
				Buckets:     prometheus.ExponentialBuckets(1, 4, 10),
				ConstLabels: labels,
			}),
	}
	passesTotal := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "devwipe",
			Subsystem:   "wipe",
			Name:        "passes",
			Help:        "Number of passes planned for the run.",
			ConstLabels: labels,
		})
	passesTotal.Set(float64(passes))

	e.registry.MustRegister(
		e.bytesWritten,
		e.passesCompleted,
		e.currentPass,
		e.passProgress,
		e.totalETA,
		e.passDuration,
		passesTotal,
	)
	return e
}

// PassStarted implements wipe.Reporter.
func (e *Exporter) PassStarted(s wipe.Status) {
	e.passStart = s.Elapsed
	e.currentPass.Set(float64(s.Pass))
	e.passProgress.Set(0)
	e.observe(s)
}

// Report implements wipe.Reporter.
func (e *Exporter) Report(s wipe.Status) {
	e.observe(s)
}

// PassFinished implements wipe.Reporter.
func (e *Exporter) PassFinished(s wipe.Status) {
	e.observe(s)
}

// PassCompleted implements wipe.Reporter. The textfile is rewritten once
// a pass has been flushed, write errors are kept for Err.
func (e *Exporter) PassCompleted(s wipe.Status) {
	e.observe(s)
	e.passesCompleted.Inc()
	e.passDuration.Observe((s.Elapsed - e.passStart).Seconds())
	if err := prometheus.WriteToTextfile(e.path, e.registry); err != nil && e.writeError == nil {
		e.writeError = err
	}
}

// Err returns the first error encountered while writing the textfile.
func (e *Exporter) Err() error {
	return e.writeError
}

func (e *Exporter) observe(s wipe.Status) {
	if s.TotalDone > e.lastTotal {
		e.bytesWritten.Add(float64(s.TotalDone - e.lastTotal))
		e.lastTotal = s.TotalDone
	}
	e.passProgress.Set(s.Percent / 100)
	if s.TotalETA == wipe.UnknownETA {
		e.totalETA.Set(-1)
	} else {
		e.totalETA.Set(s.TotalETA.Seconds())
	}
}
