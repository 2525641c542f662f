// Package metrics holds the Prometheus collectors for draft persistence.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Write results.
const (
	ResultOK      = "ok"
	ResultCreated = "created"
	ResultUpdated = "updated"
	ResultSkipped = "skipped"
	ResultBusy    = "busy"
	ResultFailed  = "failed"
)

// Persistence groups the autosave and finalize collectors.
// A nil *Persistence is valid and records nothing.
type Persistence struct {
	checkpoints *prometheus.CounterVec
	finalizes   *prometheus.CounterVec
	writeTime   *prometheus.HistogramVec
	openEdits   prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Persistence {
	f := promauto.With(reg)
	return &Persistence{
		// checkpoints counts autosave ticks by outcome
		checkpoints: f.NewCounterVec(prometheus.CounterOpts{
			Name: "thoughts_checkpoints_total",
			Help: "Autosave ticks by result",
		}, []string{"result"}),

		finalizes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "thoughts_finalize_total",
			Help: "Finalize attempts by result",
		}, []string{"result"}),

		writeTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "thoughts_store_write_seconds",
			Help:    "Record store write latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		}, []string{"op"}),

		openEdits: f.NewGauge(prometheus.GaugeOpts{
			Name: "thoughts_open_sessions",
			Help: "Edit sessions currently open",
		}),
	}
}

// Checkpoint records one autosave tick outcome.
func (p *Persistence) Checkpoint(result string) {
	if p == nil {
		return
	}
	p.checkpoints.WithLabelValues(result).Inc()
}

// Finalize records one finalize outcome.
func (p *Persistence) Finalize(result string) {
	if p == nil {
		return
	}
	p.finalizes.WithLabelValues(result).Inc()
}

// ObserveWrite records store write latency for op ("create" or "update").
func (p *Persistence) ObserveWrite(op string, seconds float64) {
	if p == nil {
		return
	}
	p.writeTime.WithLabelValues(op).Observe(seconds)
}

// SessionOpened and SessionClosed track the open-session gauge.
func (p *Persistence) SessionOpened() {
	if p == nil {
		return
	}
	p.openEdits.Inc()
}

func (p *Persistence) SessionClosed() {
	if p == nil {
		return
	}
	p.openEdits.Dec()
}
