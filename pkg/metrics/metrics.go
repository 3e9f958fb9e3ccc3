// Package metrics exposes detector and alert counters to Prometheus.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/phoneguard/pkg/focus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Frame pipeline
	FramesCaptured  atomic.Uint64
	FramesDropped   atomic.Uint64
	CaptureErrors   atomic.Uint64
	DetectionErrors atomic.Uint64

	// Debounce
	SamplesObserved  atomic.Uint64
	SamplesPositive  atomic.Uint64
	SamplesDiscarded atomic.Uint64
	Count            atomic.Int64

	// Alerts
	AlertsStarted atomic.Uint64
	AlertsFailed  atomic.Uint64
	Dismissals    atomic.Uint64
	Quits         atomic.Uint64
	Alerting      atomic.Uint64 // 0 = monitoring, 1 = alerting

	detectLatency prometheus.Histogram
	registry      *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		detectLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "phoneguard_detection_seconds",
			Help:    "Detector inference latency",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
	}

	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) counter(name, help string, v *atomic.Uint64) {
	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{Name: name, Help: help},
		func() float64 { return float64(v.Load()) },
	))
}

func (m *Metrics) registerPrometheusMetrics() {
	m.counter("phoneguard_frames_captured_total", "Frames read from the camera", &m.FramesCaptured)
	m.counter("phoneguard_frames_dropped_total", "Samples replaced before the controller consumed them", &m.FramesDropped)
	m.counter("phoneguard_capture_errors_total", "Camera read errors", &m.CaptureErrors)
	m.counter("phoneguard_detection_errors_total", "Detector errors", &m.DetectionErrors)
	m.counter("phoneguard_samples_observed_total", "Samples fed to the controller", &m.SamplesObserved)
	m.counter("phoneguard_samples_positive_total", "Samples with the target present", &m.SamplesPositive)
	m.counter("phoneguard_samples_discarded_total", "Samples dropped while alerting", &m.SamplesDiscarded)
	m.counter("phoneguard_alerts_started_total", "Alerts shown", &m.AlertsStarted)
	m.counter("phoneguard_alerts_failed_total", "Alerts aborted for lack of images", &m.AlertsFailed)
	m.counter("phoneguard_dismissals_total", "Alerts dismissed by the user", &m.Dismissals)
	m.counter("phoneguard_quits_total", "Quit requests", &m.Quits)

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "phoneguard_alerting",
			Help: "1 while an alert is shown",
		},
		func() float64 { return float64(m.Alerting.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "phoneguard_persistence_count",
			Help: "Current run of consecutive positive samples",
		},
		func() float64 { return float64(m.Count.Load()) },
	))

	m.registry.MustRegister(m.detectLatency)
}

// ObserveDetection records one detector run.
func (m *Metrics) ObserveDetection(d time.Duration) {
	m.detectLatency.Observe(d.Seconds())
}

// ObserveSample records a sample and the resulting counter value.
func (m *Metrics) ObserveSample(s focus.Sample, count int) {
	m.SamplesObserved.Add(1)
	if s.Present {
		m.SamplesPositive.Add(1)
	}
	m.Count.Store(int64(count))
}

// OnEvent is a focus.Controller listener.
func (m *Metrics) OnEvent(ev focus.Event) {
	switch ev.Kind {
	case focus.EventAlertStarted:
		m.AlertsStarted.Add(1)
		m.Alerting.Store(1)
		m.Count.Store(0)
	case focus.EventAlertFailed:
		m.AlertsFailed.Add(1)
		m.Count.Store(0)
	case focus.EventResumed:
		m.Dismissals.Add(1)
		m.Alerting.Store(0)
	case focus.EventTerminate:
		m.Quits.Add(1)
		m.Alerting.Store(0)
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
