// Package metrics exposes poll and watchdog counters in Prometheus format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitewatch"

// Recorder holds the run's collectors on a private registry
type Recorder struct {
	registry     *prometheus.Registry
	polls        *prometheus.CounterVec
	updates      prometheus.Counter
	recoveries   prometheus.Counter
	lastModified prometheus.Gauge
	stalls       prometheus.Counter
}

// NewRecorder creates and registers every collector for url
func NewRecorder(url string) *Recorder {
	constLabels := prometheus.Labels{"url": url}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "polls_total",
			Help:        "Fetches of the monitored URL by result.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "updates_total",
			Help:        "Detected changes of the last-modified timestamp.",
			ConstLabels: constLabels,
		}),
		recoveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "recoveries_total",
			Help:        "Successful polls that ended a run of failures.",
			ConstLabels: constLabels,
		}),
		lastModified: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_modified_timestamp_seconds",
			Help:        "Latest last-modified timestamp seen, as a Unix time.",
			ConstLabels: constLabels,
		}),
		stalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watchdog_stalls_total",
			Help:      "Stalls reported by the liveness watchdog.",
		}),
	}

	r.registry.MustRegister(r.polls, r.updates, r.recoveries, r.lastModified, r.stalls)
	// Pre-create both series so they are exported as zero.
	r.polls.WithLabelValues("success")
	r.polls.WithLabelValues("failure")
	return r
}

// Registry returns the registry the collectors live on
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) PollSucceeded(lastModified time.Time) {
	r.polls.WithLabelValues("success").Inc()
	if !lastModified.IsZero() {
		r.lastModified.Set(float64(lastModified.Unix()))
	}
}

func (r *Recorder) PollFailed() {
	r.polls.WithLabelValues("failure").Inc()
}

func (r *Recorder) UpdateDetected() {
	r.updates.Inc()
}

func (r *Recorder) Recovered() {
	r.recoveries.Inc()
}

func (r *Recorder) WatchdogStalled() {
	r.stalls.Inc()
}
