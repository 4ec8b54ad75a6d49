package parley

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the engine's instrumentation. All methods are safe on a
// nil receiver, so an Env without metrics costs nothing.
type Metrics struct {
	stepsStarted    prometheus.Counter
	stepsResolved   *prometheus.CounterVec
	messagesSent    prometheus.Counter
	seriesFinishedC *prometheus.CounterVec
	collectSeconds  prometheus.Histogram
}

// NewMetrics builds and registers the engine's collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stepsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parley",
			Name:      "steps_started_total",
			Help:      "Number of steps that began sending.",
		}),
		stepsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parley",
			Name:      "steps_resolved_total",
			Help:      "Number of resolved steps, by resolution reason.",
		}, []string{"reason"}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parley",
			Name:      "messages_sent_total",
			Help:      "Number of messages delivered on behalf of steps.",
		}),
		seriesFinishedC: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parley",
			Name:      "series_finished_total",
			Help:      "Number of terminated series, by outcome.",
		}, []string{"outcome"}),
		collectSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parley",
			Name:      "collect_duration_seconds",
			Help:      "Duration of input-collection phases.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 9),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.stepsStarted, m.stepsResolved, m.messagesSent, m.seriesFinishedC, m.collectSeconds)
	}
	return m
}

func (m *Metrics) stepStarted() {
	if m == nil {
		return
	}
	m.stepsStarted.Inc()
}

func (m *Metrics) stepResolved(reason string) {
	if m == nil {
		return
	}
	m.stepsResolved.WithLabelValues(reason).Inc()
}

func (m *Metrics) messageSent() {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
}

func (m *Metrics) seriesFinished(outcome string) {
	if m == nil {
		return
	}
	m.seriesFinishedC.WithLabelValues(outcome).Inc()
}

func (m *Metrics) collectFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.collectSeconds.Observe(d.Seconds())
}
