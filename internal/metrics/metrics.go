// Package metrics holds the Prometheus collectors of the notifier.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pool_notifier"

var (
	// Registry holds the notifier collectors.
	Registry = prometheus.NewRegistry()

	eventsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "received_total",
			Help:      "Pool events received from the chain adapter.",
		},
		[]string{"pool", "event"},
	)

	eventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Pool events whose primary notification was suppressed.",
		},
		[]string{"pool", "reason"},
	)

	eventsNotified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "notified_total",
			Help:      "Pool events composed into a notification.",
		},
		[]string{"pool", "event", "anomaly"},
	)

	pipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of valuation plus composition per event, by outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"event", "outcome"},
	)

	priceAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prices",
			Name:      "fetch_attempts_total",
			Help:      "Price service requests by outcome.",
		},
		[]string{"outcome"},
	)

	sends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channels",
			Name:      "sends_total",
			Help:      "Channel sends by channel and status.",
		},
		[]string{"channel", "status"},
	)
)

func init() {
	Registry.MustRegister(
		eventsReceived,
		eventsDropped,
		eventsNotified,
		pipelineDuration,
		priceAttempts,
		sends,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry over HTTP.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func EventReceived(pool, event string) {
	eventsReceived.WithLabelValues(pool, event).Inc()
}

func EventDropped(pool, reason string) {
	eventsDropped.WithLabelValues(pool, reason).Inc()
}

func EventNotified(pool, event string, anomaly bool) {
	label := "false"
	if anomaly {
		label = "true"
	}
	eventsNotified.WithLabelValues(pool, event, label).Inc()
}

// ObservePipeline records how long an event took to reach outcome, which is
// "notified" or the drop reason.
func ObservePipeline(event, outcome string, started time.Time) {
	pipelineDuration.WithLabelValues(event, outcome).Observe(time.Since(started).Seconds())
}

func PriceAttempt(outcome string) {
	priceAttempts.WithLabelValues(outcome).Inc()
}

func Send(channel string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	sends.WithLabelValues(channel, status).Inc()
}
