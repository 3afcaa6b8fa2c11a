package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tucoroulette"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "submission",
			Name:      "total",
			Help:      "Bet submissions by outcome code.",
		},
		[]string{"kind", "outcome"},
	)

	submissionRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "submission",
			Name:      "retries_total",
			Help:      "Automatic resubmissions after congestion or underpricing.",
		},
		[]string{"kind"},
	)

	confirmationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "submission",
			Name:      "confirmation_seconds",
			Help:      "Time from broadcast to mined receipt.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~64s
		},
		[]string{"kind"},
	)

	pollTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "ticks_total",
			Help:      "Status poller ticks by outcome.",
		},
		[]string{"outcome"},
	)

	historySkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "history_skipped_total",
			Help:      "History fetches skipped for accounts without activity.",
		},
	)

	activePollers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "active",
			Help:      "Number of running status pollers.",
		},
	)

	interactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discord",
			Name:      "interactions_total",
			Help:      "Discord interactions handled, by command and result.",
		},
		[]string{"command", "result"},
	)
)

func init() {
	Registry.MustRegister(
		submissions,
		submissionRetries,
		confirmationLatency,
		pollTicks,
		historySkipped,
		activePollers,
		interactions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordSubmission counts a finished submission. kind is "bets", "approve" or "recover".
func RecordSubmission(kind, outcome string) {
	submissions.WithLabelValues(kind, outcome).Inc()
}

// RecordRetry counts one automatic resubmission.
func RecordRetry(kind string) {
	submissionRetries.WithLabelValues(kind).Inc()
}

// ObserveConfirmation records how long a receipt took to arrive.
func ObserveConfirmation(kind string, d time.Duration) {
	confirmationLatency.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordPollTick counts one poller iteration.
func RecordPollTick(outcome string) {
	pollTicks.WithLabelValues(outcome).Inc()
}

// RecordHistorySkipped counts a tick that did not need history.
func RecordHistorySkipped() {
	historySkipped.Inc()
}

// PollerStarted and PollerStopped track the running poller gauge.
func PollerStarted() { activePollers.Inc() }

func PollerStopped() { activePollers.Dec() }

// RecordInteraction counts a handled Discord interaction.
func RecordInteraction(command, result string) {
	interactions.WithLabelValues(command, result).Inc()
}
