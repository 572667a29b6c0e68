package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics mirrors the counter/histogram pair authzed-spicedb registers
// next to its Spanner datastore (internal/datastore/spanner/spanner.go):
// a count of backend sessions opened, labeled by outcome (the backend
// name, or "error" when dialing failed), and a histogram of backend query
// latency. Session closes are not counted. No HTTP exporter is wired up here — callers that want these
// scraped register prometheus.DefaultRegisterer with their own handler.
var (
	sessionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pgproxy",
		Name:      "sessions_total",
		Help:      "Backend sessions opened, partitioned by outcome.",
	}, []string{"outcome"})

	queryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pgproxy",
		Name:      "backend_query_duration_seconds",
		Help:      "Latency of Query/Execute calls against the backend client.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "op"})
)

func init() {
	prometheus.MustRegister(sessionsTotal, queryDuration)
}

// recordSessionOpened counts one backend dial, labeled by its outcome.
func recordSessionOpened(outcome string) { sessionsTotal.WithLabelValues(outcome).Inc() }

// observeQuery times a single Query or Execute call.
func observeQuery(backendName, op string, start time.Time) {
	queryDuration.WithLabelValues(backendName, op).Observe(time.Since(start).Seconds())
}
