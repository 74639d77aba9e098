// Package metrics registers Prometheus collectors for the scan pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_runs_total",
		Help: "All-users scan sweeps executed",
	})
	UsersScanned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_users_total",
		Help: "Per-user scans executed (skips excluded)",
	})
	TicketsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_tickets_created_total",
		Help: "Tickets created by the reconciler",
	})
	ScanJobErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_job_errors_total",
		Help: "Per-job extraction/scoring/processing failures",
	})
	ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scan_sweep_seconds",
		Help:    "Duration of a full all-users sweep",
		Buckets: prometheus.DefBuckets,
	})

	LLMRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_request_duration_seconds",
		Help:    "Duration of LLM collaborator calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	EmailsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Emails handed to the delivery provider",
	}, []string{"kind", "status"})
)

// MustRegister registers all collectors on the given registerer.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		ScansTotal,
		UsersScanned,
		TicketsCreated,
		ScanJobErrors,
		ScanDuration,
		LLMRequestDuration,
		EmailsSent,
	)
}

// Handler returns the /metrics endpoint for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveLLMRequest records one LLM call outcome.
func ObserveLLMRequest(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	LLMRequestDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// ObserveEmail records one send attempt.
func ObserveEmail(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EmailsSent.WithLabelValues(kind, status).Inc()
}
