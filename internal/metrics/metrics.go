package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lotto_http_requests_total",
		Help: "Total HTTP requests by method, path and status",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lotto_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	ReadingsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lotto_readings_recorded_total",
		Help: "Ticket-count readings persisted, by source",
	}, []string{"source"})

	ReadingsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lotto_readings_rejected_total",
		Help: "Observations hard-rejected as out of range",
	})

	AnomaliesRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lotto_anomalies_raised_total",
		Help: "Anomalies detected, by type and severity",
	}, []string{"type", "severity"})

	AnomaliesClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lotto_anomalies_closed_total",
		Help: "Anomalies transitioned to a terminal state",
	}, []string{"status"})

	PostingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lotto_postings_total",
		Help: "Successful day-close postings, supersedes included",
	})

	PostingsBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lotto_postings_blocked_total",
		Help: "Posting attempts refused by the gate",
	})
)
