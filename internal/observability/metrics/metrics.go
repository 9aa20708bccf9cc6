// Package metrics provides Prometheus instrumentation for the OnePage API.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled  bool
	initOnce sync.Once

	// HTTP metrics
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	// Registration metrics
	signupTotal       *prometheus.CounterVec
	verificationTotal *prometheus.CounterVec

	// Chain metrics
	chainTxTotal *prometheus.CounterVec
)

// Init initializes the metrics system. Collectors are registered once per
// process; later calls only toggle recording.
func Init(enabledFlag bool) {
	enabled = enabledFlag
	if !enabled {
		return
	}

	initOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		)

		httpDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		)

		signupTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signup_total",
				Help: "Total number of signup attempts by outcome",
			},
			[]string{"result"},
		)

		verificationTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_total",
				Help: "Total number of email verification attempts by outcome",
			},
			[]string{"result"},
		)

		chainTxTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chain_tx_total",
				Help: "Total number of liquidity contract transactions",
			},
			[]string{"method", "result"},
		)
	})
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	if !enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.Handler()
}

// Enabled returns whether metrics are enabled.
func Enabled() bool {
	return enabled
}

// RecordSignup counts a signup attempt. result is "ok" or an error class.
func RecordSignup(result string) {
	if !enabled {
		return
	}
	signupTotal.WithLabelValues(result).Inc()
}

// RecordVerification counts a verify attempt.
func RecordVerification(result string) {
	if !enabled {
		return
	}
	verificationTotal.WithLabelValues(result).Inc()
}

// RecordChainTx counts a contract submission.
func RecordChainTx(method, result string) {
	if !enabled {
		return
	}
	chainTxTotal.WithLabelValues(method, result).Inc()
}
