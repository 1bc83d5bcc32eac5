package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marvimarv/tunequest-card-creator/internal/musicbrainz"
)

// Metrics contains the Prometheus collectors of the lookup proxy.
type Metrics struct {
	lookups         *prometheus.CounterVec
	lookupAttempts  prometheus.Histogram
	cacheHits       prometheus.Counter
	requestDuration *prometheus.HistogramVec
	ingestStreams   prometheus.Gauge
}

// NewMetrics creates the proxy metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tunequest",
				Name:      "lookups_total",
				Help:      "Year lookups by outcome",
			},
			[]string{"outcome"}, // found, not_found, transient_failure, hard_failure
		),
		lookupAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "tunequest",
				Name:      "lookup_attempts",
				Help:      "Upstream attempts per lookup",
				Buckets:   prometheus.LinearBuckets(1, 1, 5),
			},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tunequest",
				Name:      "lookup_cache_hits_total",
				Help:      "Lookups answered from the response cache",
			},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tunequest",
				Name:      "http_request_duration_seconds",
				Help:      "Time taken for HTTP requests",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
			},
			[]string{"handler", "status_code"},
		),
		ingestStreams: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "tunequest",
				Name:      "ingest_streams_active",
				Help:      "Open ingestion websocket streams",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.lookups, m.lookupAttempts, m.cacheHits, m.requestDuration, m.ingestStreams} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveLookup records the outcome and attempt count of an upstream lookup.
func (m *Metrics) ObserveLookup(res musicbrainz.Result) {
	m.lookups.WithLabelValues(res.Outcome.String()).Inc()
	if res.Attempts > 0 {
		m.lookupAttempts.Observe(float64(res.Attempts))
	}
}

// Instrument times next under the given handler label.
func (m *Metrics) Instrument(handler string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		m.requestDuration.WithLabelValues(handler, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
