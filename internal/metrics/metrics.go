// Package metrics exposes Prometheus collectors for the crawl engine.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesFetchedTotal   *prometheus.CounterVec
	bytesFetchedTotal   *prometheus.CounterVec
	fetchErrorsTotal    *prometheus.CounterVec
	unitsProcessedTotal *prometheus.CounterVec
	crawlRunsTotal      *prometheus.CounterVec
	rateLimitDelay      *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors. It is safe to call multiple times.
func Init() {
	once.Do(func() {
		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volleycrawl_pages_fetched_total",
				Help: "Pages fetched, labeled by source.",
			},
			[]string{"source"},
		)
		bytesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volleycrawl_bytes_fetched_total",
				Help: "Decoded page bytes fetched, labeled by source.",
			},
			[]string{"source"},
		)
		fetchErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volleycrawl_fetch_errors_total",
				Help: "Fetch failures, labeled by source and error kind.",
			},
			[]string{"source", "kind"},
		)
		unitsProcessedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volleycrawl_units_processed_total",
				Help: "Crawl work units processed, labeled by source and result.",
			},
			[]string{"source", "result"},
		)
		crawlRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volleycrawl_crawl_runs_total",
				Help: "Completed crawl runs, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)
		rateLimitDelay = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volleycrawl_rate_limit_delay_seconds",
				Help:    "Delay introduced by the per-source rate limiter.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"source"},
		)
	})
}

// ObservePage records a successful fetch.
func ObservePage(source string, bytes int) {
	if pagesFetchedTotal == nil {
		return
	}
	pagesFetchedTotal.WithLabelValues(source).Inc()
	bytesFetchedTotal.WithLabelValues(source).Add(float64(bytes))
}

// ObserveFetchError records a failed fetch by error kind.
func ObserveFetchError(source, kind string) {
	if fetchErrorsTotal == nil {
		return
	}
	fetchErrorsTotal.WithLabelValues(source, kind).Inc()
}

// ObserveUnit records a processed work unit by result.
func ObserveUnit(source, result string) {
	if unitsProcessedTotal == nil {
		return
	}
	unitsProcessedTotal.WithLabelValues(source, result).Inc()
}

// ObserveCrawlRun records a finished crawl by outcome.
func ObserveCrawlRun(source, outcome string) {
	if crawlRunsTotal == nil {
		return
	}
	crawlRunsTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveRateLimitDelay records time spent waiting on the limiter.
func ObserveRateLimitDelay(source string, d time.Duration) {
	if rateLimitDelay == nil {
		return
	}
	rateLimitDelay.WithLabelValues(source).Observe(d.Seconds())
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
