package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	Lookups      *prometheus.CounterVec
	Enrichments  *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_http_requests_total",
			Help: "Total HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookshelf_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"route"}),
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_openlibrary_lookups_total",
			Help: "Open Library calls by kind (edition, author) and outcome",
		}, []string{"kind", "outcome"}),
		Enrichments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_enrichments_total",
			Help: "Add-by-ISBN attempts by outcome",
		}, []string{"outcome"}),
	}
}

// RegisterCatalogSize exposes the number of catalog entries as reported by size.
func (m *Metrics) RegisterCatalogSize(size func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "bookshelf_catalog_books",
		Help: "Number of books currently in the catalog",
	}, func() float64 { return float64(size()) }))
}

func (m *Metrics) ObserveLookup(kind, outcome string) {
	m.Lookups.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveEnrichment(outcome string) {
	m.Enrichments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(route, method string, status int, start time.Time) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
