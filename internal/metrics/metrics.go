package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the archiver's Prometheus collectors. A nil *Metrics is
// valid and turns every observation into a no-op.
type Metrics struct {
	registry *prometheus.Registry

	eventsReceived   prometheus.Counter
	productsArchived prometheus.Counter
	archiveFailures  prometheus.Counter
	backfillRequests prometheus.Counter
}

// New registers the archiver collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	eventsReceived := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "archiver_events_received_total",
		Help: "Completion events received from the contract subscription",
	})
	productsArchived := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "archiver_products_archived_total",
		Help: "Products newly persisted to the archive",
	})
	archiveFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "archiver_archive_failures_total",
		Help: "Archive attempts that failed",
	})
	backfillRequests := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "archiver_backfill_requests_total",
		Help: "Manual backfill requests received",
	})

	registry.MustRegister(eventsReceived, productsArchived, archiveFailures, backfillRequests)

	return &Metrics{
		registry:         registry,
		eventsReceived:   eventsReceived,
		productsArchived: productsArchived,
		archiveFailures:  archiveFailures,
		backfillRequests: backfillRequests,
	}
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncEventsReceived() {
	if m != nil {
		m.eventsReceived.Inc()
	}
}

func (m *Metrics) IncProductsArchived() {
	if m != nil {
		m.productsArchived.Inc()
	}
}

func (m *Metrics) IncArchiveFailures() {
	if m != nil {
		m.archiveFailures.Inc()
	}
}

func (m *Metrics) IncBackfillRequests() {
	if m != nil {
		m.backfillRequests.Inc()
	}
}
