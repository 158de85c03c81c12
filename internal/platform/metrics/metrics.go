package metrics

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests and multiple servers in one
// process never collide on metric names. All recording methods are safe on
// a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	PatientsCreatedTotal     prometheus.Counter
	AppointmentsCreatedTotal *prometheus.CounterVec
	ExpensesCreatedTotal     prometheus.Counter
	ReportsRenderedTotal     prometheus.Counter
	LoginAttemptsTotal       *prometheus.CounterVec
	PostalCodeLookupsTotal   *prometheus.CounterVec
	BlobsStoredTotal         *prometheus.CounterVec
}

func NewCollector(serviceName string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route", "status"}),

		InFlightGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		PatientsCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "practice",
			Name:      "patients_created_total",
			Help:      "Total number of patient records created.",
		}),

		AppointmentsCreatedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "practice",
			Name:      "appointments_created_total",
			Help:      "Total appointments created by patient category.",
		}, []string{"category"}),

		ExpensesCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "practice",
			Name:      "expenses_created_total",
			Help:      "Total expenses recorded.",
		}),

		ReportsRenderedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "practice",
			Name:      "reports_rendered_total",
			Help:      "Total report previews rendered.",
		}),

		LoginAttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Sign-in attempts by result.",
		}, []string{"result"}),

		PostalCodeLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "postalcode",
			Name:      "lookups_total",
			Help:      "Postal-code lookups by outcome.",
		}, []string{"outcome"}),

		BlobsStoredTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "blob",
			Name:      "stored_total",
			Help:      "Files stored by category.",
		}, []string{"category"}),
	}
}

// Registry exposes the private registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RegisterPool exports pgx pool gauges that are read at scrape time.
func (c *Collector) RegisterPool(namespace string, pool *pgxpool.Pool) {
	factory := promauto.With(c.registry)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "open_connections",
		Help:      "Current number of open database connections.",
	}, func() float64 { return float64(pool.Stat().TotalConns()) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "acquired_connections",
		Help:      "Connections currently checked out of the pool.",
	}, func() float64 { return float64(pool.Stat().AcquiredConns()) })
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) PatientCreated() {
	if c == nil {
		return
	}
	c.PatientsCreatedTotal.Inc()
}

func (c *Collector) AppointmentsCreated(category string, n int) {
	if c == nil {
		return
	}
	c.AppointmentsCreatedTotal.WithLabelValues(category).Add(float64(n))
}

func (c *Collector) ExpenseCreated() {
	if c == nil {
		return
	}
	c.ExpensesCreatedTotal.Inc()
}

func (c *Collector) ReportRendered() {
	if c == nil {
		return
	}
	c.ReportsRenderedTotal.Inc()
}

func (c *Collector) LoginAttempt(result string) {
	if c == nil {
		return
	}
	c.LoginAttemptsTotal.WithLabelValues(result).Inc()
}

func (c *Collector) PostalCodeLookup(outcome string) {
	if c == nil {
		return
	}
	c.PostalCodeLookupsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) BlobStored(category string) {
	if c == nil {
		return
	}
	c.BlobsStoredTotal.WithLabelValues(category).Inc()
}
