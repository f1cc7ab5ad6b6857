package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор метрик сервиса
// Все методы безопасны для nil-получателя: если метрики выключены, вызовы игнорируются
type Metrics struct {
	service string

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueryDuration *prometheus.HistogramVec
	dbQueryErrors   *prometheus.CounterVec
	dbConnections   *prometheus.GaugeVec

	bookingsCreated      *prometheus.CounterVec
	statusTransitions    *prometheus.CounterVec
	availabilityDegraded *prometheus.CounterVec
	calendarSync         *prometheus.CounterVec
	calendarSyncFatal    *prometheus.CounterVec
	outboxDeliveries     *prometheus.CounterVec
}

// New создает метрики и регистрирует их в DefaultRegisterer
func New(serviceName string) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegistry создает метрики в переданном регистре (используется в тестах)
func NewWithRegistry(reg prometheus.Registerer, serviceName string) *Metrics {
	m := &Metrics{
		service: serviceName,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "route"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"service", "operation"}),
		dbQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of failed database queries",
		}, []string{"service", "operation"}),
		dbConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_connections",
			Help: "Database connection pool state",
		}, []string{"service", "state"}),
		bookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Booking creation attempts by result",
		}, []string{"service", "result"}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_status_transitions_total",
			Help: "Committed booking status transitions",
		}, []string{"service", "from", "to"}),
		availabilityDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "availability_degraded_total",
			Help: "Claimed slot lookups answered with an empty set because storage failed",
		}, []string{"service"}),
		calendarSync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calendar_sync_total",
			Help: "External calendar operations by result",
		}, []string{"service", "operation", "result"}),
		calendarSyncFatal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calendar_sync_fatal_total",
			Help: "Local reference updates that failed after a successful external mutation",
		}, []string{"service"}),
		outboxDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_deliveries_total",
			Help: "Outbox entries processed by result",
		}, []string{"service", "result"}),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.dbQueryDuration,
		m.dbQueryErrors,
		m.dbConnections,
		m.bookingsCreated,
		m.statusTransitions,
		m.availabilityDegraded,
		m.calendarSync,
		m.calendarSyncFatal,
		m.outboxDeliveries,
	)

	return m
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(m.service, method, route, statusLabel(status)).Inc()
	m.httpRequestDuration.WithLabelValues(m.service, method, route).Observe(duration.Seconds())
}

func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(m.service, operation).Observe(duration.Seconds())
	if err != nil {
		m.dbQueryErrors.WithLabelValues(m.service, operation).Inc()
	}
}

func (m *Metrics) SetDBConnections(state string, value int) {
	if m == nil {
		return
	}
	m.dbConnections.WithLabelValues(m.service, state).Set(float64(value))
}

func (m *Metrics) IncBookingCreated(result string) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(m.service, result).Inc()
}

func (m *Metrics) IncStatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(m.service, from, to).Inc()
}

func (m *Metrics) IncAvailabilityDegraded() {
	if m == nil {
		return
	}
	m.availabilityDegraded.WithLabelValues(m.service).Inc()
}

func (m *Metrics) IncCalendarSync(operation, result string) {
	if m == nil {
		return
	}
	m.calendarSync.WithLabelValues(m.service, operation, result).Inc()
}

func (m *Metrics) IncCalendarSyncFatal() {
	if m == nil {
		return
	}
	m.calendarSyncFatal.WithLabelValues(m.service).Inc()
}

func (m *Metrics) IncOutboxDelivery(result string) {
	if m == nil {
		return
	}
	m.outboxDeliveries.WithLabelValues(m.service, result).Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
