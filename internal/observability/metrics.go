package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	departuresCreatedTotal prometheus.Counter
	checkoutsTotal         prometheus.Counter
	checkoutConflictsTotal prometheus.Counter
	profileRollbacksTotal  *prometheus.CounterVec
	gateFeedClientsActive  prometheus.Gauge
	gateFeedEventsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the gate API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gate_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		departuresCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gate_departures_created_total",
			Help: "Early departures authorised by administrators.",
		})

		checkoutsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gate_departures_checked_out_total",
			Help: "Early departures checked out at the gate.",
		})

		checkoutConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gate_departure_checkout_conflicts_total",
			Help: "Checkout attempts that matched no Approved record.",
		})

		profileRollbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_profile_rollbacks_total",
			Help: "Identity accounts deleted after a failed profile insert.",
		}, []string{"result"})

		gateFeedClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gate_feed_clients_active",
			Help: "Connected gate feed websocket clients.",
		})

		gateFeedEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_feed_events_total",
			Help: "Departure events fanned out to gate feed clients.",
		}, []string{"type", "origin"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			departuresCreatedTotal,
			checkoutsTotal,
			checkoutConflictsTotal,
			profileRollbacksTotal,
			gateFeedClientsActive,
			gateFeedEventsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// DeparturesCreated counts authorised departures.
func DeparturesCreated() prometheus.Counter {
	RegisterMetrics()
	return departuresCreatedTotal
}

// DeparturesCheckedOut counts successful checkouts.
func DeparturesCheckedOut() prometheus.Counter {
	RegisterMetrics()
	return checkoutsTotal
}

// CheckoutConflicts counts checkouts rejected because no Approved record matched.
func CheckoutConflicts() prometheus.Counter {
	RegisterMetrics()
	return checkoutConflictsTotal
}

// ProfileRollbacks counts compensating account deletions by result.
func ProfileRollbacks() *prometheus.CounterVec {
	RegisterMetrics()
	return profileRollbacksTotal
}

// GateFeedClients tracks connected gate feed clients.
func GateFeedClients() prometheus.Gauge {
	RegisterMetrics()
	return gateFeedClientsActive
}

// GateFeedEvents counts events delivered to the gate feed hub.
func GateFeedEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return gateFeedEventsTotal
}
