package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts strategy cycle iterations by cycle name and outcome.
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigma_cycles_total",
			Help: "Total number of strategy cycle iterations (by cycle and outcome).",
		},
		[]string{"cycle", "outcome"},
	)

	// OrdersPlacedTotal counts orders sent to the venue.
	OrdersPlacedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigma_orders_placed_total",
			Help: "Total number of orders placed on the venue (by product, side, and type).",
		},
		[]string{"product", "side", "type"},
	)

	// PositionsClosedTotal counts reduce-only market exits.
	PositionsClosedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigma_positions_closed_total",
			Help: "Total number of positions flattened with a market order (by product).",
		},
		[]string{"product"},
	)

	// VenueRequestDuration measures the duration of outbound venue API calls.
	VenueRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sigma_venue_request_duration_seconds",
			Help:    "Duration of venue API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"endpoint", "method"},
	)
)

// IncCycle increments the cycle counter for the given cycle name and outcome.
func IncCycle(cycle, outcome string) {
	CyclesTotal.WithLabelValues(cycle, outcome).Inc()
}

// IncOrderPlaced increments the order counter.
func IncOrderPlaced(product, side, orderType string) {
	OrdersPlacedTotal.WithLabelValues(product, side, orderType).Inc()
}

// IncPositionClosed increments the position exit counter.
func IncPositionClosed(product string) {
	PositionsClosedTotal.WithLabelValues(product).Inc()
}

// ObserveVenueRequest records the elapsed time of a venue API call.
func ObserveVenueRequest(endpoint, method string, start time.Time) {
	VenueRequestDuration.WithLabelValues(endpoint, method).Observe(time.Since(start).Seconds())
}
