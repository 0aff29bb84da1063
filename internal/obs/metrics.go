package obs

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the collectors updated by the booking engine.
type Metrics struct {
	OutcomesTotal *prometheus.CounterVec   // op, kind
	OpLatencyMS   *prometheus.HistogramVec // op
	ErrorsTotal   *prometheus.CounterVec   // op
	SweptTotal    prometheus.Counter
	UnitsBooked   prometheus.Counter
}

// NewMetrics builds the collectors and registers them with reg.  Pass
// prometheus.DefaultRegisterer in the server and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_outcomes_total",
				Help: "Engine operations by outcome kind",
			},
			[]string{"op", "kind"},
		),
		OpLatencyMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "booking_op_latency_ms",
				Help:    "Latency of engine operations (ms)",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"op"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_store_errors_total",
				Help: "Engine operations that failed on a store",
			},
			[]string{"op"},
		),
		SweptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_swept_total",
			Help: "Reservations removed by the expiry sweeper",
		}),
		UnitsBooked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_units_booked_total",
			Help: "Concept units granted by confirmed reservations",
		}),
	}

	reg.MustRegister(
		m.OutcomesTotal,
		m.OpLatencyMS,
		m.ErrorsTotal,
		m.SweptTotal,
		m.UnitsBooked,
	)
	return m
}
