package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AuthLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of login attempts.",
		},
		[]string{"result"},
	)

	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total number of token pairs issued or rotated.",
		},
		[]string{"flow", "result"},
	)

	SessionsRevokedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_sessions_revoked_total",
			Help: "Total number of refresh sessions revoked.",
		},
	)

	OrdersPlacedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Total number of order placement attempts.",
		},
		[]string{"result"},
	)

	ActivityEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_events_total",
			Help: "Total number of activity events by sink and result.",
		},
		[]string{"sink", "result"},
	)
)

// MustRegister registers every collector on reg. Collectors are usable
// before registration, which keeps tests free of global registry state.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		AuthLoginsTotal,
		TokensIssuedTotal,
		SessionsRevokedTotal,
		OrdersPlacedTotal,
		ActivityEventsTotal,
	)
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
