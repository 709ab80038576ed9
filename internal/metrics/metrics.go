package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "provider_requests_total", Help: "Upstream provider attempts by outcome (ok, no_data, error)"},
		[]string{"provider", "query", "outcome"},
	)
	FallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fallbacks_total", Help: "Queries served by the fallback provider"},
		[]string{"query"},
	)
	LocalIndicatorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "local_indicators_total", Help: "Indicator results computed locally from candles"},
		[]string{"indicator"},
	)
)

func init() {
	prometheus.MustRegister(ProviderRequestsTotal, FallbacksTotal, LocalIndicatorsTotal)
}
