package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ExecutionsTotal counts dispatched executions by chain and terminal outcome
// (success, failed, timeout).
var ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "paychain_executions_total",
	Help: "Total executions dispatched, by chain and outcome.",
}, []string{"chain", "outcome"})

// CircuitBreakerTripsTotal counts circuit breaker activations by chain.
var CircuitBreakerTripsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "paychain_circuit_breaker_trips_total",
	Help: "Total circuit breaker activations, by chain.",
}, []string{"chain"})

// TreasuryBalance reports the last-observed treasury balance per chain, as
// a float64 (decimal.Decimal truncated for gauge precision).
var TreasuryBalance = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "paychain_treasury_balance",
	Help: "Last observed treasury balance per chain.",
}, []string{"chain"})
