// Package metrics holds Prometheus instruments that are used across the
// bootstrap facility.  All collectors are registered with the global
// registry, so importing this package in main.go is enough to expose them
// on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConfigLoadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "config_loads_total",
			Help: "Cumulative number of settings snapshots successfully loaded.",
		})

	ConfigLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "config_load_errors_total",
			Help: "Cumulative number of settings loads aborted by an error.",
		})

	LogRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "log_records_total",
			Help: "Cumulative number of log records accepted, by channel.",
		},
		[]string{"channel"},
	)

	LogFallbackDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "log_fallback_drops_total",
			Help: "Cumulative number of internal-error notices shed by the throttled console fallback.",
		})
)

func init() {
	prometheus.MustRegister(
		ConfigLoadsTotal,
		ConfigLoadErrorsTotal,
		LogRecordsTotal,
		LogFallbackDropsTotal,
	)
}
