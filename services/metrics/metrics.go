// Package metrics holds the Prometheus collectors of the API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RegionRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ppdb_region_requests_total",
		Help: "Total region data source requests, by level",
	}, []string{"level"})
	RegionFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ppdb_region_fail_total",
		Help: "Total failed region data source requests, by level",
	}, []string{"level"})
	RegionDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ppdb_region_duration_ms",
		Help:    "Region data source request duration in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000},
	}, []string{"level"})
	RegionCoalescedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ppdb_region_coalesced_total",
		Help: "Total region requests served by an identical in-flight request",
	}, []string{"level"})

	AddressStepsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ppdb_address_steps_active",
		Help: "Number of open address-step sessions",
	})
	AddressStepsExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ppdb_address_steps_expired_total",
		Help: "Total address-step sessions closed for inactivity",
	})
	AddressStepEditsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ppdb_address_step_edits_total",
		Help: "Total region selections and field edits made in address-step sessions",
	})
	AddressSubmitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ppdb_address_submits_total",
		Help: "Total address-step submissions, by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(RegionRequestsTotal)
	prometheus.MustRegister(RegionFailTotal)
	prometheus.MustRegister(RegionDurationMs)
	prometheus.MustRegister(RegionCoalescedTotal)
	prometheus.MustRegister(AddressStepsActive)
	prometheus.MustRegister(AddressStepsExpiredTotal)
	prometheus.MustRegister(AddressStepEditsTotal)
	prometheus.MustRegister(AddressSubmitsTotal)
}

func Handler() http.Handler { return promhttp.Handler() }
