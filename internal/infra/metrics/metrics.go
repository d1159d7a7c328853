package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resourceCPU = "cpu"
	resourceRAM = "ram"
	resourceGPU = "gpu"
)

var admissionAttemptsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "admission_attempts_total",
		Help: "Total number of admission attempts by outcome.",
	},
	[]string{"outcome"},
)

var retriesExhaustedTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "admission_retries_exhausted_total",
		Help: "Total number of workloads left pending because their retry budget was exhausted " +
			"(the persisted status stays pending, so this is the only signal).",
	},
	[]string{"cluster"},
)

var poolAvailable = promauto.With(prometheus.DefaultRegisterer).NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "admission_pool_available",
		Help: "Unreserved capacity of a cluster pool as last observed.",
	},
	[]string{"cluster", "resource"},
)

var poolLimit = promauto.With(prometheus.DefaultRegisterer).NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "admission_pool_limit",
		Help: "Fixed capacity of a cluster pool.",
	},
	[]string{"cluster", "resource"},
)

var auditViolationsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "admission_audit_violations_total",
		Help: "Total number of pools found outside 0 <= available <= limit by the ledger audit.",
	},
	[]string{"cluster"},
)

var releaseCappedTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "admission_release_capped_total",
		Help: "Total number of releases clipped at the pool limit.",
	},
	[]string{"cluster"},
)

// RecordAdmissionOutcome increments the attempt counter for the given outcome.
func RecordAdmissionOutcome(outcome string) {
	admissionAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordRetriesExhausted increments the exhausted counter for a cluster.
func RecordRetriesExhausted(cluster string) {
	retriesExhaustedTotal.WithLabelValues(cluster).Inc()
}

// RecordAuditViolation increments the audit violation counter for a cluster.
func RecordAuditViolation(cluster string) {
	auditViolationsTotal.WithLabelValues(cluster).Inc()
}

func RecordReleaseCapped(cluster string) {
	releaseCappedTotal.WithLabelValues(cluster).Inc()
}

// SetPool publishes the limit and available gauges of a cluster pool.
func SetPool(cluster string, limit, available [3]float64) {
	for i, resource := range []string{resourceCPU, resourceRAM, resourceGPU} {
		poolLimit.WithLabelValues(cluster, resource).Set(limit[i])
		poolAvailable.WithLabelValues(cluster, resource).Set(available[i])
	}
}

var componentUp = promauto.With(prometheus.DefaultRegisterer).NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "admission_component_up",
		Help: "Whether the last health ping of a component succeeded (1) or failed (0).",
	},
	[]string{"component"},
)

var pingDuration = promauto.With(prometheus.DefaultRegisterer).NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "admission_component_ping_duration_seconds",
		Help:    "Latency of component health pings.",
		Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
	},
	[]string{"component"},
)

// RecordPing publishes the result of one health ping.
func RecordPing(component string, seconds float64, up bool) {
	pingDuration.WithLabelValues(component).Observe(seconds)

	if up {
		componentUp.WithLabelValues(component).Set(1)
	} else {
		componentUp.WithLabelValues(component).Set(0)
	}
}
