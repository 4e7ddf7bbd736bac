package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		RouteTotal, StageFailTotal,
		GatewayDuration, GatewayFailTotal,
		RateLimitWaitSeconds, RepairTotal,
	)
}

// RouteTotal counts which stage produced the final reply.
var RouteTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "plantify_route_total",
		Help: "Replies produced, by stage.",
	},
	[]string{"stage"},
)

var StageFailTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "plantify_stage_fail_total",
		Help: "Stage failures converted to apology replies.",
	},
	[]string{"stage"},
)

var GatewayDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "plantify_gateway_duration_seconds",
		Help:    "Latency of text-generation calls.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"model"},
)

var GatewayFailTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "plantify_gateway_fail_total",
		Help: "Failed text-generation calls.",
	},
	[]string{"model"},
)

var RateLimitWaitSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "plantify_rate_limit_wait_seconds",
		Help:    "Time spent waiting for the gateway rate limiter.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	},
	[]string{"limiter"},
)

var RepairTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "plantify_json_repair_total",
		Help: "JSON repair attempts, by outcome.",
	},
	[]string{"outcome"}, // repaired | failed
)

// WritePrometheus writes the registry in the Prometheus text format.
func WritePrometheus(w io.Writer) error {
	mfs, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
