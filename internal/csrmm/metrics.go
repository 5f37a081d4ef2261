package csrmm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	kernelLaunches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bodkin_kernel_launches_total",
		Help: "Total number of kernel invocations by variant",
	}, []string{"kernel"})

	kernelDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bodkin_kernel_duration_seconds",
		Help:    "Wall time per kernel invocation",
		Buckets: prometheus.DefBuckets,
	}, []string{"kernel"})
)

func observe(kernel string, start time.Time) {
	kernelLaunches.WithLabelValues(kernel).Inc()
	kernelDuration.WithLabelValues(kernel).Observe(time.Since(start).Seconds())
}
