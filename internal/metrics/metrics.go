package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpload_records_total",
			Help: "Group records by pipeline stage and environment",
		},
		[]string{"stage", "environment"}, // received|invalid|published|failed , dev|qa
	)

	PublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpload_publish_duration_seconds",
			Help:    "Time from publish to broker acknowledgment or failure",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~10s
		},
		[]string{"environment", "result"}, // ok|timeout|rejected|transport|closed
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		RecordsTotal,
		PublishDuration,
	)
}
