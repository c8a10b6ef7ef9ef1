package fetch

import "github.com/prometheus/client_golang/prometheus"

var (
	attemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assetd",
			Subsystem: "fetch",
			Name:      "attempts_total",
			Help:      "Fetch attempts by outcome",
		},
		[]string{"status"},
	)

	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "assetd",
			Subsystem: "fetch",
			Name:      "attempt_duration_seconds",
			Help:      "Wall time of one fetch attempt",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(attemptsTotal, fetchDuration)
}
