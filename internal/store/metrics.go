package store

import "github.com/prometheus/client_golang/prometheus"

var (
	mountsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "assetd",
			Subsystem: "store",
			Name:      "mounts",
			Help:      "Materialized assets in the vendor directory",
		},
	)

	contentReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assetd",
			Subsystem: "store",
			Name:      "content_reads_total",
			Help:      "Content reads served, by source",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(mountsGauge, contentReads)
}
