package loader

import "github.com/prometheus/client_golang/prometheus"

var (
	familyLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assetd",
			Subsystem: "loader",
			Name:      "family_loads_total",
			Help:      "Family chain traversals by outcome",
		},
		[]string{"family", "outcome"},
	)

	gateFired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assetd",
			Subsystem: "loader",
			Name:      "gate_fired_total",
			Help:      "Dependency gates fired per family",
		},
		[]string{"family"},
	)
)

func init() {
	prometheus.MustRegister(familyLoads, gateFired)
}
