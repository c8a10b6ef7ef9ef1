package eventbus

import "github.com/prometheus/client_golang/prometheus"

var (
	eventsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assetd",
			Subsystem: "bus",
			Name:      "events_emitted_total",
			Help:      "Total events dispatched, by event type",
		},
		[]string{"type"},
	)

	handlerPanics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "assetd",
			Subsystem: "bus",
			Name:      "handler_panics_total",
			Help:      "Total recovered panics in event handlers",
		},
	)

	stateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "assetd",
			Subsystem: "bus",
			Name:      "resources",
			Help:      "Tracked resources by current lifecycle state",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(eventsEmitted, handlerPanics, stateGauge)
}
