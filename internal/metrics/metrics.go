package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WebhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_webhooks_total",
			Help: "Inbound webhooks by source and outcome",
		},
		[]string{"source", "outcome"}, // rejected|ignored|emitted|failed
	)

	SinkEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_sink_events_total",
			Help: "Normalized events handed to sinks by sink and result",
		},
		[]string{"sink", "result"}, // ok|error|dropped
	)

	RelayDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_relay_deliveries_total",
			Help: "Relay worker deliveries by result",
		},
		[]string{"result"}, // delivered|failed|duplicate|poison
	)
)

// MustRegister registers all collectors. Registering twice on the same registerer is a no-op.
func MustRegister(r prometheus.Registerer) {
	for _, c := range []prometheus.Collector{WebhooksTotal, SinkEventsTotal, RelayDeliveriesTotal} {
		if err := r.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			panic(err)
		}
	}
}
