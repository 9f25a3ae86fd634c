package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stateGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "techcare_channel_state",
		Help: "Connection state of the push channel (0 disconnected, 1 connecting, 2 connected).",
	})

	reconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "techcare_channel_reconnects_total",
		Help: "Reconnect attempts made by the push channel client.",
	})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techcare_channel_events_total",
		Help: "Push events dispatched to subscribers by change kind.",
	}, []string{"kind"})
)
