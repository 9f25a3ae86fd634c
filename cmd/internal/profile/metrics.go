package profile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techcare_profile_loads_total",
		Help: "Completed profile loads by published source tier.",
	}, []string{"source"})

	loadsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "techcare_profile_loads_dropped_total",
		Help: "Load calls dropped because a fetch was already in flight.",
	})
)
