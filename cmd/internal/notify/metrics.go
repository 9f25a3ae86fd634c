package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techcare_notification_fetches_total",
		Help: "Notification list fetches by outcome (ok, error, skipped).",
	}, []string{"outcome"})

	unreadGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "techcare_notifications_unread",
		Help: "Current unread notification counter.",
	})
)
