package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DeliverySends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_sends_total",
			Help: "Total number of per-recipient delivery attempts by outcome",
		},
		[]string{"channel", "status"},
	)

	DeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_failures_total",
			Help: "Total number of failed deliveries by error code",
		},
		[]string{"channel", "error_code"},
	)

	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "delivery_send_duration_seconds",
			Help: "Duration of per-recipient send attempts in seconds",
		},
		[]string{"channel"},
	)

	DeliveryInflight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "delivery_inflight",
			Help: "Number of in-flight per-recipient sends per channel",
		},
		[]string{"channel"},
	)
)
