// Package metrics exposes the adapter's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tg_adapter_active_connections",
		Help: "Number of registered Telegram connections, regardless of auth state.",
	})

	RestoredSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tg_adapter_restored_sessions_total",
		Help: "Sessions reconnected from the credential store at startup.",
	})

	HandshakesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tg_adapter_qr_handshakes_completed_total",
		Help: "QR login handshakes that ended in an authorized session.",
	})

	HandshakesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tg_adapter_qr_handshakes_failed_total",
		Help: "QR login handshakes that ended in an error.",
	})

	MessagesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tg_adapter_messages_relayed_total",
		Help: "Inbound messages delivered to the Core webhook.",
	})

	MessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tg_adapter_messages_dropped_total",
		Help: "Inbound messages dropped after a failed webhook delivery.",
	})
)
