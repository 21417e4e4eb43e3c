package app

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks relay runtime statistics.
type Metrics struct {
	activeSessions    prometheus.Gauge
	sessionsTotal     prometheus.Counter
	authFailures      prometheus.Counter
	messagesStored    prometheus.Counter
	messagesForwarded prometheus.Counter
	messagesOffline   prometheus.Counter
	signalsForwarded  *prometheus.CounterVec
	relayErrors       *prometheus.CounterVec
	storeFailures     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_sessions_active",
			Help: "Current number of registered user sessions.",
		}),
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_sessions_total",
			Help: "Total sessions accepted since start.",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_auth_failures_total",
			Help: "Connection attempts rejected at credential check.",
		}),
		messagesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_messages_stored_total",
			Help: "Private messages appended to the message store.",
		}),
		messagesForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_messages_forwarded_total",
			Help: "Private messages forwarded live to a connected recipient.",
		}),
		messagesOffline: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_messages_stored_offline_total",
			Help: "Private messages stored while the recipient was offline.",
		}),
		signalsForwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_signals_forwarded_total",
			Help: "Signaling events forwarded, by kind.",
		}, []string{"kind"}),
		relayErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_errors_total",
			Help: "Relay and signaling errors, by code.",
		}, []string{"code"}),
		storeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_store_failures_total",
			Help: "Message store write failures.",
		}),
	}

	reg.MustRegister(
		m.activeSessions,
		m.sessionsTotal,
		m.authFailures,
		m.messagesStored,
		m.messagesForwarded,
		m.messagesOffline,
		m.signalsForwarded,
		m.relayErrors,
		m.storeFailures,
	)
	return m
}
