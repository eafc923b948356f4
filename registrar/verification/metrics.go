package verification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registrar_messages_received_total",
		Help: "Total number of external messages received, by origin type.",
	}, []string{"origin"})
	verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registrar_field_verifications_total",
		Help: "Total number of primary challenge outcomes, by field kind and result.",
	}, []string{"field", "result"})
	manualVerificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registrar_manual_verifications_total",
		Help: "Total number of admin verification overrides.",
	})
)
