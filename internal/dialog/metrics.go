package dialog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricPhaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialog_phase_transitions_total",
		Help: "Dialog phase transitions",
	}, []string{"from", "to"})

	metricReprompts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dialog_reprompts_total",
		Help: "Re-prompts after invalid or unclear caller input",
	})

	metricRetryTransfers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dialog_retry_transfers_total",
		Help: "Calls escalated to transfer after exhausting retries in one phase",
	})
)
