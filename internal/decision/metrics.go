package decision

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decision_evaluations_total",
		Help: "Rules engine evaluations by result",
	}, []string{"result"})

	metricRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "decision_retries_total",
		Help: "Rules engine retry attempts",
	})

	metricEscalations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decision_escalations_total",
		Help: "Applications routed to human review by reason",
	}, []string{"reason"})
)
