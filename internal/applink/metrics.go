package applink

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricEmails = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mail_emails_total",
	Help: "Transactional emails by outcome",
}, []string{"outcome"})
