package credit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "credit_lookups_total",
	Help: "Credit score lookups by source",
}, []string{"source"})
