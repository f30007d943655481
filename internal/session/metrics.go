package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "session_active",
		Help: "Calls currently in progress",
	})

	metricBargeIns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_barge_ins_total",
		Help: "Agent utterances cut off by caller speech",
	})

	metricLinksSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_links_sent_total",
		Help: "Application links delivered",
	})

	metricSessionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "session_duration_seconds",
		Help:    "Call duration from accept to teardown",
		Buckets: prometheus.ExponentialBuckets(5, 2, 8),
	})
)
