package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricStreamsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transport_streams_started_total",
		Help: "Media streams accepted",
	})

	metricFramesIn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transport_frames_in_total",
		Help: "Inbound audio frames received",
	})

	metricFramesOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transport_frames_out_total",
		Help: "Outbound audio frames sent",
	})

	metricOutboundCancels = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transport_outbound_cancels_total",
		Help: "Outbound playback flushes (barge-in)",
	})
)
