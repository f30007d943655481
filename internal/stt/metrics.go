package stt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricConnectMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stt_connect_ms",
		Help:    "Recognizer websocket connect latency",
		Buckets: prometheus.ExponentialBuckets(10, 1.6, 10),
	})

	metricAudioBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_audio_bytes_total",
		Help: "Audio bytes forwarded to the recognizer",
	})

	metricFramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_frames_dropped_total",
		Help: "Inbound frames dropped under recognizer backpressure",
	})

	metricFinalEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stt_finals_emitted_total",
		Help: "Final transcript fragments emitted by source",
	}, []string{"source"})

	metricCircuitOpens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_circuit_opens_total",
		Help: "Recognizer circuit breaker opens",
	})
)
