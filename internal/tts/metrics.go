package tts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricFirstAudioMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tts_first_audio_ms",
		Help:    "Latency from synthesis request to first audio frame",
		Buckets: prometheus.ExponentialBuckets(50, 1.6, 10),
	})

	metricCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_cancelled_total",
		Help: "Synthesis streams cancelled mid-utterance",
	})
)
