package stt

import "time"

// Fragment is one speech-to-text result. Partial fragments are advisory; only
// final fragments drive dialog transitions.
type Fragment struct {
	Text  string
	Final bool
	Seq   uint64
	Ts    time.Time
}

// Recognizer turns one call's inbound audio into an ordered fragment stream.
// One recognizer per call; not restartable.
type Recognizer interface {
	// Send enqueues one audio frame. Returns false when the frame was dropped
	// under backpressure.
	Send(audio []byte) bool
	// Fragments emits transcript fragments in seq order. The channel closes
	// when the recognizer is closed or its input ends.
	Fragments() <-chan Fragment
	Close()
}
