package tts

import (
	"context"
	"sync/atomic"
	"time"
)

// MockSynthesizer emits a fixed number of silence frames per utterance. Used
// in tests and when no TTS credentials are configured.
type MockSynthesizer struct {
	FramesPerUtterance int
	FrameInterval      time.Duration

	cancelled atomic.Int64
}

var _ Synthesizer = (*MockSynthesizer)(nil)

func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{FramesPerUtterance: 10, FrameInterval: time.Millisecond}
}

// Cancelled reports how many utterances were cut off before completion.
func (m *MockSynthesizer) Cancelled() int64 { return m.cancelled.Load() }

func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) (<-chan []byte, error) {
	out := make(chan []byte)
	go func() {
		defer close(out)
		frame := make([]byte, FrameBytes)
		for i := 0; i < m.FramesPerUtterance; i++ {
			select {
			case out <- frame:
			case <-ctx.Done():
				m.cancelled.Add(1)
				return
			}
			select {
			case <-time.After(m.FrameInterval):
			case <-ctx.Done():
				m.cancelled.Add(1)
				return
			}
		}
	}()
	return out, nil
}
