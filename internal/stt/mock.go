package stt

import (
	"sync"
	"time"
)

// MockRecognizer is a scriptable Recognizer for tests and local development.
type MockRecognizer struct {
	mu     sync.Mutex
	ch     chan Fragment
	seq    uint64
	closed bool
}

var _ Recognizer = (*MockRecognizer)(nil)

func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{ch: make(chan Fragment, 32)}
}

func (m *MockRecognizer) Send(audio []byte) bool     { return true }
func (m *MockRecognizer) Fragments() <-chan Fragment { return m.ch }

func (m *MockRecognizer) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.ch)
	}
}

// EmitFinal injects a final fragment as if the caller had finished an utterance.
func (m *MockRecognizer) EmitFinal(text string) { m.emit(text, true) }

// EmitPartial injects a partial fragment.
func (m *MockRecognizer) EmitPartial(text string) { m.emit(text, false) }

func (m *MockRecognizer) emit(text string, final bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.seq++
	m.ch <- Fragment{Text: text, Final: final, Seq: m.seq, Ts: time.Now()}
}
