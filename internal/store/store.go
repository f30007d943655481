package store

import (
	"errors"
	"sync"
	"time"

	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/types"
)

var ErrCallExists = errors.New("call already exists")

// Store keeps per-call state for the lifetime of the process. Nothing here is
// persisted; a call's records exist only while the server runs.
type Store struct {
	mu          sync.RWMutex
	calls       map[string]*types.Call
	events      map[string][]types.Event
	transcripts map[string][]types.Utterance
}

func New() *Store {
	return &Store{
		calls:       make(map[string]*types.Call),
		events:      make(map[string][]types.Event),
		transcripts: make(map[string][]types.Utterance),
	}
}

func (s *Store) CreateCall(c *types.Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calls[c.ID]; ok {
		return ErrCallExists
	}
	s.calls[c.ID] = c
	s.events[c.ID] = []types.Event{}
	return nil
}

func (s *Store) GetCall(id string) *types.Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[id]
}

func (s *Store) SetCallStatus(id, status string) {
	s.mu.Lock()
	if c, ok := s.calls[id]; ok {
		c.Status = status
	}
	s.mu.Unlock()
}

func (s *Store) AppendEvent(callID, typ string, payload map[string]any) types.Event {
	evt := types.Event{Type: typ, Ts: time.Now().UTC(), Payload: payload}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[callID] = append(s.events[callID], evt)
	// Cap total events per call to avoid unbounded growth
	const maxEvents = 200
	if l := len(s.events[callID]); l > maxEvents {
		keep := maxEvents - 1
		dropped := l - keep
		s.events[callID] = append([]types.Event(nil), s.events[callID][l-keep:]...)
		warn := types.Event{Type: "events_truncated", Ts: time.Now().UTC(), Payload: map[string]any{"dropped": dropped, "kept": keep}}
		s.events[callID] = append(s.events[callID], warn)
	}
	return evt
}

func (s *Store) ListEvents(callID string) []types.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.events[callID]
	out := make([]types.Event, len(src))
	copy(out, src)
	return out
}

// AppendUtterance adds one turn to the call transcript. The transcript is
// append-only; interrupted utterances are kept for history.
func (s *Store) AppendUtterance(callID string, u types.Utterance) {
	s.mu.Lock()
	s.transcripts[callID] = append(s.transcripts[callID], u)
	s.mu.Unlock()
}

// MarkLastUtteranceInterrupted tags the most recent agent utterance as cut off
// by barge-in.
func (s *Store) MarkLastUtteranceInterrupted(callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.transcripts[callID]
	for i := len(ts) - 1; i >= 0; i-- {
		if ts[i].Role == types.RoleAgent {
			ts[i].Interrupted = true
			return
		}
	}
}

func (s *Store) Transcript(callID string) []types.Utterance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.transcripts[callID]
	out := make([]types.Utterance, len(src))
	copy(out, src)
	return out
}

func (s *Store) ListCallIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.calls))
	for id := range s.calls {
		out = append(out, id)
	}
	return out
}
