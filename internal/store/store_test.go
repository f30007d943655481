package store

import (
	"testing"
	"time"

	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/types"
)

func TestCreateAndGetCall(t *testing.T) {
	st := New()
	c := &types.Call{ID: "abc123", CreatedAt: time.Now()}
	if err := st.CreateCall(c); err != nil {
		t.Fatalf("create call: %v", err)
	}
	got := st.GetCall("abc123")
	if got == nil || got.ID != c.ID {
		t.Fatalf("expected call %q, got %#v", c.ID, got)
	}
	if err := st.CreateCall(c); err != ErrCallExists {
		t.Fatalf("expected ErrCallExists, got %v", err)
	}
}

func TestEventLogCapped(t *testing.T) {
	st := New()
	for i := 0; i < 250; i++ {
		st.AppendEvent("c1", "tick", nil)
	}
	evts := st.ListEvents("c1")
	if len(evts) != 200 {
		t.Fatalf("expected capped log of 200, got %d", len(evts))
	}
	if evts[len(evts)-1].Type != "events_truncated" {
		t.Fatalf("expected truncation marker, got %q", evts[len(evts)-1].Type)
	}
}

func TestTranscriptInterruptedTag(t *testing.T) {
	st := New()
	st.AppendUtterance("c1", types.Utterance{Role: types.RoleAgent, Text: "hello"})
	st.AppendUtterance("c1", types.Utterance{Role: types.RoleCaller, Text: "wait"})
	st.MarkLastUtteranceInterrupted("c1")

	ts := st.Transcript("c1")
	if len(ts) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(ts))
	}
	if !ts[0].Interrupted {
		t.Fatalf("agent utterance should be tagged interrupted")
	}
	if ts[1].Interrupted {
		t.Fatalf("caller utterance must not be tagged")
	}
}
