package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/dialog"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/response"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/store"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/stt"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/transport"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/tts"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/types"
)

// fakeStream is an in-memory Transport.
type fakeStream struct {
	recv chan transport.Frame

	mu      sync.Mutex
	sent    int
	cancels int
	closed  bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{recv: make(chan transport.Frame, 16)}
}

func (f *fakeStream) Receive() <-chan transport.Frame { return f.recv }

func (f *fakeStream) Send(ctx context.Context, fr transport.Frame) error {
	f.mu.Lock()
	f.sent++
	f.mu.Unlock()
	return nil
}

func (f *fakeStream) CancelOutbound(ctx context.Context) error {
	f.mu.Lock()
	f.cancels++
	f.mu.Unlock()
	return nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.recv)
	}
	return nil
}

func (f *fakeStream) stats() (sent, cancels int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent, f.cancels
}

type harness struct {
	rec    *stt.MockRecognizer
	synth  *tts.MockSynthesizer
	st     *store.Store
	links  chan dialog.Slots
	done   chan error
	stream *fakeStream
}

func startSession(t *testing.T, framesPerUtterance int) *harness {
	t.Helper()
	h := &harness{
		stream: newFakeStream(),
		rec:    stt.NewMockRecognizer(),
		synth:  tts.NewMockSynthesizer(),
		st:     store.New(),
		links:  make(chan dialog.Slots, 1),
		done:   make(chan error, 1),
	}
	h.synth.FramesPerUtterance = framesPerUtterance
	h.synth.FrameInterval = time.Millisecond

	h.st.CreateCall(&types.Call{ID: "call-1", CreatedAt: time.Now()})
	s := New("call-1", h.stream, Deps{
		Store:      h.st,
		Recognizer: h.rec,
		Synth:      h.synth,
		Generator:  response.StaticGenerator{},
		SendLink: func(ctx context.Context, callID string, slots dialog.Slots) error {
			h.links <- slots
			return nil
		},
		Company:    "Acme Lending",
		MaxRetries: 3,
	})
	go func() { h.done <- s.Run(context.Background()) }()
	return h
}

func (h *harness) say(text string) {
	h.rec.EmitFinal(text)
	time.Sleep(50 * time.Millisecond)
}

func (h *harness) waitDone(t *testing.T) {
	t.Helper()
	select {
	case err := <-h.done:
		if err != nil {
			t.Fatalf("session error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end")
	}
}

func TestHappyPathCollectsSlotsAndSendsLink(t *testing.T) {
	h := startSession(t, 2)
	time.Sleep(30 * time.Millisecond) // let the greeting play out

	h.say("hello")
	h.say("yes that works")
	h.say("my name is Jane Doe")
	h.say("it's 555-123-4567")
	h.say("90210")

	select {
	case slots := <-h.links:
		if slots.Name != "Jane Doe" || slots.Phone != "5551234567" || slots.Zip != "90210" {
			t.Fatalf("unexpected slots %+v", slots)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("link never sent")
	}

	h.say("sounds good, thanks")
	h.waitDone(t)

	if got := h.st.GetCall("call-1").Status; got != "completed" {
		t.Fatalf("status %q", got)
	}
	sent, _ := h.stream.stats()
	if sent == 0 {
		t.Fatal("no audio played")
	}
}

func TestBargeInCancelsPlayback(t *testing.T) {
	h := startSession(t, 2000) // long utterances so the agent is mid-speech
	time.Sleep(20 * time.Millisecond)

	// Caller talks over the greeting.
	h.rec.EmitFinal("hello there")
	time.Sleep(100 * time.Millisecond)

	_, cancels := h.stream.stats()
	if cancels == 0 {
		t.Fatal("expected outbound cancel on barge-in")
	}
	if h.synth.Cancelled() == 0 {
		t.Fatal("expected synthesis cancelled")
	}
	var interrupted bool
	for _, u := range h.st.Transcript("call-1") {
		if u.Role == types.RoleAgent && u.Interrupted {
			interrupted = true
		}
	}
	if !interrupted {
		t.Fatal("agent utterance not marked interrupted")
	}

	h.stream.Close() // hang up
	h.waitDone(t)
}

func TestCallerHangupEndsSession(t *testing.T) {
	h := startSession(t, 2)
	time.Sleep(20 * time.Millisecond)
	h.stream.Close()
	h.waitDone(t)
	if got := h.st.GetCall("call-1").Status; got != "completed" {
		t.Fatalf("status %q", got)
	}
}

func TestConsentDeclinedEndsCall(t *testing.T) {
	h := startSession(t, 2)
	time.Sleep(30 * time.Millisecond)

	h.say("hi")
	h.rec.EmitFinal("no thanks")
	h.waitDone(t)

	var sawDecline bool
	for _, u := range h.st.Transcript("call-1") {
		if u.Role == types.RoleCaller && u.Text == "no thanks" {
			sawDecline = true
		}
	}
	if !sawDecline {
		t.Fatal("decline not recorded in transcript")
	}
}

func TestCallerTurnRecordedInSpokenPhase(t *testing.T) {
	h := startSession(t, 2)
	time.Sleep(30 * time.Millisecond)

	h.say("hello")
	h.say("yes that works")
	h.say("my name is Jane Doe")

	// Each turn carries the phase that was active when the caller spoke,
	// not the phase the machine moved to afterwards.
	want := map[string]string{
		"hello":               string(dialog.PhaseGreeting),
		"yes that works":      string(dialog.PhaseConsentCheck),
		"my name is Jane Doe": string(dialog.PhaseCollectName),
	}
	for _, u := range h.st.Transcript("call-1") {
		if u.Role != types.RoleCaller {
			continue
		}
		if phase, ok := want[u.Text]; ok && u.Phase != phase {
			t.Fatalf("turn %q recorded in phase %q, want %q", u.Text, u.Phase, phase)
		}
	}

	h.stream.Close()
	h.waitDone(t)
}

func TestPartialFragmentsDoNotAdvanceDialog(t *testing.T) {
	h := startSession(t, 2)
	time.Sleep(30 * time.Millisecond)

	h.rec.EmitPartial("ye")
	h.rec.EmitPartial("yes I")
	time.Sleep(30 * time.Millisecond)

	// No caller turns should be recorded from partials.
	for _, u := range h.st.Transcript("call-1") {
		if u.Role == types.RoleCaller {
			t.Fatalf("partial recorded as turn: %+v", u)
		}
	}
	h.stream.Close()
	h.waitDone(t)
}
