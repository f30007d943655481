// Package session runs one live call: it pumps inbound audio into the
// recognizer, drives the dialog machine off final transcripts, and plays
// synthesized agent speech back out, cancelling it on barge-in.
package session

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/dialog"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/floor"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/response"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/store"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/stt"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/transport"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/tts"
	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/types"
)

// Transport is the media stream the session talks through. *transport.Conn
// satisfies it; tests supply an in-memory stand-in.
type Transport interface {
	Receive() <-chan transport.Frame
	Send(ctx context.Context, f transport.Frame) error
	CancelOutbound(ctx context.Context) error
	Close() error
}

// Deps are the collaborators a session needs. All are required except
// SendLink, which may be nil when link delivery is not configured.
type Deps struct {
	Store      *store.Store
	Recognizer stt.Recognizer
	Synth      tts.Synthesizer
	Generator  response.Generator

	// SendLink delivers the pre-filled application link once all slots are
	// collected. Called at most once per call.
	SendLink func(ctx context.Context, callID string, slots dialog.Slots) error

	Company    string
	MaxRetries int
}

// Session owns one call end to end. The dialog loop is the single writer for
// the machine and the floor; audio playback runs in a side goroutine per
// utterance.
type Session struct {
	id      string
	conn    Transport
	deps    Deps
	machine *dialog.Machine
	floor   *floor.Manager

	cancelRun context.CancelFunc

	// crossings between the dialog loop and the playback goroutine
	ops chan func()

	synthCancel context.CancelFunc
	linkSent    bool
	started     time.Time
}

func New(callID string, conn Transport, deps Deps) *Session {
	return &Session{
		id:      callID,
		conn:    conn,
		deps:    deps,
		machine: dialog.NewMachine(callID, deps.MaxRetries),
		floor:   floor.New(),
		ops:     make(chan func(), 8),
		started: time.Now(),
	}
}

// Run blocks until the call ends: caller hangup, agent-initiated hangup, or
// ctx cancellation. Safe to call once.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancelRun = cancel
	defer cancel()

	metricActiveSessions.Inc()
	defer metricActiveSessions.Dec()
	defer func() {
		metricSessionSeconds.Observe(time.Since(s.started).Seconds())
		s.deps.Recognizer.Close()
		s.conn.Close()
		s.machine.Terminate()
		s.deps.Store.SetCallStatus(s.id, "completed")
		log.Printf("[session] ended call=%s phase=%s", s.id, s.machine.Phase())
	}()

	s.deps.Store.SetCallStatus(s.id, "in_progress")
	s.deps.Store.AppendEvent(s.id, "session_started", nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.pumpInbound(gctx) })
	g.Go(func() error { return s.dialogLoop(gctx) })
	return g.Wait()
}

// pumpInbound moves caller audio from the stream into the recognizer. A
// closed receive channel means the caller hung up.
func (s *Session) pumpInbound(ctx context.Context) error {
	defer s.deps.Recognizer.Close()
	for {
		select {
		case frame, ok := <-s.conn.Receive():
			if !ok {
				log.Printf("[session] caller disconnected call=%s", s.id)
				s.cancelRun()
				return nil
			}
			s.deps.Recognizer.Send(frame)
		case <-ctx.Done():
			return nil
		}
	}
}

// dialogLoop is the single writer for the dialog machine. It consumes final
// transcript fragments in order, resolves barge-in first, then advances the
// machine and speaks the reply.
func (s *Session) dialogLoop(ctx context.Context) error {
	s.speak(ctx, response.Opening(s.deps.Company), string(dialog.PhaseGreeting), false)

	frags := s.deps.Recognizer.Fragments()
	for {
		select {
		case op := <-s.ops:
			op()
		case frag, ok := <-frags:
			if !ok {
				return nil
			}
			if !frag.Final {
				continue
			}
			s.onFinal(ctx, frag)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Session) onFinal(ctx context.Context, frag stt.Fragment) {
	if d := s.floor.OnCallerFinal(); d.Interrupt {
		log.Printf("[session] barge-in call=%s utt=%s", s.id, d.UtteranceID)
		metricBargeIns.Inc()
		if err := s.conn.CancelOutbound(ctx); err != nil {
			log.Printf("[session] cancel outbound call=%s: %v", s.id, err)
		}
		if s.synthCancel != nil {
			s.synthCancel()
			s.synthCancel = nil
		}
		s.floor.OnSynthStopped(d.UtteranceID)
		s.deps.Store.MarkLastUtteranceInterrupted(s.id)
		s.deps.Store.AppendEvent(s.id, "barge_in", map[string]any{"utterance_id": d.UtteranceID, "reason": d.Reason})
	}

	// The caller spoke before any transition, so their turn is recorded
	// against the phase that was active when they said it.
	heardIn := s.machine.Phase()
	res := s.machine.Advance(frag.Text)
	if res.Discard {
		return
	}
	s.deps.Store.AppendUtterance(s.id, types.Utterance{
		Role: types.RoleCaller, Text: frag.Text, Phase: string(heardIn), Ts: frag.Ts,
	})
	s.deps.Store.AppendEvent(s.id, "phase", map[string]any{"phase": string(res.Phase)})

	if res.SendLink && !s.linkSent {
		s.linkSent = true
		s.deliverLink(ctx)
	}
	if res.Prompt == dialog.PromptNone {
		if res.EndCall {
			s.cancelRun()
		}
		return
	}

	text, err := s.deps.Generator.Generate(ctx, res.Prompt, s.deps.Store.Transcript(s.id))
	if err != nil {
		log.Printf("[session] generate call=%s prompt=%s: %v", s.id, res.Prompt, err)
		text = response.Fallback(res.Prompt)
	}
	s.speak(ctx, text, string(res.Phase), res.EndCall)
}

func (s *Session) deliverLink(ctx context.Context) {
	metricLinksSent.Inc()
	s.deps.Store.AppendEvent(s.id, "link_sent", map[string]any{"slots_complete": s.machine.Slots().Complete()})
	if s.deps.SendLink == nil {
		return
	}
	if err := s.deps.SendLink(ctx, s.id, s.machine.Slots()); err != nil {
		log.Printf("[session] send link call=%s: %v", s.id, err)
	}
}

// speak records the agent utterance and plays it out. Playback runs in its
// own goroutine so the dialog loop stays responsive to barge-in; floor state
// changes are funneled back through s.ops to keep a single writer.
func (s *Session) speak(ctx context.Context, text, phase string, endCall bool) {
	uttID := uuid.NewString()
	sctx, cancel := context.WithCancel(ctx)
	s.synthCancel = cancel
	s.floor.OnSynthStarted(uttID)

	s.deps.Store.AppendUtterance(s.id, types.Utterance{
		Role: types.RoleAgent, Text: text, Phase: phase, Ts: time.Now().UTC(),
	})

	frames, err := s.deps.Synth.Synthesize(sctx, text)
	if err != nil {
		log.Printf("[session] synthesize call=%s: %v", s.id, err)
		cancel()
		s.synthCancel = nil
		s.floor.OnSynthStopped(uttID)
		if endCall {
			s.cancelRun()
		}
		return
	}

	go func() {
		defer cancel()
		for f := range frames {
			if err := s.conn.Send(ctx, transport.Frame(f)); err != nil {
				log.Printf("[session] send audio call=%s: %v", s.id, err)
				break
			}
		}
		s.afterPlayback(uttID, endCall)
	}()
}

// afterPlayback runs in the playback goroutine; mutate loop state via ops so
// the dialog loop applies it. A barge-in may already have cleared this
// utterance, in which case the op is a no-op.
func (s *Session) afterPlayback(uttID string, endCall bool) {
	op := func() {
		if s.floor.OnSynthStopped(uttID) {
			s.synthCancel = nil
		}
		if endCall {
			s.deps.Store.AppendEvent(s.id, "hangup", nil)
			s.cancelRun()
		}
	}
	select {
	case s.ops <- op:
	default:
		// loop already gone; apply the terminal part directly
		if endCall {
			s.cancelRun()
		}
	}
}
