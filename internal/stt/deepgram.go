package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/config"
)

// DeepgramRecognizer maintains a single live websocket connection to Deepgram
// for one call, sending mulaw@8k telephony audio and receiving transcripts.
type DeepgramRecognizer struct {
	ctx    context.Context
	cancel context.CancelFunc

	callID string
	apiKey string
	url    string

	ws *websocket.Conn

	// Outbound audio queue; Send drops-latest on pressure.
	sendQ chan []byte
	frags chan Fragment
	seq   uint64

	// Backoff/circuit
	fails   []time.Time
	circuit time.Time

	// Track last texts for UtteranceEnd fallback finals
	lastText      string
	lastFinalText string
}

var _ Recognizer = (*DeepgramRecognizer)(nil)

func NewDeepgramRecognizer(parent context.Context, callID string, cfg config.Config) *DeepgramRecognizer {
	ctx, cancel := context.WithCancel(parent)
	q := url.Values{}
	q.Set("model", cfg.Deepgram.Model)
	q.Set("language", cfg.Deepgram.Language)
	q.Set("smart_format", "true")
	q.Set("endpointing", fmt.Sprintf("%d", cfg.Deepgram.EndpointingMs))
	q.Set("interim_results", "true")
	q.Set("utterance_end_ms", fmt.Sprintf("%d", cfg.Deepgram.UtterEndMs))
	q.Set("encoding", "mulaw")
	q.Set("sample_rate", "8000")
	q.Set("channels", "1")
	base := cfg.Deepgram.BaseURL
	if base == "" {
		base = "wss://api.deepgram.com/v1/listen"
	}
	d := &DeepgramRecognizer{
		ctx:    ctx,
		cancel: cancel,
		callID: callID,
		apiKey: cfg.Deepgram.APIKey,
		url:    base + "?" + q.Encode(),
		sendQ:  make(chan []byte, 16),
		frags:  make(chan Fragment, 32),
	}
	go d.run()
	return d
}

func (d *DeepgramRecognizer) Fragments() <-chan Fragment { return d.frags }

func (d *DeepgramRecognizer) Close() { d.cancel() }

func (d *DeepgramRecognizer) Send(audio []byte) bool {
	select {
	case d.sendQ <- audio:
		return true
	default:
		metricFramesDropped.Inc()
		return false
	}
}

func (d *DeepgramRecognizer) run() {
	defer close(d.frags)
	for {
		if err := d.connectAndPump(); err != nil {
			d.addFailure()
			log.Printf("[stt] call=%s stream error: %v", d.callID, err)
		} else {
			d.resetFailures()
		}
		if d.ctx.Err() != nil {
			return
		}
		select {
		case <-time.After(d.nextBackoff()):
		case <-d.ctx.Done():
			return
		}
	}
}

func (d *DeepgramRecognizer) connectAndPump() error {
	if time.Now().Before(d.circuit) {
		return fmt.Errorf("circuit open")
	}

	hdr := make(http.Header)
	if d.apiKey != "" {
		hdr.Set("Authorization", "Token "+d.apiKey)
	}
	ctx, cancel := context.WithTimeout(d.ctx, 10*time.Second)
	defer cancel()
	start := time.Now()
	ws, _, err := websocket.Dial(ctx, d.url, &websocket.DialOptions{HTTPHeader: hdr})
	if err != nil {
		return err
	}
	metricConnectMS.Observe(float64(time.Since(start).Milliseconds()))
	d.ws = ws
	defer func() {
		_ = d.ws.Close(websocket.StatusNormalClosure, "bye")
		d.ws = nil
	}()

	go func() {
		for {
			select {
			case <-d.ctx.Done():
				return
			case b := <-d.sendQ:
				if b == nil {
					continue
				}
				wctx, cancel := context.WithTimeout(d.ctx, 5*time.Second)
				err := d.ws.Write(wctx, websocket.MessageBinary, b)
				cancel()
				if err != nil {
					return
				}
				metricAudioBytes.Add(float64(len(b)))
			}
		}
	}()

	for {
		if d.ctx.Err() != nil {
			return nil
		}
		_, data, err := d.ws.Read(d.ctx)
		if err != nil {
			if d.ctx.Err() != nil {
				return nil
			}
			return err
		}
		if len(data) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		d.handleMessage(m)
	}
}

// handleMessage parses one provider frame and emits fragments. Deepgram puts
// alternatives under "channel"; UtteranceEnd is used as a fallback final when
// an is_final result was missed.
func (d *DeepgramRecognizer) handleMessage(m map[string]any) {
	typ := toString(m["type"])
	switch {
	case strings.EqualFold(typ, "Error") || m["error"] != nil:
		msg := toString(m["error"])
		if msg == "" {
			msg = toString(m["message"])
		}
		log.Printf("[stt] call=%s provider error: %s", d.callID, msg)

	case strings.EqualFold(typ, "Results") || m["channel"] != nil:
		text := transcriptText(m)
		isFinal := toBool(m["is_final"]) || toBool(m["speech_final"])
		if text != "" {
			d.lastText = text
		}
		if isFinal {
			if text == "" {
				return
			}
			d.lastFinalText = text
			d.emit(text, true)
			metricFinalEmitted.WithLabelValues("provider").Inc()
		} else if text != "" {
			d.emit(text, false)
		}

	case strings.EqualFold(typ, "UtteranceEnd"):
		fallback := d.lastFinalText
		source := "provider_cached"
		if fallback == "" {
			fallback = d.lastText
			source = "interim_fallback"
		}
		if fallback != "" && d.lastFinalText == "" {
			d.emit(fallback, true)
			metricFinalEmitted.WithLabelValues(source).Inc()
		}
		d.lastText = ""
		d.lastFinalText = ""
	}
}

func transcriptText(m map[string]any) string {
	channel, _ := m["channel"].(map[string]any)
	if channel == nil {
		return ""
	}
	alts, _ := channel["alternatives"].([]any)
	if len(alts) == 0 {
		return ""
	}
	a0, _ := alts[0].(map[string]any)
	if a0 == nil {
		return ""
	}
	return strings.TrimSpace(toString(a0["transcript"]))
}

func (d *DeepgramRecognizer) emit(text string, final bool) {
	d.seq++
	f := Fragment{Text: text, Final: final, Seq: d.seq, Ts: time.Now()}
	select {
	case d.frags <- f:
	default:
		// drop interims if the consumer is slow; never drop finals
		if final {
			select {
			case d.frags <- f:
			case <-d.ctx.Done():
			}
		}
	}
}

func (d *DeepgramRecognizer) addFailure() {
	d.fails = append(d.fails, time.Now())
	cutoff := time.Now().Add(-60 * time.Second)
	j := 0
	for _, t := range d.fails {
		if t.After(cutoff) {
			d.fails[j] = t
			j++
		}
	}
	d.fails = d.fails[:j]
	if len(d.fails) >= 3 {
		d.circuit = time.Now().Add(30 * time.Second)
		metricCircuitOpens.Inc()
	}
}

func (d *DeepgramRecognizer) resetFailures() { d.fails = nil }

func (d *DeepgramRecognizer) nextBackoff() time.Duration {
	n := len(d.fails)
	if n <= 0 {
		return time.Second
	}
	if n > 5 {
		n = 5
	}
	base := time.Duration(1<<uint(n-1)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	return base
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	default:
		return false
	}
}
