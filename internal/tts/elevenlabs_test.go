package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/config"
)

func testConfig(baseURL string) config.Config {
	var cfg config.Config
	cfg.Eleven.APIKey = "key"
	cfg.Eleven.VoiceID = "voice"
	cfg.Eleven.Model = "eleven_multilingual_v2"
	cfg.Eleven.BaseURL = baseURL
	return cfg
}

func TestSynthesizeChunksIntoFrames(t *testing.T) {
	audio := make([]byte, FrameBytes*2+40) // two full frames plus a remainder
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("output_format") != "ulaw_8000" {
			t.Errorf("expected ulaw_8000 output format, got %q", r.URL.RawQuery)
		}
		if r.Header.Get("xi-api-key") != "key" {
			t.Errorf("missing api key header")
		}
		w.Write(audio)
	}))
	defer srv.Close()

	e := NewElevenLabs(testConfig(srv.URL))
	frames, err := e.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	var sizes []int
	for f := range frames {
		sizes = append(sizes, len(f))
	}
	if len(sizes) != 3 || sizes[0] != FrameBytes || sizes[1] != FrameBytes || sizes[2] != 40 {
		t.Fatalf("unexpected frame sizes %v", sizes)
	}
}

func TestSynthesizeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewElevenLabs(testConfig(srv.URL))
	if _, err := e.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestSynthesizeCancelStopsFrames(t *testing.T) {
	audio := make([]byte, FrameBytes*50)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(audio)
	}))
	defer srv.Close()

	e := NewElevenLabs(testConfig(srv.URL))
	ctx, cancel := context.WithCancel(context.Background())
	frames, err := e.Synthesize(ctx, "long utterance")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	<-frames // first frame out
	cancel()

	n := 0
	for range frames {
		n++
	}
	// Cancellation must be observed within roughly one frame.
	if n > 2 {
		t.Fatalf("expected stream to stop promptly after cancel, drained %d frames", n)
	}
}

func TestMockSynthesizerCountsCancels(t *testing.T) {
	m := NewMockSynthesizer()
	m.FramesPerUtterance = 100
	m.FrameInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	frames, _ := m.Synthesize(ctx, "x")
	<-frames
	cancel()
	for range frames {
	}
	if m.Cancelled() != 1 {
		t.Fatalf("expected 1 cancelled utterance, got %d", m.Cancelled())
	}
}
