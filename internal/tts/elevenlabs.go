package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nuxero/voice-ai-loan-preapproval-demo/internal/config"
)

// ElevenLabs synthesizes speech via the ElevenLabs REST API, requesting
// ulaw_8000 output so frames can go straight onto the telephony stream.
type ElevenLabs struct {
	apiKey  string
	voiceID string
	model   string
	baseURL string
	client  *http.Client
}

var _ Synthesizer = (*ElevenLabs)(nil)

func NewElevenLabs(cfg config.Config) *ElevenLabs {
	base := cfg.Eleven.BaseURL
	if base == "" {
		base = "https://api.elevenlabs.io"
	}
	return &ElevenLabs{
		apiKey:  cfg.Eleven.APIKey,
		voiceID: cfg.Eleven.VoiceID,
		model:   cfg.Eleven.Model,
		baseURL: base,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (<-chan []byte, error) {
	url := fmt.Sprintf("%s/v1/text-to-speech/%s/stream?output_format=ulaw_8000", e.baseURL, e.voiceID)
	body := map[string]any{"text": text, "model_id": e.model}
	reqBytes, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("content-type", "application/json")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, fmt.Errorf("elevenlabs status=%d body=%s", resp.StatusCode, string(b))
	}

	out := make(chan []byte, 8)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		first := true
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			frame := make([]byte, FrameBytes)
			n, err := io.ReadFull(resp.Body, frame)
			if n > 0 {
				if first {
					first = false
					metricFirstAudioMS.Observe(float64(time.Since(start).Milliseconds()))
				}
				select {
				case out <- frame[:n]:
				case <-ctx.Done():
					metricCancelled.Inc()
					return
				}
			}
			if err != nil {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				metricCancelled.Inc()
				return
			}
		}
	}()
	return out, nil
}
