// call-sim drives a fake phone call against a running server: it speaks the
// media stream protocol over /ws, feeds silence frames, and prints every
// event the server sends back. Useful for checking the call path without a
// telephony provider.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nhooyr.io/websocket"
)

type envelope struct {
	Event     string         `json:"event"`
	StreamSid string         `json:"streamSid,omitempty"`
	Start     map[string]any `json:"start,omitempty"`
	Media     *mediaPayload  `json:"media,omitempty"`
	Mark      map[string]any `json:"mark,omitempty"`
}

type mediaPayload struct {
	Payload string `json:"payload"`
}

func main() {
	wsURL := flag.String("url", "ws://localhost:8000/ws", "media stream websocket URL")
	duration := flag.Duration("duration", 30*time.Second, "how long to keep the call up")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		cancel()
	}()

	conn, _, err := websocket.Dial(ctx, *wsURL, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", *wsURL, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	streamSid := fmt.Sprintf("SIM%d", time.Now().Unix())
	send := func(env envelope) {
		b, _ := json.Marshal(env)
		if err := conn.Write(ctx, websocket.MessageText, b); err != nil {
			log.Fatalf("write: %v", err)
		}
	}

	fmt.Printf("=== Call Simulator ===\n")
	fmt.Printf("URL: %s\n", *wsURL)
	fmt.Printf("Stream: %s\n\n", streamSid)

	send(envelope{Event: "connected"})
	send(envelope{
		Event:     "start",
		StreamSid: streamSid,
		Start: map[string]any{
			"streamSid": streamSid,
			"callSid":   "CA" + streamSid,
			"mediaFormat": map[string]any{
				"encoding":   "audio/x-mulaw",
				"sampleRate": 8000,
				"channels":   1,
			},
		},
	})

	// Receiver: count inbound audio, print control events.
	done := make(chan struct{})
	go func() {
		defer close(done)
		var frames, bytes int
		last := time.Now()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				if frames > 0 {
					fmt.Printf("\n[recv] %d frames, %d bytes total\n", frames, bytes)
				}
				return
			}
			var env envelope
			if err := json.Unmarshal(data, &env); err != nil {
				continue
			}
			switch env.Event {
			case "media":
				b, _ := base64.StdEncoding.DecodeString(env.Media.Payload)
				frames++
				bytes += len(b)
				if time.Since(last) > time.Second {
					fmt.Printf("[%s] <- media: %d frames so far\n", time.Now().Format("15:04:05.000"), frames)
					last = time.Now()
				}
			case "clear":
				fmt.Printf("[%s] <- clear (barge-in flush)\n", time.Now().Format("15:04:05.000"))
			case "mark":
				fmt.Printf("[%s] <- mark: %v\n", time.Now().Format("15:04:05.000"), env.Mark)
			default:
				fmt.Printf("[%s] <- %s\n", time.Now().Format("15:04:05.000"), env.Event)
			}
		}
	}()

	// Caller audio: one 20ms mulaw silence frame per tick.
	silence := make([]byte, 160)
	for i := range silence {
		silence[i] = 0xff // mulaw zero level
	}
	payload := base64.StdEncoding.EncodeToString(silence)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			send(envelope{Event: "media", StreamSid: streamSid, Media: &mediaPayload{Payload: payload}})
		case <-ctx.Done():
			stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
			b, _ := json.Marshal(envelope{Event: "stop", StreamSid: streamSid})
			_ = conn.Write(stopCtx, websocket.MessageText, b)
			stopCancel()
			<-done
			fmt.Println("[*] call ended")
			return
		case <-done:
			fmt.Println("[*] server closed the stream")
			return
		}
	}
}
