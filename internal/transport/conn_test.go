package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

// dialTestStream stands in for the Twilio side: it dials the handler, sends
// connected + start, and hands back the client socket.
func dialTestStream(t *testing.T) (*Conn, *websocket.Conn, func()) {
	t.Helper()

	conns := make(chan *Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := Accept(r.Context(), w, r)
		if err != nil {
			return
		}
		conns <- c
		<-c.ctx.Done()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	send := func(env envelope) {
		b, _ := json.Marshal(env)
		if err := client.Write(ctx, websocket.MessageText, b); err != nil {
			t.Fatalf("client write: %v", err)
		}
	}
	send(envelope{Event: eventConnected})
	send(envelope{Event: eventStart, Start: &startPayload{
		StreamSid:   "MZ123",
		CallSid:     "CA456",
		MediaFormat: mediaFormat{Encoding: "audio/x-mulaw", SampleRate: 8000, Channels: 1},
	}})

	var conn *Conn
	select {
	case conn = <-conns:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for Accept")
	}

	cleanup := func() {
		cancel()
		_ = client.Close(websocket.StatusNormalClosure, "")
		conn.Close()
		srv.Close()
	}
	return conn, client, cleanup
}

func clientSend(t *testing.T, client *websocket.Conn, env envelope) {
	t.Helper()
	b, _ := json.Marshal(env)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Write(ctx, websocket.MessageText, b); err != nil {
		t.Fatalf("client write: %v", err)
	}
}

func clientRead(t *testing.T, client *websocket.Conn) envelope {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := client.Read(ctx)
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("client unmarshal: %v", err)
	}
	return env
}

func TestAcceptCapturesStreamIdentifiers(t *testing.T) {
	conn, _, cleanup := dialTestStream(t)
	defer cleanup()

	if conn.StreamSid() != "MZ123" || conn.CallSid() != "CA456" {
		t.Fatalf("unexpected sids %q %q", conn.StreamSid(), conn.CallSid())
	}
}

func TestMediaFramesAreDecoded(t *testing.T) {
	conn, client, cleanup := dialTestStream(t)
	defer cleanup()

	audio := []byte{0x7f, 0x80, 0x00, 0xff}
	clientSend(t, client, envelope{Event: eventMedia, Media: &mediaPayload{
		Payload: base64.StdEncoding.EncodeToString(audio),
	}})

	select {
	case f := <-conn.Receive():
		if string(f) != string(audio) {
			t.Fatalf("frame mismatch: %v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestStopClosesReceive(t *testing.T) {
	conn, client, cleanup := dialTestStream(t)
	defer cleanup()

	clientSend(t, client, envelope{Event: eventStop, StreamSid: "MZ123"})

	select {
	case _, ok := <-conn.Receive():
		if ok {
			t.Fatal("expected closed channel, got frame")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("receive did not close on stop")
	}
}

func TestSendProducesMediaEnvelope(t *testing.T) {
	conn, client, cleanup := dialTestStream(t)
	defer cleanup()

	audio := []byte{1, 2, 3, 4}
	if err := conn.Send(context.Background(), audio); err != nil {
		t.Fatalf("send: %v", err)
	}

	env := clientRead(t, client)
	if env.Event != eventMedia || env.StreamSid != "MZ123" || env.Media == nil {
		t.Fatalf("unexpected envelope %+v", env)
	}
	got, err := base64.StdEncoding.DecodeString(env.Media.Payload)
	if err != nil || string(got) != string(audio) {
		t.Fatalf("payload mismatch: %v %v", got, err)
	}
}

func TestCancelOutboundSendsClear(t *testing.T) {
	conn, client, cleanup := dialTestStream(t)
	defer cleanup()

	if err := conn.CancelOutbound(context.Background()); err != nil {
		t.Fatalf("cancel outbound: %v", err)
	}
	env := clientRead(t, client)
	if env.Event != eventClear || env.StreamSid != "MZ123" {
		t.Fatalf("expected clear envelope, got %+v", env)
	}

	// The stream stays usable after a flush.
	if err := conn.Send(context.Background(), []byte{9}); err != nil {
		t.Fatalf("send after clear: %v", err)
	}
	if env := clientRead(t, client); env.Event != eventMedia {
		t.Fatalf("expected media after clear, got %+v", env)
	}
}

func TestAbruptDisconnectClosesReceive(t *testing.T) {
	conn, client, cleanup := dialTestStream(t)
	defer cleanup()

	_ = client.Close(websocket.StatusGoingAway, "gone")

	select {
	case _, ok := <-conn.Receive():
		if ok {
			t.Fatal("expected closed channel on disconnect")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("receive did not close on disconnect")
	}
}
