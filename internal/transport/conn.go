package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// Frame is one chunk of mulaw@8k audio in either direction.
type Frame []byte

// Conn terminates one Twilio media stream. Inbound audio frames are
// demultiplexed from control events onto Receive; Send multiplexes outbound
// audio back. An abrupt disconnect closes Receive rather than erroring.
type Conn struct {
	ws     *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc

	streamSid string
	callSid   string

	recv chan Frame

	sendMu sync.Mutex
}

// Accept upgrades the request and consumes protocol events until the start
// envelope arrives, which carries the stream and call identifiers.
func Accept(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		return nil, err
	}
	cctx, cancel := context.WithCancel(ctx)
	c := &Conn{ws: ws, ctx: cctx, cancel: cancel, recv: make(chan Frame, 64)}

	// connected + start arrive before any media
	sctx, scancel := context.WithTimeout(cctx, 10*time.Second)
	defer scancel()
	for c.streamSid == "" {
		env, err := c.read(sctx)
		if err != nil {
			cancel()
			_ = ws.Close(websocket.StatusPolicyViolation, "no start event")
			return nil, fmt.Errorf("awaiting start: %w", err)
		}
		if env.Event == eventStart && env.Start != nil {
			c.streamSid = env.Start.StreamSid
			c.callSid = env.Start.CallSid
		}
	}
	log.Printf("[transport] stream started sid=%s call=%s", c.streamSid, c.callSid)
	metricStreamsStarted.Inc()
	go c.readLoop()
	return c, nil
}

func (c *Conn) StreamSid() string { return c.streamSid }
func (c *Conn) CallSid() string   { return c.callSid }

// Receive returns the inbound audio frame channel. It closes on the stop
// event or abrupt disconnect; a closed channel is the terminal signal.
func (c *Conn) Receive() <-chan Frame { return c.recv }

func (c *Conn) readLoop() {
	defer close(c.recv)
	defer c.cancel()
	for {
		env, err := c.read(c.ctx)
		if err != nil {
			return
		}
		switch env.Event {
		case eventMedia:
			if env.Media == nil {
				continue
			}
			b, err := base64.StdEncoding.DecodeString(env.Media.Payload)
			if err != nil {
				log.Printf("[transport] bad media payload sid=%s: %v", c.streamSid, err)
				continue
			}
			metricFramesIn.Inc()
			select {
			case c.recv <- Frame(b):
			case <-c.ctx.Done():
				return
			}
		case eventStop:
			log.Printf("[transport] stream stopped sid=%s", c.streamSid)
			return
		default:
			// mark acks and unknown events are ignored
		}
	}
}

// Send writes one outbound audio frame. Ordering is preserved per direction.
func (c *Conn) Send(ctx context.Context, f Frame) error {
	env := envelope{
		Event:     eventMedia,
		StreamSid: c.streamSid,
		Media:     &mediaPayload{Payload: base64.StdEncoding.EncodeToString(f)},
	}
	metricFramesOut.Inc()
	return c.write(ctx, env)
}

// CancelOutbound tells the caller side to flush any buffered playback without
// closing the stream. Used on barge-in.
func (c *Conn) CancelOutbound(ctx context.Context) error {
	metricOutboundCancels.Inc()
	return c.write(ctx, envelope{Event: eventClear, StreamSid: c.streamSid})
}

// SendMark inserts a playback marker so the far end can signal drain.
func (c *Conn) SendMark(ctx context.Context, name string) error {
	return c.write(ctx, envelope{Event: eventMark, StreamSid: c.streamSid, Mark: &markPayload{Name: name}})
}

func (c *Conn) Close() error {
	c.cancel()
	return c.ws.Close(websocket.StatusNormalClosure, "done")
}

func (c *Conn) read(ctx context.Context) (*envelope, error) {
	_, data, err := c.ws.Read(ctx)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}
	return &env, nil
}

func (c *Conn) write(ctx context.Context, env envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.ws.Write(wctx, websocket.MessageText, b)
}
