package transport

// Twilio Media Streams wire protocol: JSON envelopes over one websocket.
// The caller side sends connected/start/media/stop; we send media/mark/clear.

type envelope struct {
	Event     string        `json:"event"`
	StreamSid string        `json:"streamSid,omitempty"`
	Start     *startPayload `json:"start,omitempty"`
	Media     *mediaPayload `json:"media,omitempty"`
	Mark      *markPayload  `json:"mark,omitempty"`
}

type startPayload struct {
	StreamSid   string      `json:"streamSid"`
	CallSid     string      `json:"callSid,omitempty"`
	AccountSid  string      `json:"accountSid,omitempty"`
	MediaFormat mediaFormat `json:"mediaFormat"`
}

type mediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

type mediaPayload struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	// Payload is base64 mulaw audio.
	Payload string `json:"payload"`
}

type markPayload struct {
	Name string `json:"name"`
}

const (
	eventConnected = "connected"
	eventStart     = "start"
	eventMedia     = "media"
	eventMark      = "mark"
	eventStop      = "stop"
	eventClear     = "clear"
)
