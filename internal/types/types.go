package types

import "time"

type Role string

const (
	RoleAgent  Role = "agent"
	RoleCaller Role = "caller"
)

// Utterance is one turn of the conversation transcript. Append-only per call.
type Utterance struct {
	Role        Role      `json:"role"`
	Text        string    `json:"text"`
	Phase       string    `json:"phase"`
	Interrupted bool      `json:"interrupted,omitempty"`
	Ts          time.Time `json:"timestamp"`
}

type Event struct {
	Type    string         `json:"type"`
	Ts      time.Time      `json:"timestamp"`
	Payload map[string]any `json:"payload,omitempty"`
}

type Call struct {
	ID        string    `json:"call_id"`
	StreamSid string    `json:"stream_sid"`
	CallSid   string    `json:"call_sid,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
}
