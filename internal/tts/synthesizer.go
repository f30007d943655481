package tts

import "context"

// FrameBytes is one 20 ms mulaw@8k frame.
const FrameBytes = 160

// Synthesizer converts an utterance into a paced sequence of outbound audio
// frames. Cancelling ctx stops the stream within one frame; the channel closes
// when the utterance is fully emitted or cancelled.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (<-chan []byte, error)
}
