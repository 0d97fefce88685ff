package tts

import "context"

// Synthesizer turns text plus a reference voice into a finite audio buffer.
// Implementations are remote services and may fail or take variable time;
// callers bound them with a context deadline.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceRef, language string) ([]byte, error)
}
