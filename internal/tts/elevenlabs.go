package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

const elevenLabsModelID = "eleven_flash_v2_5"

// ElevenLabs streams synthesis over the stream-input websocket API. Here
// voiceRef is an ElevenLabs voice ID rather than a wav path; chunks are
// collected into one buffer since playback is whole-clip.
type ElevenLabs struct {
	apiKey string
}

func NewElevenLabs(apiKey string) *ElevenLabs {
	return &ElevenLabs{apiKey: apiKey}
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text, voiceRef, language string) ([]byte, error) {
	url := fmt.Sprintf(
		"wss://api.elevenlabs.io/v1/text-to-speech/%s/stream-input?model_id=%s&output_format=mp3_44100_128",
		voiceRef, elevenLabsModelID,
	)

	header := http.Header{}
	header.Set("xi-api-key", e.apiKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs dial error: %w", err)
	}
	defer conn.Close()

	// Close the socket when the context expires so the read loop below
	// unblocks with an error instead of hanging past the deadline.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := conn.WriteJSON(map[string]any{
		"text":                   text,
		"try_trigger_generation": true,
	}); err != nil {
		return nil, fmt.Errorf("elevenlabs send error: %w", err)
	}
	// Empty text signals end of input.
	if err := conn.WriteJSON(map[string]string{"text": ""}); err != nil {
		return nil, fmt.Errorf("elevenlabs end signal error: %w", err)
	}

	var audio []byte
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("elevenlabs read error: %w", err)
		}

		var chunk struct {
			Audio   string `json:"audio"`
			IsFinal bool   `json:"isFinal"`
		}
		if err := json.Unmarshal(message, &chunk); err != nil {
			continue
		}

		if chunk.Audio != "" {
			decoded, err := base64.StdEncoding.DecodeString(chunk.Audio)
			if err != nil {
				return nil, fmt.Errorf("elevenlabs audio decode error: %w", err)
			}
			audio = append(audio, decoded...)
		}
		if chunk.IsFinal {
			break
		}
	}

	if len(audio) == 0 {
		return nil, fmt.Errorf("elevenlabs returned no audio")
	}
	return audio, nil
}
