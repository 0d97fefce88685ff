package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// XTTS is a client for a Coqui XTTS inference server. The server holds the
// model; this client only ships text and a speaker wav reference. voiceRef
// is a wav filename resolved against voicesDir.
type XTTS struct {
	baseURL   string
	voicesDir string
	client    *http.Client
}

type xttsRequest struct {
	Text       string `json:"text"`
	SpeakerWav string `json:"speaker_wav"`
	Language   string `json:"language"`
}

func NewXTTS(baseURL, voicesDir string) *XTTS {
	return &XTTS{
		baseURL:   strings.TrimRight(baseURL, "/"),
		voicesDir: voicesDir,
		// No client-side timeout here: the pipeline bounds each call with
		// a context deadline.
		client: &http.Client{},
	}
}

// Synthesize posts the text to the XTTS server and returns the rendered
// audio bytes.
func (x *XTTS) Synthesize(ctx context.Context, text, voiceRef, language string) ([]byte, error) {
	payload, err := json.Marshal(xttsRequest{
		Text:       text,
		SpeakerWav: filepath.Join(x.voicesDir, voiceRef),
		Language:   language,
	})
	if err != nil {
		return nil, fmt.Errorf("xtts request marshal error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.baseURL+"/tts_to_audio/", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("xtts request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := x.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("xtts call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("xtts server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("xtts response read error: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("xtts server returned empty audio after %v", time.Since(start))
	}
	return audio, nil
}
