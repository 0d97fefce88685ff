package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestXTTSSynthesize(t *testing.T) {
	var gotPath, gotContentType string
	var gotReq xttsRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("request decode error: %v", err)
		}
		w.Write([]byte("RIFF-audio"))
	}))
	defer srv.Close()

	x := NewXTTS(srv.URL+"/", "voices")
	audio, err := x.Synthesize(context.Background(), "Ganf says hello", "ganf.wav", "en")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if string(audio) != "RIFF-audio" {
		t.Errorf("audio = %q, want %q", audio, "RIFF-audio")
	}
	if gotPath != "/tts_to_audio/" {
		t.Errorf("request path = %q, want %q", gotPath, "/tts_to_audio/")
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotReq.Text != "Ganf says hello" {
		t.Errorf("text = %q, want %q", gotReq.Text, "Ganf says hello")
	}
	if want := filepath.Join("voices", "ganf.wav"); gotReq.SpeakerWav != want {
		t.Errorf("speaker_wav = %q, want %q", gotReq.SpeakerWav, want)
	}
	if gotReq.Language != "en" {
		t.Errorf("language = %q, want %q", gotReq.Language, "en")
	}
}

func TestXTTSServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	x := NewXTTS(srv.URL, "voices")
	if _, err := x.Synthesize(context.Background(), "hi", "v.wav", "en"); err == nil {
		t.Fatal("Synthesize() on 500 returned nil error")
	} else if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "model not loaded") {
		t.Errorf("error = %q, want status and body included", err)
	}
}

func TestXTTSEmptyAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	x := NewXTTS(srv.URL, "voices")
	if _, err := x.Synthesize(context.Background(), "hi", "v.wav", "en"); err == nil {
		t.Fatal("Synthesize() with empty body returned nil error")
	}
}

func TestXTTSHonorsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	x := NewXTTS(srv.URL, "voices")
	if _, err := x.Synthesize(ctx, "hi", "v.wav", "en"); err == nil {
		t.Fatal("Synthesize() past deadline returned nil error")
	}
}
