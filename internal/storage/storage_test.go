package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "datastore.json"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCommandHistoryRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	cmd := CommandRecord{
		ChannelID: "ch1",
		Username:  "alice",
		Command:   "join",
		Param:     "",
		Datetime:  time.Now(),
	}
	if err := s.AppendCommandToHistory("g1", cmd); err != nil {
		t.Fatalf("AppendCommandToHistory() error = %v", err)
	}

	history, err := s.FetchCommandHistory("g1")
	if err != nil {
		t.Fatalf("FetchCommandHistory() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("len(history) = %d, want 1", len(history))
	}
	if history[0].Username != "alice" || history[0].Command != "join" {
		t.Errorf("history[0] = %+v, want alice's join", history[0])
	}
}

func TestCommandHistoryIsCapped(t *testing.T) {
	s := newTestStorage(t)

	for i := 0; i < commandHistoryLimit+5; i++ {
		cmd := CommandRecord{Username: "alice", Command: fmt.Sprintf("cmd%d", i)}
		if err := s.AppendCommandToHistory("g1", cmd); err != nil {
			t.Fatalf("AppendCommandToHistory() error = %v", err)
		}
	}

	history, err := s.FetchCommandHistory("g1")
	if err != nil {
		t.Fatalf("FetchCommandHistory() error = %v", err)
	}
	if len(history) > commandHistoryLimit+1 {
		t.Errorf("len(history) = %d, want at most %d", len(history), commandHistoryLimit+1)
	}
	// The newest entries survive the trim.
	last := history[len(history)-1]
	if want := fmt.Sprintf("cmd%d", commandHistoryLimit+4); last.Command != want {
		t.Errorf("newest command = %q, want %q", last.Command, want)
	}
}

func TestVoiceChannelRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	ch, err := s.GetVoiceChannel("g1")
	if err != nil {
		t.Fatalf("GetVoiceChannel() error = %v", err)
	}
	if ch != "" {
		t.Errorf("GetVoiceChannel() on fresh guild = %q, want empty", ch)
	}

	if err := s.SetVoiceChannel("g1", "voice-42"); err != nil {
		t.Fatalf("SetVoiceChannel() error = %v", err)
	}
	ch, err = s.GetVoiceChannel("g1")
	if err != nil {
		t.Fatalf("GetVoiceChannel() error = %v", err)
	}
	if ch != "voice-42" {
		t.Errorf("GetVoiceChannel() = %q, want voice-42", ch)
	}

	if err := s.SetVoiceChannel("g1", ""); err != nil {
		t.Fatalf("SetVoiceChannel(clear) error = %v", err)
	}
	ch, _ = s.GetVoiceChannel("g1")
	if ch != "" {
		t.Errorf("GetVoiceChannel() after clear = %q, want empty", ch)
	}
}

func TestGuildRecordsAreIsolated(t *testing.T) {
	s := newTestStorage(t)

	if err := s.SetVoiceChannel("g1", "voice-1"); err != nil {
		t.Fatalf("SetVoiceChannel() error = %v", err)
	}
	if err := s.AppendCommandToHistory("g2", CommandRecord{Username: "bob", Command: "leave"}); err != nil {
		t.Fatalf("AppendCommandToHistory() error = %v", err)
	}

	ch, _ := s.GetVoiceChannel("g2")
	if ch != "" {
		t.Errorf("g2 voice channel = %q, want empty", ch)
	}
	history, _ := s.FetchCommandHistory("g1")
	if len(history) != 0 {
		t.Errorf("g1 history = %+v, want empty", history)
	}
}
