package session

import (
	"errors"
	"sync"
	"testing"
)

type fakeConnector struct {
	mu         sync.Mutex
	transports []*fakeTransport
	connectErr error
}

func (f *fakeConnector) Connect(guildID, channelID string) (Transport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	tr := &fakeTransport{}
	f.transports = append(f.transports, tr)
	return tr, nil
}

func TestJoinWithoutVoiceChannel(t *testing.T) {
	m := NewManager(&fakeConnector{}, 0)

	if _, err := m.Join("g1", ""); !errors.Is(err, ErrNotInVoiceChannel) {
		t.Fatalf("Join() error = %v, want ErrNotInVoiceChannel", err)
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0 (failed join must not register a session)", m.Count())
	}
}

func TestJoinConnectError(t *testing.T) {
	conn := &fakeConnector{connectErr: errors.New("gateway down")}
	m := NewManager(conn, 0)

	if _, err := m.Join("g1", "ch1"); err == nil {
		t.Fatal("Join() error = nil, want connect error")
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}
}

func TestRejoinTearsDownPriorTransport(t *testing.T) {
	conn := &fakeConnector{}
	m := NewManager(conn, 0)

	first, err := m.Join("g1", "ch1")
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	second, err := m.Join("g1", "ch2")
	if err != nil {
		t.Fatalf("rejoin error = %v", err)
	}

	if len(conn.transports) != 2 {
		t.Fatalf("created %d transports, want 2", len(conn.transports))
	}
	if !conn.transports[0].isDisconnected() {
		t.Error("first transport still connected after rejoin")
	}
	if conn.transports[1].isDisconnected() {
		t.Error("second transport disconnected, want live")
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}

	// The torn-down session must refuse late synthesis results.
	if err := first.Submit([]byte("stale")); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("old session Submit() error = %v, want ErrSessionClosed", err)
	}
	if err := second.Submit([]byte("fresh")); err != nil {
		t.Errorf("new session Submit() error = %v", err)
	}
}

func TestLeaveWithoutSession(t *testing.T) {
	m := NewManager(&fakeConnector{}, 0)

	if err := m.Leave("g1"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("Leave() error = %v, want ErrNoActiveSession", err)
	}
}

func TestLeaveDisconnectsAndRemoves(t *testing.T) {
	conn := &fakeConnector{}
	m := NewManager(conn, 0)

	s, _ := m.Join("g1", "ch1")
	s.Submit([]byte("current"))
	s.Submit([]byte("queued1"))
	s.Submit([]byte("queued2"))

	if err := m.Leave("g1"); err != nil {
		t.Fatalf("Leave() error = %v", err)
	}

	if !conn.transports[0].isDisconnected() {
		t.Error("transport still connected after Leave")
	}
	if _, ok := m.Session("g1"); ok {
		t.Error("session still registered after Leave")
	}
	if got := s.QueueLen(); got != 0 {
		t.Errorf("QueueLen() = %d, want 0 after Leave", got)
	}

	// Completion callbacks for the discarded clips may still arrive.
	conn.transports[0].finish(0, nil)
	if got := conn.transports[0].playCount(); got != 1 {
		t.Errorf("transport.Play called %d times after Leave, want 1", got)
	}
}

func TestSessionLookup(t *testing.T) {
	m := NewManager(&fakeConnector{}, 0)

	if _, ok := m.Session("g1"); ok {
		t.Error("Session() = ok for unknown guild")
	}

	want, _ := m.Join("g1", "ch1")
	got, ok := m.Session("g1")
	if !ok || got != want {
		t.Errorf("Session() = %v/%v, want the joined session", got, ok)
	}
}

func TestGuildsAreIsolated(t *testing.T) {
	conn := &fakeConnector{}
	m := NewManager(conn, 0)

	s1, _ := m.Join("g1", "ch1")
	s2, _ := m.Join("g2", "ch2")

	s1.Submit([]byte("a"))
	s2.Submit([]byte("b"))

	// A failure in g1 must not disturb g2.
	conn.transports[0].finish(0, errors.New("boom"))

	if err := m.Leave("g1"); err != nil {
		t.Fatalf("Leave(g1) error = %v", err)
	}
	if s2.Playing() != true {
		t.Error("g2 stopped playing after g1 failure/leave")
	}
	if err := s2.Submit([]byte("c")); err != nil {
		t.Errorf("g2 Submit() error = %v", err)
	}
}

func TestCloseAll(t *testing.T) {
	conn := &fakeConnector{}
	m := NewManager(conn, 0)

	m.Join("g1", "ch1")
	m.Join("g2", "ch2")
	m.CloseAll()

	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}
	for i, tr := range conn.transports {
		if !tr.isDisconnected() {
			t.Errorf("transport %d still connected after CloseAll", i)
		}
	}
}
