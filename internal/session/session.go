package session

import (
	"errors"
	"log"
	"sync"
)

var (
	ErrNotInVoiceChannel = errors.New("user is not in a voice channel")
	ErrNoActiveSession   = errors.New("no active voice session for guild")
	ErrSessionClosed     = errors.New("voice session is closed")
	ErrQueueFull         = errors.New("playback queue is full")
)

// Transport is one live voice connection. Play must not block: it starts
// playback of the whole clip and reports completion (or failure) exactly
// once through done. Owned exclusively by the Session that holds it.
type Transport interface {
	Play(clip []byte, done func(error)) error
	Disconnect() error
}

// Session owns the voice transport and playback queue for a single guild.
//
// Clip handling follows the completion-order policy: a clip submitted while
// idle starts playing immediately, bypassing the queue; a clip submitted
// while playing is appended to the tail. Completions advance the queue in
// strict FIFO order.
type Session struct {
	guildID   string
	transport Transport
	limit     int

	mu      sync.Mutex
	queue   [][]byte
	playing bool
	closed  bool

	done      chan error
	stop      chan struct{}
	closeOnce sync.Once
}

func newSession(guildID string, transport Transport, queueLimit int) *Session {
	s := &Session{
		guildID:   guildID,
		transport: transport,
		limit:     queueLimit,
		done:      make(chan error, 1),
		stop:      make(chan struct{}),
	}
	go s.run()
	return s
}

// GuildID returns the guild this session belongs to.
func (s *Session) GuildID() string { return s.guildID }

// Submit hands a synthesized clip to the session. If nothing is playing the
// clip starts immediately; otherwise it queues behind the current clip.
func (s *Session) Submit(clip []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	if s.playing {
		if s.limit > 0 && len(s.queue) >= s.limit {
			log.Printf("[Session] %s: queue full (%d clips), rejecting clip", s.guildID, len(s.queue))
			return ErrQueueFull
		}
		s.queue = append(s.queue, clip)
		return nil
	}

	s.playing = true
	s.startLocked(clip)
	return nil
}

// Playing reports whether a clip is currently rendering.
func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// QueueLen returns the number of clips waiting behind the current one.
func (s *Session) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close tears the session down: clears the queue, disconnects the transport
// and stops the event loop. In-flight synthesis results submitted after
// Close are rejected with ErrSessionClosed. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.playing = false
		s.queue = nil
		transport := s.transport
		s.mu.Unlock()

		close(s.stop)
		if err := transport.Disconnect(); err != nil {
			log.Printf("[Session] %s: disconnect error: %v", s.guildID, err)
		}
		log.Printf("[Session] %s: closed", s.guildID)
	})
}

// run serializes queue-advance transitions for this guild. Transport
// completion callbacks land on s.done and are consumed here, never inline.
func (s *Session) run() {
	for {
		select {
		case err := <-s.done:
			s.advance(err)
		case <-s.stop:
			return
		}
	}
}

// advance handles one playback completion: pop the head and keep playing,
// or return to idle. A playback failure advances exactly like a completion.
func (s *Session) advance(playErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if playErr != nil {
		log.Printf("[Session] %s: playback failed, skipping to next clip: %v", s.guildID, playErr)
	}

	if len(s.queue) == 0 {
		s.playing = false
		return
	}

	clip := s.queue[0]
	s.queue = s.queue[1:]
	s.startLocked(clip)
}

// startLocked begins playback of clip. Caller holds s.mu and has already
// set s.playing. A Play error is funneled through notifyDone so the advance
// path stays the single place that moves the state machine.
func (s *Session) startLocked(clip []byte) {
	if err := s.transport.Play(clip, s.notifyDone); err != nil {
		log.Printf("[Session] %s: transport rejected clip: %v", s.guildID, err)
		go s.notifyDone(err)
	}
}

// notifyDone delivers a completion event to the session loop. Events
// arriving after Close are discarded.
func (s *Session) notifyDone(err error) {
	select {
	case s.done <- err:
	case <-s.stop:
	}
}
