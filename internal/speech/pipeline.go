package speech

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/siliconsorcerers/sonicblaster/internal/profile"
	"github.com/siliconsorcerers/sonicblaster/internal/session"
	"github.com/siliconsorcerers/sonicblaster/internal/tts"
)

// ProfileSource resolves a username to its stored speech identity.
// Satisfied by *profile.Store.
type ProfileSource interface {
	Get(username string) profile.Profile
}

// Options configures a Pipeline.
type Options struct {
	DefaultVoice string
	Language     string
	Timeout      time.Duration // per-request synthesis bound
	Rate         float64       // synthesis requests per second, process-wide
}

// Pipeline turns "speak this for user X" requests into queued audio without
// blocking the caller. Each request runs as its own goroutine; the result
// re-enters the session's serialized queue path via Submit.
type Pipeline struct {
	synth    tts.Synthesizer
	profiles ProfileSource
	limiter  *rate.Limiter
	opts     Options
}

func NewPipeline(synth tts.Synthesizer, profiles ProfileSource, opts Options) *Pipeline {
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	if opts.Rate <= 0 {
		opts.Rate = 2
	}
	return &Pipeline{
		synth:    synth,
		profiles: profiles,
		limiter:  rate.NewLimiter(rate.Limit(opts.Rate), 1),
		opts:     opts,
	}
}

// Speak synthesizes text for username and hands the audio to sess. It
// returns immediately; failures are logged and dropped so they never stall
// the guild's queue. A result arriving after the session was torn down is
// discarded.
func (p *Pipeline) Speak(ctx context.Context, sess *session.Session, username, text string) {
	go p.speak(ctx, sess, username, text)
}

func (p *Pipeline) speak(ctx context.Context, sess *session.Session, username, text string) {
	if err := p.limiter.Wait(ctx); err != nil {
		log.Printf("[Speech] %s: request canceled while rate-limited: %v", sess.GuildID(), err)
		return
	}

	prof := p.profiles.Get(username)

	name := prof.Nickname
	if name == "" {
		log.Printf("[Speech] No nickname stored for %q, using username", username)
		name = username
	}

	// How the reference is interpreted (wav path, provider voice ID) is up
	// to the synthesizer.
	voice := prof.Voice
	if voice == "" {
		voice = p.opts.DefaultVoice
	}

	line := SpokenLine(name, text)

	synthCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	audio, err := p.synth.Synthesize(synthCtx, line, voice, p.opts.Language)
	if err != nil {
		log.Printf("[Speech] %s: synthesis failed for %q, dropping request: %v", sess.GuildID(), username, err)
		return
	}

	switch err := sess.Submit(audio); {
	case err == nil:
	case errors.Is(err, session.ErrSessionClosed):
		// Session torn down while synthesis was in flight.
		log.Printf("[Speech] %s: session gone, discarding synthesized clip", sess.GuildID())
	default:
		log.Printf("[Speech] %s: could not queue clip: %v", sess.GuildID(), err)
	}
}
