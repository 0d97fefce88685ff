package discord

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/siliconsorcerers/sonicblaster/internal/config"
	"github.com/siliconsorcerers/sonicblaster/internal/profile"
	"github.com/siliconsorcerers/sonicblaster/internal/session"
	"github.com/siliconsorcerers/sonicblaster/internal/speech"
	"github.com/siliconsorcerers/sonicblaster/internal/storage"
	"github.com/siliconsorcerers/sonicblaster/internal/tts"
)

// Bot wires the Discord gateway to the voice sessions and the synthesis
// pipeline.
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	manager  *session.Manager
	pipeline *speech.Pipeline
	profiles *profile.Store
	store    *storage.Storage

	// Quit receives one value when an admin issues !quit.
	Quit chan struct{}
}

func NewBot(cfg *config.Config, profiles *profile.Store, store *storage.Storage, synth tts.Synthesizer) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	b := &Bot{
		dg:       dg,
		cfg:      cfg,
		profiles: profiles,
		store:    store,
		Quit:     make(chan struct{}, 1),
	}
	b.manager = session.NewManager(b, cfg.QueueLimit)
	b.pipeline = speech.NewPipeline(synth, profiles, speech.Options{
		DefaultVoice: cfg.DefaultVoice,
		Language:     cfg.Language,
		Timeout:      cfg.SynthTimeout,
		Rate:         cfg.SynthRate,
	})
	return b, nil
}

// Run opens the gateway and blocks until ctx is canceled, then tears down
// every active voice session.
func (b *Bot) Run(ctx context.Context) error {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onGuildCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	log.Println("[INFO] Shutdown signal received. Cleaning up...")
	b.manager.CloseAll()
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("[INFO] Connected to Discord as %s", r.User.Username)
	if b.cfg.InstallURL != "" {
		log.Printf("[INFO] Install URL: %s", b.cfg.InstallURL)
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Printf("[INFO] Bot added to guild: %s (%s)", g.Guild.ID, g.Guild.Name)
}

// onMessageCreate routes every incoming message: command prefix goes to the
// dispatcher, everything else is spoken when the guild has a live session.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}
	if m.GuildID == "" {
		return // DMs have no voice channel to speak into
	}

	content := m.Content
	if content == "" {
		log.Println("[WARN] Message is empty, message content intent may be disabled")
		return
	}

	log.Printf("[%s:%s] %s: %s", m.GuildID, m.ChannelID, m.Author.Username, content)

	// A leading ? makes the reply private (DM).
	private := false
	if strings.HasPrefix(content, "?") {
		private = true
		content = content[1:]
	}

	if strings.HasPrefix(content, "!") {
		b.handleCommand(s, m, content, private)
		return
	}

	sess, ok := b.manager.Session(m.GuildID)
	if !ok {
		return // not connected here, ignore the message
	}
	b.pipeline.Speak(context.Background(), sess, m.Author.Username, content)
}
