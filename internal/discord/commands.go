package discord

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/siliconsorcerers/sonicblaster/internal/session"
	"github.com/siliconsorcerers/sonicblaster/internal/storage"
)

const sourceURL = "https://github.com/SiliconSorcerers/SonicBlaster"

var eightBallAnswers = []string{
	// yes's
	"Yes",
	"Unequivocally yes",
	"Yes, without the shadow of a doubt",
	"Count on it",
	"Does a bear shit in the woods?",
	// no's
	"No",
	"Not a snowball's chance in hell",
	"Don't hold your breath",
	"When pigs fly",
	"Dream on",
	// neutral
	"The dark side clouds everything. Impossible to see the future is.",
	"Ask again later",
	"The answer is hidden in the tea leaves",
	"The universe is still deciding",
	"The path ahead is unclear",
}

// handleCommand dispatches one !-prefixed message. Replies go to the
// channel, or to the author's DM when the command carried the ? prefix.
func (b *Bot) handleCommand(s *discordgo.Session, m *discordgo.MessageCreate, content string, private bool) {
	reply := func(text string) {
		if text == "" {
			return
		}
		if private {
			ch, err := s.UserChannelCreate(m.Author.ID)
			if err != nil {
				log.Printf("[ERR] Failed to open DM with %s: %v", m.Author.Username, err)
				return
			}
			_, err = s.ChannelMessageSend(ch.ID, text)
			if err != nil {
				log.Printf("[ERR] Failed to send DM: %v", err)
			}
			return
		}
		if _, err := s.ChannelMessageSend(m.ChannelID, text); err != nil {
			log.Printf("[ERR] Failed to send message: %v", err)
		}
	}

	name, param, _ := strings.Cut(content, " ")
	lowered := strings.ToLower(name)

	if err := b.store.AppendCommandToHistory(m.GuildID, storage.CommandRecord{
		ChannelID: m.ChannelID,
		Username:  m.Author.Username,
		Command:   lowered,
		Param:     param,
		Datetime:  time.Now(),
	}); err != nil {
		log.Printf("[WARN] Failed to record command history: %v", err)
	}

	switch lowered {
	case "!join":
		reply(b.join(m))

	case "!leave":
		reply(b.leave(m.GuildID))

	case "!help", "!commands":
		reply("Available commands: !join, !leave, !voice, !voice-dl, !nick, !dice, !coin, !8ball, !help, !commands, !url, !source")

	case "!source":
		reply("The source code for Sonic Blaster is available on GitHub: " + sourceURL)

	case "!url":
		reply(fmt.Sprintf("To install Sonic Blaster in your discord server visit our install URL: %s", b.cfg.InstallURL))

	case "!dice":
		reply(fmt.Sprintf("Rolling a dice... you got %d", rand.Intn(6)+1))

	case "!coin":
		flips := []string{"Heads", "Tails"}
		reply(fmt.Sprintf("Flipping a coin... you got %s", flips[rand.Intn(len(flips))]))

	case "!8ball":
		if param != "" {
			reply(eightBallAnswers[rand.Intn(len(eightBallAnswers))])
		}

	case "!connlist":
		reply(fmt.Sprintf("Active voice connections: %v", b.manager.GuildIDs()))

	case "!voice":
		reply(b.setVoice(m.Author.Username, param))

	case "!voice-dl":
		reply(b.enqueueVoiceDownload(m.Author.Username, param))

	case "!nick":
		reply(b.setNickname(m.Author.Username, param))

	case "!quit":
		if b.cfg.IsAdmin(m.Author.Username) {
			log.Printf("[INFO] Quit requested by admin %s", m.Author.Username)
			select {
			case b.Quit <- struct{}{}:
			default:
			}
		}
	}
}

// join connects the bot to the author's voice channel, dropping any
// existing connection for the guild first.
func (b *Bot) join(m *discordgo.MessageCreate) string {
	channelID, err := b.findUserVoiceChannel(m.GuildID, m.Author.ID)
	if err != nil {
		log.Printf("[ERR] Voice state lookup failed: %v", err)
		return "An error occurred"
	}
	if channelID == "" {
		return "You are not in a voice channel"
	}

	if _, ok := b.manager.Session(m.GuildID); ok {
		// Manager tears the old session down inside Join; this message just
		// mirrors what is about to happen.
		b.announce(m.ChannelID, "Dropping existing connection...Leaving voice channel...")
	}

	b.announce(m.ChannelID, "Joining voice channel...")
	if _, err := b.manager.Join(m.GuildID, channelID); err != nil {
		log.Printf("[ERR] Join failed for guild %s: %v", m.GuildID, err)
		return "An error occurred"
	}

	if err := b.store.SetVoiceChannel(m.GuildID, channelID); err != nil {
		log.Printf("[WARN] Failed to record voice channel: %v", err)
	}
	return ""
}

func (b *Bot) leave(guildID string) string {
	if err := b.manager.Leave(guildID); err != nil {
		if errors.Is(err, session.ErrNoActiveSession) {
			return "I am not in a voice channel"
		}
		log.Printf("[ERR] Leave failed for guild %s: %v", guildID, err)
		return "An error occurred"
	}

	if err := b.store.SetVoiceChannel(guildID, ""); err != nil {
		log.Printf("[WARN] Failed to clear voice channel record: %v", err)
	}
	return "Leaving voice channel..."
}

// setVoice registers a voice sample for the user after checking the file
// actually exists in the voices directory.
func (b *Bot) setVoice(username, voice string) string {
	if voice == "" {
		current := ""
		if prof := b.profiles.Get(username); prof.Voice != "" {
			current = fmt.Sprintf(".\n\nYour current voice is %s.", prof.Voice)
		}
		return "Invalid syntax. Please use !voice <voice>. The following are valid voices: " + b.listVoices() + current
	}

	if _, err := os.Stat(fmt.Sprintf("%s/%s", b.cfg.VoicesDir, voice)); err != nil {
		return fmt.Sprintf("Voice %s not found. The following are valid voices: %s", voice, b.listVoices())
	}

	if err := b.profiles.SetVoice(username, voice); err != nil {
		// Cache already holds the new value; persistence will lag.
		log.Printf("[WARN] Voice registered in memory but not persisted: %v", err)
		return fmt.Sprintf("Registered voice: %s -> %s (warning: could not be saved)", username, voice)
	}
	return fmt.Sprintf("Registered voice: %s -> %s", username, voice)
}

func (b *Bot) enqueueVoiceDownload(username, param string) string {
	filename, url, ok := strings.Cut(param, " ")
	if !ok || !strings.HasSuffix(filename, ".wav") {
		return "Invalid syntax. Please use !voice-dl <name.wav> <youtube-url>"
	}

	if err := b.profiles.EnqueueDownload(username, filename, url); err != nil {
		log.Printf("[ERR] Failed to enqueue voice download: %v", err)
		return "An error occurred"
	}
	return fmt.Sprintf("Queued download of %s. It will appear in the voice list once processed.", filename)
}

func (b *Bot) setNickname(username, nickname string) string {
	if nickname == "" {
		return "Invalid syntax. Please use !nick <nickname>"
	}

	if err := b.profiles.SetNickname(username, nickname); err != nil {
		log.Printf("[WARN] Nickname registered in memory but not persisted: %v", err)
		return fmt.Sprintf("Registered nickname: %s -> %s (warning: could not be saved)", username, nickname)
	}
	return fmt.Sprintf("Registered nickname: %s -> %s", username, nickname)
}

func (b *Bot) listVoices() string {
	entries, err := os.ReadDir(b.cfg.VoicesDir)
	if err != nil {
		log.Printf("[WARN] Failed to list voices dir: %v", err)
		return "(none)"
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(strings.ToLower(e.Name()), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

func (b *Bot) announce(channelID, text string) {
	if _, err := b.dg.ChannelMessageSend(channelID, text); err != nil {
		log.Printf("[ERR] Failed to send message: %v", err)
	}
}
