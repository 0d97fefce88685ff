package discord

import (
	"fmt"

	"github.com/siliconsorcerers/sonicblaster/internal/session"
)

// Connect implements session.Connector on top of the gateway session.
func (b *Bot) Connect(guildID, channelID string) (session.Transport, error) {
	vc, err := b.dg.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}
	return newVoiceTransport(vc), nil
}

// findUserVoiceChannel returns the voice channel userID currently occupies
// in guildID, or "" when the user has no voice presence.
func (b *Bot) findUserVoiceChannel(guildID, userID string) (string, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return "", fmt.Errorf("error retrieving guild: %w", err)
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID, nil
		}
	}
	return "", nil
}
