package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/keshon/datastore"
)

const commandHistoryLimit = 20

// Storage keeps per-guild bot records in a JSON key-value store keyed by
// guild ID.
type Storage struct {
	ds *datastore.DataStore
}

// CommandRecord is one executed text command.
type CommandRecord struct {
	ChannelID string    `json:"channel_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Param     string    `json:"param"`
	Datetime  time.Time `json:"datetime"`
}

// Record is everything stored for one guild. VoiceChannelID is the channel
// of the guild's last successful join, cleared on leave.
type Record struct {
	CommandsHistory []CommandRecord `json:"cmd_history"`
	VoiceChannelID  string          `json:"voice_channel_id"`
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// getOrCreateGuildRecord fetches the guild's record, creating an empty one
// when absent. The store holds untyped JSON, hence the marshal round-trip.
func (s *Storage) getOrCreateGuildRecord(guildID string) (*Record, error) {
	data, exists := s.ds.Get(guildID)
	if !exists {
		record := &Record{CommandsHistory: []CommandRecord{}}
		s.ds.Add(guildID, record)
		return record, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling data: %w", err)
	}

	var record Record
	if err := json.Unmarshal(jsonData, &record); err != nil {
		return nil, fmt.Errorf("error unmarshalling to *Record: %w", err)
	}

	if len(record.CommandsHistory) > commandHistoryLimit {
		record.CommandsHistory = record.CommandsHistory[len(record.CommandsHistory)-commandHistoryLimit:]
	}

	return &record, nil
}

// AppendCommandToHistory appends a command record for a guild.
func (s *Storage) AppendCommandToHistory(guildID string, command CommandRecord) error {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	record.CommandsHistory = append(record.CommandsHistory, command)
	s.ds.Add(guildID, record)
	return nil
}

// FetchCommandHistory returns the guild's recent command records.
func (s *Storage) FetchCommandHistory(guildID string) ([]CommandRecord, error) {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandsHistory, nil
}

// SetVoiceChannel records the voice channel the bot joined in a guild. An
// empty channelID marks the guild as disconnected.
func (s *Storage) SetVoiceChannel(guildID, channelID string) error {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	record.VoiceChannelID = channelID
	s.ds.Add(guildID, record)
	return nil
}

// GetVoiceChannel returns the last recorded voice channel for a guild.
func (s *Storage) GetVoiceChannel(guildID string) (string, error) {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return "", err
	}
	return record.VoiceChannelID, nil
}
