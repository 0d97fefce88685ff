package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings, sourced from the environment.
type Config struct {
	DiscordToken string   `env:"DISCORD_TOKEN,required"`
	InstallURL   string   `env:"URL_INSTALL"`
	BotAdmins    []string `env:"BOT_ADMINS" envSeparator:":"`

	TTSProvider      string `env:"TTS_PROVIDER" envDefault:"xtts"`
	TTSServerURL     string `env:"TTS_SERVER_URL" envDefault:"http://localhost:8020"`
	ElevenLabsAPIKey string `env:"ELEVENLABS_API_KEY"`
	Language         string `env:"TTS_LANGUAGE" envDefault:"en"`

	ProfileDBPath string `env:"PROFILE_DB_PATH" envDefault:"sb.sqlite3"`
	StoragePath   string `env:"STORAGE_PATH" envDefault:"datastore.json"`
	VoicesDir     string `env:"VOICES_DIR" envDefault:"voices"`
	DefaultVoice  string `env:"DEFAULT_VOICE" envDefault:"deckard-cain.wav"`

	SynthTimeout       time.Duration `env:"SYNTH_TIMEOUT" envDefault:"45s"`
	SynthRate          float64       `env:"SYNTH_RATE" envDefault:"2"`
	QueueLimit         int           `env:"QUEUE_LIMIT" envDefault:"64"`
	VoiceFetchInterval time.Duration `env:"VOICE_FETCH_INTERVAL" envDefault:"30s"`
}

// New loads .env (if present) and parses the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config parse error: %w", err)
	}
	return cfg, nil
}

// IsAdmin reports whether username is listed in BOT_ADMINS.
func (c *Config) IsAdmin(username string) bool {
	for _, admin := range c.BotAdmins {
		if admin == username {
			return true
		}
	}
	return false
}
