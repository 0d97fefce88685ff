package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/siliconsorcerers/sonicblaster/internal/config"
	"github.com/siliconsorcerers/sonicblaster/internal/discord"
	"github.com/siliconsorcerers/sonicblaster/internal/profile"
	"github.com/siliconsorcerers/sonicblaster/internal/storage"
	"github.com/siliconsorcerers/sonicblaster/internal/tts"
	v "github.com/siliconsorcerers/sonicblaster/internal/version"
	"github.com/siliconsorcerers/sonicblaster/internal/voicefetch"
)

func main() {
	log.Printf("[INFO] Starting %s %s...", v.AppName, v.Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	if _, err := os.Stat(cfg.ProfileDBPath); os.IsNotExist(err) {
		log.Printf("[WARN] Profile database %s does not exist, creating it", cfg.ProfileDBPath)
		if err := profile.CreateDB(cfg.ProfileDBPath); err != nil {
			log.Fatal(err)
		}
	}

	profiles, err := profile.Open(cfg.ProfileDBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer profiles.Close()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	var synth tts.Synthesizer
	switch cfg.TTSProvider {
	case "elevenlabs":
		synth = tts.NewElevenLabs(cfg.ElevenLabsAPIKey)
	default:
		synth = tts.NewXTTS(cfg.TTSServerURL, cfg.VoicesDir)
	}
	log.Printf("[INFO] Using TTS provider: %s", cfg.TTSProvider)

	fetcher := voicefetch.NewWorker(profiles, cfg.VoicesDir, cfg.VoiceFetchInterval)
	go fetcher.Run(ctx)

	bot, err := discord.NewBot(cfg, profiles, store, synth)
	if err != nil {
		log.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...", s)
		cancel()
	case <-bot.Quit:
		log.Println("[INFO] Quit command received, shutting down...")
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	}

	<-errCh
	log.Println("[INFO] Discord bot exited cleanly")
}
