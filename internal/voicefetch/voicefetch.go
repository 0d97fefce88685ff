package voicefetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/siliconsorcerers/sonicblaster/internal/profile"
)

// Worker drains the voice_download_queue: each pending row is downloaded
// from YouTube, converted to a mono speaker wav and dropped into the voices
// directory. Failed rows stay unprocessed and are retried on a later tick.
type Worker struct {
	store     *profile.Store
	voicesDir string
	interval  time.Duration
}

func NewWorker(store *profile.Store, voicesDir string, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Worker{store: store, voicesDir: voicesDir, interval: interval}
}

// Run polls the queue until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	pending, err := w.store.PendingDownloads()
	if err != nil {
		log.Printf("[VoiceFetch] Failed to read download queue: %v", err)
		return
	}

	for _, d := range pending {
		if ctx.Err() != nil {
			return
		}

		if err := w.fetch(ctx, d); err != nil {
			log.Printf("[VoiceFetch] Download %d (%s) failed, will retry: %v", d.ID, d.Filename, err)
			continue
		}
		if err := w.store.MarkProcessed(d.ID); err != nil {
			log.Printf("[VoiceFetch] Failed to mark download %d processed: %v", d.ID, err)
			continue
		}
		log.Printf("[VoiceFetch] Voice %q ready (requested by %s)", d.Filename, d.Username)
	}
}

// fetch downloads the audio track and converts it into a speaker wav.
func (w *Worker) fetch(ctx context.Context, d profile.Download) error {
	videoID, err := extractYouTubeID(d.URL)
	if err != nil {
		return err
	}

	client := &youtube.Client{}
	video, err := client.GetVideoContext(ctx, videoID)
	if err != nil {
		return fmt.Errorf("youtube client error: %w", err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return errors.New("no audio formats found for video")
	}

	stream, _, err := client.GetStreamContext(ctx, video, &formats[0])
	if err != nil {
		return fmt.Errorf("get stream error: %w", err)
	}
	defer stream.Close()

	if err := os.MkdirAll(w.voicesDir, 0o755); err != nil {
		return fmt.Errorf("voices dir error: %w", err)
	}
	outPath := filepath.Join(w.voicesDir, d.Filename)

	// XTTS expects a mono speaker reference at 22.05kHz.
	ffmpeg := exec.CommandContext(ctx, "ffmpeg",
		"-i", "pipe:0",
		"-ar", "22050",
		"-ac", "1",
		"-loglevel", "warning",
		"-y", outPath,
	)
	ffmpeg.Stdin = stream

	if out, err := ffmpeg.CombinedOutput(); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("ffmpeg error: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func extractYouTubeID(url string) (string, error) {
	switch {
	case strings.Contains(url, "youtu.be/"):
		parts := strings.Split(url, "youtu.be/")
		if len(parts) != 2 {
			return "", errors.New("invalid YouTube URL format")
		}
		return strings.Split(parts[1], "?")[0], nil

	case strings.Contains(url, "youtube.com/watch?v="):
		parts := strings.Split(url, "v=")
		if len(parts) != 2 {
			return "", errors.New("invalid YouTube URL format")
		}
		return strings.Split(parts[1], "&")[0], nil

	default:
		return "", errors.New("unsupported URL format")
	}
}
