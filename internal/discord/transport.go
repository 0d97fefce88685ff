package discord

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

// voiceTransport adapts a discordgo voice connection to session.Transport.
// Clips arrive as whole encoded buffers (wav or mp3); ffmpeg decodes them
// from stdin into raw PCM which is opus-encoded frame by frame.
type voiceTransport struct {
	vc   *discordgo.VoiceConnection
	stop chan struct{}
	once sync.Once
}

func newVoiceTransport(vc *discordgo.VoiceConnection) *voiceTransport {
	return &voiceTransport{
		vc:   vc,
		stop: make(chan struct{}),
	}
}

// Play starts rendering the clip and reports completion through done. The
// owning session never overlaps Play calls.
func (t *voiceTransport) Play(clip []byte, done func(error)) error {
	select {
	case <-t.stop:
		return errors.New("voice transport is disconnected")
	default:
	}

	go func() {
		done(t.stream(clip))
	}()
	return nil
}

// Disconnect stops any in-flight clip and tears down the voice connection.
func (t *voiceTransport) Disconnect() error {
	t.once.Do(func() {
		close(t.stop)
	})
	return t.vc.Disconnect()
}

func (t *voiceTransport) stream(clip []byte) error {
	ffmpeg := exec.Command("ffmpeg",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-loglevel", "warning",
		"pipe:1",
	)
	ffmpeg.Stdin = bytes.NewReader(clip)

	pcm, err := ffmpeg.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe error: %w", err)
	}
	if err := ffmpeg.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}
	defer func() {
		ffmpeg.Process.Kill()
		ffmpeg.Wait()
	}()

	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("encoder error: %w", err)
	}

	if err := t.vc.Speaking(true); err != nil {
		return fmt.Errorf("speaking on error: %w", err)
	}
	defer t.vc.Speaking(false)

	pcmBuf := make([]byte, frameSize*channels*2)
	intBuf := make([]int16, frameSize*channels)

	for {
		select {
		case <-t.stop:
			return nil
		default:
		}

		_, err := io.ReadFull(pcm, pcmBuf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil // clip finished
		}
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}

		for i := range intBuf {
			intBuf[i] = int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2]))
		}

		frame, err := encoder.Encode(intBuf, frameSize, len(pcmBuf))
		if err != nil {
			return fmt.Errorf("encode error: %w", err)
		}

		select {
		case t.vc.OpusSend <- frame:
		case <-t.stop:
			return nil
		}
	}
}
