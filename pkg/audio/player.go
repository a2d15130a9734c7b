// Package audio plays alarm sounds and haptic pulses through the system audio
// output.
package audio

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

// every clip is converted to this before playback
var outputFormat = wavFormat{SampleRate: 44100, Channels: 2, BitDepth: 16}

// Global audio context singleton
var (
	globalAudioCtx     *oto.Context
	globalAudioCtxErr  error
	globalAudioCtxOnce sync.Once
)

// audioContext initializes the global audio context once. oto allows a single
// context per process.
func audioContext() (*oto.Context, error) {
	globalAudioCtxOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   outputFormat.SampleRate,
			ChannelCount: outputFormat.Channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			globalAudioCtxErr = fmt.Errorf("init audio context: %w", err)
			return
		}
		// Wait for the hardware audio devices to be ready
		<-ready
		globalAudioCtx = ctx
	})
	return globalAudioCtx, globalAudioCtxErr
}

// Player loops one alarm sound at a time until stopped.
type Player struct {
	log *zap.Logger

	mu      sync.Mutex
	current *playback
}

type playback struct {
	stop chan struct{}
	done chan struct{}
}

// NewPlayer creates a Player.
func NewPlayer(log *zap.Logger) *Player {
	return &Player{log: log}
}

// Play starts looping the WAV file at ref, or the default tone when ref is
// empty or unusable. A sound that is already playing is stopped first.
func (p *Player) Play(ref string) error {
	pcm := p.load(ref)

	ctx, err := audioContext()
	if err != nil {
		return err
	}

	if err := p.Stop(); err != nil {
		return err
	}

	pb := &playback{stop: make(chan struct{}), done: make(chan struct{})}
	p.mu.Lock()
	p.current = pb
	p.mu.Unlock()

	// Play the sound in a goroutine so it doesn't block
	go p.playLoop(ctx, pb, pcm)
	return nil
}

// load returns output-ready PCM for ref, falling back to the default tone.
func (p *Player) load(ref string) []byte {
	if ref != "" {
		pcm, err := loadFile(ref)
		if err == nil {
			return pcm
		}
		p.log.Warn("alarm sound unusable, playing default tone", zap.String("sound", ref), zap.Error(err))
	}
	return synthesize(alarmPattern, alarmVolume)
}

func loadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func decode(wav []byte) ([]byte, error) {
	format, pcm, err := parseWAV(wav)
	if err != nil {
		return nil, err
	}
	return toOutput(format, pcm)
}

func (p *Player) playLoop(ctx *oto.Context, pb *playback, pcm []byte) {
	defer close(pb.done)

	// Loop the alarm sound until stopped
	for {
		player := ctx.NewPlayer(bytes.NewReader(pcm))
		player.Play()

		for player.IsPlaying() {
			select {
			case <-pb.stop:
				player.Pause()
				if err := player.Close(); err != nil {
					p.log.Warn("close audio player", zap.Error(err))
				}
				return
			case <-time.After(10 * time.Millisecond):
			}
		}

		if err := player.Close(); err != nil {
			p.log.Warn("close audio player", zap.Error(err))
		}

		select {
		case <-pb.stop:
			return
		default:
		}
	}
}

// Stop stops the current sound and waits for its loop to exit. It is safe to
// call when nothing is playing.
func (p *Player) Stop() error {
	p.mu.Lock()
	pb := p.current
	p.current = nil
	p.mu.Unlock()

	if pb == nil {
		return nil
	}
	close(pb.stop)
	<-pb.done
	p.log.Debug("audio playback stopped")
	return nil
}
