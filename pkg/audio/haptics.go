package audio

import (
	"bytes"
	"time"
)

// Buzzer emulates a vibration pulse with a short low tone.
type Buzzer struct{}

// NewBuzzer creates a Buzzer.
func NewBuzzer() *Buzzer {
	return &Buzzer{}
}

// Pulse plays one buzz without waiting for it to finish.
func (b *Buzzer) Pulse() error {
	ctx, err := audioContext()
	if err != nil {
		return err
	}
	player := ctx.NewPlayer(bytes.NewReader(pulsePCM()))
	player.Play()
	go func() {
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		_ = player.Close()
	}()
	return nil
}
