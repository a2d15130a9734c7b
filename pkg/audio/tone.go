package audio

import (
	"encoding/binary"
	"math"
	"time"
)

const (
	alarmVolume = 0.4
	pulseVolume = 0.6
)

type toneSegment struct {
	freq     float64 // 0 is silence
	duration time.Duration
}

// default alarm: two short beeps and a pause, looped by the player
var alarmPattern = []toneSegment{
	{880, 200 * time.Millisecond},
	{0, 100 * time.Millisecond},
	{880, 200 * time.Millisecond},
	{0, 500 * time.Millisecond},
}

// a low buzz standing in for a vibration motor
var pulsePattern = []toneSegment{
	{150, 400 * time.Millisecond},
}

// DefaultTone returns the built-in alarm sound as WAV data.
func DefaultTone() []byte {
	return encodeWAV(outputFormat, synthesize(alarmPattern, alarmVolume))
}

func pulsePCM() []byte {
	return synthesize(pulsePattern, pulseVolume)
}

// synthesize renders a sine wave per segment as interleaved 16-bit PCM in
// outputFormat.
func synthesize(pattern []toneSegment, volume float64) []byte {
	rate := outputFormat.SampleRate
	channels := outputFormat.Channels

	var pcm []byte
	for _, seg := range pattern {
		n := int(seg.duration.Seconds() * float64(rate))
		for i := 0; i < n; i++ {
			var v int16
			if seg.freq > 0 {
				// short fade in and out so segments do not click
				env := math.Min(1, math.Min(float64(i), float64(n-i))/float64(rate/200))
				v = int16(volume * env * math.MaxInt16 * math.Sin(2*math.Pi*seg.freq*float64(i)/float64(rate)))
			}
			for c := 0; c < channels; c++ {
				pcm = binary.LittleEndian.AppendUint16(pcm, uint16(v))
			}
		}
	}
	return pcm
}
