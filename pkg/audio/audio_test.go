package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDefaultToneIsPlayableWAV(t *testing.T) {
	format, pcm, err := parseWAV(DefaultTone())
	require.NoError(t, err)

	assert.Equal(t, outputFormat, *format)
	assert.Equal(t, synthesize(alarmPattern, alarmVolume), pcm)

	// trailing pause is silent
	tail := pcm[len(pcm)-1000:]
	assert.Equal(t, make([]byte, len(tail)), tail)
}

func TestParseWAVSkipsUnknownChunks(t *testing.T) {
	wav := encodeWAV(wavFormat{SampleRate: 44100, Channels: 1, BitDepth: 16}, []byte{1, 2, 3, 4})

	// insert a LIST chunk between fmt and data
	var list bytes.Buffer
	list.WriteString("LIST")
	_ = binary.Write(&list, binary.LittleEndian, uint32(4))
	list.WriteString("INFO")
	withList := append(append(append([]byte{}, wav[:36]...), list.Bytes()...), wav[36:]...)

	format, pcm, err := parseWAV(withList)
	require.NoError(t, err)
	assert.Equal(t, 1, format.Channels)
	assert.Equal(t, []byte{1, 2, 3, 4}, pcm)
}

func TestParseWAVRejectsBadInput(t *testing.T) {
	valid := encodeWAV(outputFormat, []byte{0, 0, 0, 0})

	cases := map[string][]byte{
		"empty":        nil,
		"not riff":     append([]byte("RIFX"), valid[4:]...),
		"no data":      valid[:36],
		"data first":   append(append([]byte{}, valid[:12]...), valid[36:]...),
		"short header": valid[:8],
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := parseWAV(data)
			assert.Error(t, err)
		})
	}
}

func TestToOutput(t *testing.T) {
	mono := &wavFormat{SampleRate: 44100, Channels: 1, BitDepth: 16}
	out, err := toOutput(mono, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 1, 2, 3, 4, 3, 4}, out)

	_, err = toOutput(&wavFormat{SampleRate: 22050, Channels: 2, BitDepth: 16}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = toOutput(&wavFormat{SampleRate: 44100, Channels: 6, BitDepth: 16}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPlayerLoadFallsBackToDefaultTone(t *testing.T) {
	p := NewPlayer(zaptest.NewLogger(t))
	def := synthesize(alarmPattern, alarmVolume)

	assert.Equal(t, def, p.load(""))
	assert.Equal(t, def, p.load(filepath.Join(t.TempDir(), "missing.wav")))

	bad := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(bad, []byte("not audio"), 0o644))
	assert.Equal(t, def, p.load(bad))

	good := filepath.Join(t.TempDir(), "chime.wav")
	require.NoError(t, os.WriteFile(good, encodeWAV(wavFormat{SampleRate: 44100, Channels: 1, BitDepth: 16}, []byte{9, 8}), 0o644))
	assert.Equal(t, []byte{9, 8, 9, 8}, p.load(good))
}

func TestStopWithoutPlayback(t *testing.T) {
	p := NewPlayer(zaptest.NewLogger(t))
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}
