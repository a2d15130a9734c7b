package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrUnsupportedFormat is returned for WAV data the output context cannot play.
var ErrUnsupportedFormat = errors.New("unsupported wav format")

// wavFormat holds WAV file format information
type wavFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// parseWAV parses a WAV file and returns the format and PCM data
func parseWAV(data []byte) (*wavFormat, []byte, error) {
	reader := bytes.NewReader(data)

	var header [12]byte
	if _, err := io.ReadFull(reader, header[:]); err != nil {
		return nil, nil, fmt.Errorf("read riff header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, nil, fmt.Errorf("not a RIFF/WAVE file: %w", ErrUnsupportedFormat)
	}

	var format *wavFormat
	for {
		var chunkID [4]byte
		if _, err := io.ReadFull(reader, chunkID[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil, fmt.Errorf("no data chunk: %w", ErrUnsupportedFormat)
			}
			return nil, nil, err
		}

		var chunkSize uint32
		if err := binary.Read(reader, binary.LittleEndian, &chunkSize); err != nil {
			return nil, nil, err
		}

		switch string(chunkID[:]) {
		case "fmt ":
			var fmtChunk struct {
				AudioFormat   uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if chunkSize < 16 {
				return nil, nil, fmt.Errorf("short fmt chunk: %w", ErrUnsupportedFormat)
			}
			if err := binary.Read(reader, binary.LittleEndian, &fmtChunk); err != nil {
				return nil, nil, err
			}
			format = &wavFormat{
				SampleRate: int(fmtChunk.SampleRate),
				Channels:   int(fmtChunk.Channels),
				BitDepth:   int(fmtChunk.BitsPerSample),
			}
			// Skip any extra format bytes
			if _, err := reader.Seek(int64(chunkSize-16), io.SeekCurrent); err != nil {
				return nil, nil, err
			}
		case "data":
			if format == nil {
				return nil, nil, fmt.Errorf("data before fmt chunk: %w", ErrUnsupportedFormat)
			}
			pcm := make([]byte, chunkSize)
			n, err := io.ReadFull(reader, pcm)
			if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, nil, err
			}
			// tolerate files whose header overstates the data size
			return format, pcm[:n], nil
		default:
			if _, err := reader.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return nil, nil, err
			}
		}
	}
}

// encodeWAV wraps 16-bit PCM in a minimal WAV container.
func encodeWAV(format wavFormat, pcm []byte) []byte {
	var buf bytes.Buffer
	blockAlign := format.Channels * format.BitDepth / 8

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, struct {
		Size          uint32
		AudioFormat   uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}{
		Size:          16,
		AudioFormat:   1, // PCM
		Channels:      uint16(format.Channels),
		SampleRate:    uint32(format.SampleRate),
		ByteRate:      uint32(format.SampleRate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: uint16(format.BitDepth),
	})
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

// toOutput converts PCM to the output context format, duplicating mono
// samples into both channels.
func toOutput(format *wavFormat, pcm []byte) ([]byte, error) {
	if format.SampleRate != outputFormat.SampleRate || format.BitDepth != outputFormat.BitDepth {
		return nil, fmt.Errorf("%d Hz %d-bit: %w", format.SampleRate, format.BitDepth, ErrUnsupportedFormat)
	}
	switch format.Channels {
	case 2:
		return pcm, nil
	case 1:
		out := make([]byte, 0, len(pcm)*2)
		for i := 0; i+1 < len(pcm); i += 2 {
			out = append(out, pcm[i], pcm[i+1], pcm[i], pcm[i+1])
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%d channels: %w", format.Channels, ErrUnsupportedFormat)
	}
}
