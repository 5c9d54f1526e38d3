package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// DecodePCM decodes WAV (PCM16) or MP3 bytes into interleaved stereo float32
// at targetRate. Mono sources are duplicated to stereo.
func DecodePCM(data []byte, targetRate int) ([]float32, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	if targetRate <= 0 {
		return nil, ErrBadRate
	}

	var samples []float32
	var sourceRate int
	var err error

	switch {
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("RIFF")):
		samples, sourceRate, err = decodeWAV(data)
	default:
		samples, sourceRate, err = decodeMP3(data)
	}
	if err != nil {
		return nil, err
	}

	return Resample(samples, sourceRate, targetRate)
}

// decodeWAV parses a minimal RIFF/WAVE container with 16-bit PCM data.
func decodeWAV(data []byte) ([]float32, int, error) {
	if len(data) < 12 || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, 0, fmt.Errorf("wav: not a WAVE file")
	}

	var channels, bits int
	var rate int
	var pcm []byte

	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("wav: truncated fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return nil, 0, fmt.Errorf("wav: unsupported format %d (PCM only)", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			rate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+size]
		}

		// Chunks are word-aligned.
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if pcm == nil || rate == 0 || channels == 0 {
		return nil, 0, fmt.Errorf("wav: missing fmt or data chunk")
	}
	if bits != 16 {
		return nil, 0, fmt.Errorf("wav: unsupported bit depth %d (16-bit only)", bits)
	}

	frames := len(pcm) / 2 / channels
	samples := make([]float32, 0, frames*2)
	for i := 0; i < frames; i++ {
		base := i * channels * 2
		left := float32(int16(binary.LittleEndian.Uint16(pcm[base:base+2]))) / 32768.0
		right := left
		if channels >= 2 {
			right = float32(int16(binary.LittleEndian.Uint16(pcm[base+2:base+4]))) / 32768.0
		}
		samples = append(samples, left, right)
	}
	return samples, rate, nil
}

// decodeMP3 decodes MP3 bytes. go-mp3 always emits 16-bit stereo.
func decodeMP3(data []byte) ([]float32, int, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("mp3: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3: %w", err)
	}
	if len(raw)%2 != 0 {
		raw = raw[:len(raw)-1]
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:i*2+2]))) / 32768.0
	}
	return samples, dec.SampleRate(), nil
}

// EncodeWAV writes interleaved stereo float32 samples as a 16-bit PCM WAV
// file, the reverse of decodeWAV. Used by the exporter to hand the mixed
// track to ffmpeg.
func EncodeWAV(w io.Writer, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return ErrBadRate
	}
	dataSize := len(samples) * 2

	var header bytes.Buffer
	header.WriteString("RIFF")
	binary.Write(&header, binary.LittleEndian, uint32(36+dataSize))
	header.WriteString("WAVE")
	header.WriteString("fmt ")
	binary.Write(&header, binary.LittleEndian, uint32(16))
	binary.Write(&header, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&header, binary.LittleEndian, uint16(2)) // stereo
	binary.Write(&header, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&header, binary.LittleEndian, uint32(sampleRate*4)) // byte rate
	binary.Write(&header, binary.LittleEndian, uint16(4))            // block align
	binary.Write(&header, binary.LittleEndian, uint16(16))           // bits
	header.WriteString("data")
	binary.Write(&header, binary.LittleEndian, uint32(dataSize))
	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}

	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(s*32767)))
	}
	_, err := w.Write(buf)
	return err
}
