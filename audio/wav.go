// Package audio decodes and encodes 16-bit PCM WAV payloads. Decoding is
// best-effort: malformed input degrades to an empty sample slice, never an
// error, because a bad audio chunk must not abort an interview turn.
package audio

import (
	"bytes"
	"encoding/binary"
)

const wavHeaderSize = 44

// Decode converts a WAV payload into normalized mono float64 samples in
// [-1, 1] plus the sample rate. Payloads without a RIFF header are treated
// as headerless 16-bit PCM mono at fallbackRate. Malformed or too-short
// input returns (nil, 0).
func Decode(data []byte, fallbackRate int) ([]float64, int) {
	if len(data) < 4 {
		return nil, 0
	}

	if !bytes.HasPrefix(data, []byte("RIFF")) {
		if fallbackRate <= 0 {
			return nil, 0
		}
		return pcm16ToFloat(data, 1), fallbackRate
	}

	if len(data) < wavHeaderSize || string(data[8:12]) != "WAVE" {
		return nil, 0
	}

	var (
		channels   int
		sampleRate int
		bits       int
		pcm        []byte
	)

	// Walk the RIFF chunks; only fmt and data matter here.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			return nil, 0
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0
			}
			format := int(binary.LittleEndian.Uint16(data[body : body+2]))
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			if format != 1 || bits != 16 || channels < 1 || sampleRate <= 0 {
				return nil, 0
			}
		case "data":
			pcm = data[body : body+size]
		}
		// Chunks are word-aligned.
		off = body + size + size%2
	}

	if pcm == nil || channels == 0 {
		return nil, 0
	}
	return pcm16ToFloat(pcm, channels), sampleRate
}

// Duration derives seconds of audio from a decoded sample count.
func Duration(samples []float64, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(samples)) / float64(sampleRate)
}

// Encode wraps 16-bit mono PCM samples in a WAV container.
func Encode(samples []int16, sampleRate int) []byte {
	dataSize := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+dataSize))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	binary.Write(buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

// pcm16ToFloat converts little-endian 16-bit PCM to normalized mono floats,
// averaging channels when the input is interleaved multi-channel.
func pcm16ToFloat(pcm []byte, channels int) []float64 {
	frames := len(pcm) / (2 * channels)
	if frames == 0 {
		return nil
	}
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			idx := (i*channels + ch) * 2
			s := int16(binary.LittleEndian.Uint16(pcm[idx : idx+2]))
			sum += float64(s) / 32768.0
		}
		out[i] = sum / float64(channels)
	}
	return out
}
