package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

// Beep fallback parameters.
const (
	BeepFrequency  = 1000 // Hz
	BeepDuration   = 500 * time.Millisecond
	BeepSampleRate = 44100
)

// Tone synthesizes a mono sine wave at freq Hz. A short linear fade at both
// ends avoids clicks when the tone is looped.
func Tone(freq float64, d time.Duration, sampleRate int) []int16 {
	n := int(d.Seconds() * float64(sampleRate))
	samples := make([]int16, n)
	fade := sampleRate / 200 // 5ms
	for i := range samples {
		amp := 0.5
		if i < fade {
			amp *= float64(i) / float64(fade)
		} else if n-i <= fade {
			amp *= float64(n-i-1) / float64(fade)
		}
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		samples[i] = int16(v * math.MaxInt16)
	}
	return samples
}

// ConvertInt16ToPCM16 converts int16 samples to little-endian bytes.
func ConvertInt16ToPCM16(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

// EncodeWAV wraps mono 16-bit PCM in a RIFF/WAVE container.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	pcm := ConvertInt16ToPCM16(samples)

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	write := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString("RIFF")
	write(uint32(36 + len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	write(uint32(16))             // chunk size
	write(uint16(1))              // PCM
	write(uint16(1))              // mono
	write(uint32(sampleRate))     // sample rate
	write(uint32(sampleRate * 2)) // byte rate
	write(uint16(2))              // block align
	write(uint16(16))             // bits per sample

	buf.WriteString("data")
	write(uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// BeepWAV returns the fallback alert sound.
func BeepWAV() []byte {
	return EncodeWAV(Tone(BeepFrequency, BeepDuration, BeepSampleRate), BeepSampleRate)
}
