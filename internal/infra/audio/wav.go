package audio

import (
	"bytes"
	"encoding/binary"
)

// PCMToWAV wraps 16-bit mono little-endian PCM in a WAV container.
func PCMToWAV(pcm []byte, sampleRate int) []byte {
	var buf bytes.Buffer

	dataSize := len(pcm)
	fileSize := 36 + dataSize

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, int32(fileSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, int32(16))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, int16(2))
	binary.Write(&buf, binary.LittleEndian, int16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, int32(dataSize))
	buf.Write(pcm)

	return buf.Bytes()
}

// samplesToPCM encodes samples as little-endian 16-bit PCM.
func samplesToPCM(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// phraseDetector decides when a recorded phrase is over: after some speech
// followed by a run of silence, or when the maximum length is reached.
type phraseDetector struct {
	threshold    int16
	maxSilence   int
	maxSamples   int
	heardSpeech  bool
	silenceCount int
	total        int
}

func newPhraseDetector(sampleRate int, maxSeconds int) *phraseDetector {
	return &phraseDetector{
		threshold:  500,
		maxSilence: sampleRate,
		maxSamples: sampleRate * maxSeconds,
	}
}

// feed consumes one buffer and reports whether recording should stop.
func (p *phraseDetector) feed(frame []int16) bool {
	silent := true
	for _, s := range frame {
		if s > p.threshold || s < -p.threshold {
			silent = false
			break
		}
	}

	p.total += len(frame)
	if silent {
		p.silenceCount += len(frame)
	} else {
		p.heardSpeech = true
		p.silenceCount = 0
	}

	if p.heardSpeech && p.silenceCount > p.maxSilence {
		return true
	}
	return p.total >= p.maxSamples
}
