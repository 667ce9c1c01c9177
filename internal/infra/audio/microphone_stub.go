//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
)

// Microphone stub when portaudio is not available
type Microphone struct {
	sampleRate int
}

func NewMicrophone(sampleRate, maxSeconds int, logger *slog.Logger) *Microphone {
	return &Microphone{sampleRate: sampleRate}
}

func (m *Microphone) SampleRate() int {
	return m.sampleRate
}

func (m *Microphone) Record(_ context.Context) ([]byte, error) {
	return nil, fmt.Errorf("microphone not available: rebuild with -tags portaudio")
}
