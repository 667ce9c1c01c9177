//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// Microphone records single phrases from the default input device.
type Microphone struct {
	sampleRate int
	maxSeconds int
	logger     *slog.Logger

	mu sync.Mutex
}

func NewMicrophone(sampleRate, maxSeconds int, logger *slog.Logger) *Microphone {
	return &Microphone{
		sampleRate: sampleRate,
		maxSeconds: maxSeconds,
		logger:     logger,
	}
}

func (m *Microphone) SampleRate() int {
	return m.sampleRate
}

func (m *Microphone) Record(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	frame := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), len(frame), frame)
	if err != nil {
		return nil, fmt.Errorf("opening stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	defer stream.Stop()

	m.logger.Info("recording...", "sampleRate", m.sampleRate)

	detector := newPhraseDetector(m.sampleRate, m.maxSeconds)
	samples := make([]int16, 0, m.sampleRate*m.maxSeconds)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}

		samples = append(samples, frame...)
		if detector.feed(frame) {
			break
		}
	}

	m.logger.Info("finished recording", "samples", len(samples))
	return samplesToPCM(samples), nil
}
