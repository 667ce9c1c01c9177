package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"object-recognizer/internal/domain"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Recorder records one spoken phrase as 16-bit mono little-endian PCM.
type Recorder interface {
	Record(ctx context.Context) ([]byte, error)
	SampleRate() int
}

// PhraseListener asks the user for a single phrase.
type PhraseListener interface {
	Listen(ctx context.Context) (string, error)
}

// NoopSTT is used when no speech-to-text backend is configured.
type NoopSTT struct{}

func (n *NoopSTT) Transcribe(_ context.Context, _ []byte) (string, error) {
	return "", fmt.Errorf("speech-to-text not configured: set speech.provider and speech.api_key")
}

type RecordingListener struct {
	recorder Recorder
	stt      SpeechToText
	logger   *slog.Logger
}

func NewRecordingListener(recorder Recorder, stt SpeechToText, logger *slog.Logger) *RecordingListener {
	return &RecordingListener{
		recorder: recorder,
		stt:      stt,
		logger:   logger,
	}
}

// Listen records a phrase and transcribes it. Every failure, including an
// empty transcription, is reported as domain.ErrLookup.
func (l *RecordingListener) Listen(ctx context.Context) (string, error) {
	l.logger.Info("recording phrase")
	audio, err := l.recorder.Record(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: recording: %w", domain.ErrLookup, err)
	}
	l.logger.Debug("phrase recorded", "bytes", len(audio))

	text, err := l.stt.Transcribe(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("%w: transcribing: %w", domain.ErrLookup, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty transcription", domain.ErrLookup)
	}

	l.logger.Info("phrase transcribed", "text", text)
	return text, nil
}
