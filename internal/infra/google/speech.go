// Package google transcribes phrases with the Google Cloud Speech-to-Text v1 API.
package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	speech "google.golang.org/api/speech/v1"

	"object-recognizer/internal/infra"
)

type SpeechClient struct {
	service    *speech.Service
	language   string
	sampleRate int
}

// NewSpeechClient authenticates with apiKey when set; extra options are
// appended, so tests can point the client at another endpoint.
func NewSpeechClient(ctx context.Context, apiKey, language string, sampleRate int, opts ...option.ClientOption) (*SpeechClient, error) {
	var all []option.ClientOption
	if apiKey != "" {
		all = append(all, option.WithAPIKey(apiKey))
	}
	all = append(all, opts...)

	service, err := speech.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("creating speech service: %w", err)
	}

	return &SpeechClient{
		service:    service,
		language:   language,
		sampleRate: sampleRate,
	}, nil
}

// Transcribe takes 16-bit mono PCM and returns the best transcript of every
// result, joined by spaces.
func (c *SpeechClient) Transcribe(ctx context.Context, pcm []byte) (string, error) {
	req := &speech.RecognizeRequest{
		Config: &speech.RecognitionConfig{
			Encoding:        "LINEAR16",
			SampleRateHertz: int64(c.sampleRate),
			LanguageCode:    c.language,
		},
		Audio: &speech.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(pcm),
		},
	}

	var resp *speech.RecognizeResponse
	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		var err error
		resp, err = c.service.Speech.Recognize(req).Context(ctx).Do()
		if err == nil {
			return nil
		}

		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && !infra.IsRetryableStatus(apiErr.Code) {
			return infra.Permanent(fmt.Errorf("speech API error %d: %s", apiErr.Code, apiErr.Message))
		}
		return fmt.Errorf("recognizing speech: %w", err)
	})
	if retryErr != nil {
		return "", retryErr
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if t := strings.TrimSpace(result.Alternatives[0].Transcript); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}
