package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"object-recognizer/config"
	"object-recognizer/internal/application"
	"object-recognizer/internal/dialog"
	"object-recognizer/internal/infra/audio"
	"object-recognizer/internal/infra/camera"
	"object-recognizer/internal/infra/google"
	"object-recognizer/internal/infra/openai"
	"object-recognizer/internal/infra/speaker"
	"object-recognizer/internal/infra/transport"
	"object-recognizer/internal/infra/utterance"
	"object-recognizer/internal/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dialogs := dialog.Default(dialog.Random)
	if cfg.Skill.DialogsPath != "" {
		dialogs, err = dialog.Load(cfg.Skill.DialogsPath, dialog.Random)
		if err != nil {
			logger.Error("loading dialogs", "error", err)
			os.Exit(1)
		}
	}

	stt, err := createSpeechToText(ctx, cfg.Speech, logger)
	if err != nil {
		logger.Warn("speech-to-text unavailable", "provider", cfg.Speech.Provider, "error", err)
		stt = &application.NoopSTT{}
	}
	microphone := audio.NewMicrophone(cfg.Speech.SampleRate, cfg.Speech.MaxSeconds, logger)

	skill := application.NewSkill(
		createCamera(cfg.Camera, logger),
		transport.NewDialer(cfg.Skill.ServerURL, cfg.Skill.Port, cfg.ConnectTimeout(), logger),
		application.NewRecordingListener(microphone, stt, logger),
		speaker.NewConsole(os.Stdout, logger),
		dialogs,
		logger,
		application.WithSendRetries(cfg.Skill.SendRetries),
	)

	source := createUtteranceSource(cfg.Utterance, logger)

	logger.Info("starting object recognizer skill",
		"server", cfg.Skill.ServerURL,
		"port", cfg.Skill.Port,
		"utterance_source", source.Name(),
	)

	err = skill.Run(ctx, source)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		logger.Error("skill error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}

func createCamera(cfg config.CameraConfig, logger *slog.Logger) application.Camera {
	switch cfg.Backend {
	case "gocv":
		return camera.NewGoCVCamera(cfg.Device, cfg.Width, cfg.Height)
	case "file":
		return camera.NewFileCamera(cfg.ImagePath)
	case "ffmpeg":
		return camera.NewFFmpegCamera(cfg.Device, cfg.Width, cfg.Height)
	default:
		logger.Warn("unknown camera backend, using ffmpeg", "backend", cfg.Backend)
		return camera.NewFFmpegCamera(cfg.Device, cfg.Width, cfg.Height)
	}
}

func createSpeechToText(ctx context.Context, cfg config.SpeechConfig, logger *slog.Logger) (application.SpeechToText, error) {
	switch cfg.Provider {
	case "google":
		client, err := google.NewSpeechClient(ctx, cfg.APIKey, cfg.Language, cfg.SampleRate)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "whisper":
		return openai.NewWhisperClient(cfg.APIKey, whisperLanguage(cfg.Language), cfg.SampleRate), nil
	default:
		logger.Warn("speech-to-text disabled, object names must be spoken with the command")
		return &application.NoopSTT{}, nil
	}
}

// whisperLanguage reduces a BCP-47 tag such as en-US to the ISO-639-1 code Whisper expects.
func whisperLanguage(tag string) string {
	if len(tag) > 2 && tag[2] == '-' {
		return tag[:2]
	}
	return tag
}

func createUtteranceSource(cfg config.UtteranceConfig, logger *slog.Logger) application.UtteranceSource {
	switch cfg.Source {
	case "http":
		return utterance.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	case "console":
		return utterance.NewConsoleSource(cfg.Prompt)
	default:
		logger.Warn("unknown utterance source, using console", "source", cfg.Source)
		return utterance.NewConsoleSource(cfg.Prompt)
	}
}
