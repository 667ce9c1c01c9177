package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultServerURL = "127.0.0.1"
	DefaultPort      = 8888
)

type Config struct {
	Skill      SkillConfig      `yaml:"skill"`
	Camera     CameraConfig     `yaml:"camera"`
	Speech     SpeechConfig     `yaml:"speech"`
	Utterance  UtteranceConfig  `yaml:"utterance"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Log        LogConfig        `yaml:"log"`
}

type SkillConfig struct {
	ServerURL      string `yaml:"server_url"`
	Port           int    `yaml:"port"`
	ConnectTimeout string `yaml:"connect_timeout"`
	SendRetries    int    `yaml:"send_retries"`
	DialogsPath    string `yaml:"dialogs_path"`
}

type CameraConfig struct {
	Backend   string `yaml:"backend"`
	Device    string `yaml:"device"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	ImagePath string `yaml:"image_path"`
}

type SpeechConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	Language   string `yaml:"language"`
	SampleRate int    `yaml:"sample_rate"`
	MaxSeconds int    `yaml:"max_seconds"`
}

type UtteranceConfig struct {
	Source    string `yaml:"source"`
	HTTPAddr  string `yaml:"http_addr"`
	AuthToken string `yaml:"auth_token"`
	Prompt    string `yaml:"prompt"`
}

type RecognizerConfig struct {
	ListenAddr  string  `yaml:"listen_addr"`
	ModelPath   string  `yaml:"model_path"`
	Confidence  float32 `yaml:"confidence"`
	NMS         float32 `yaml:"nms"`
	IdleTimeout string  `yaml:"idle_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads path, expanding ${VAR} references from the environment. A
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Skill.ServerURL == "" {
		c.Skill.ServerURL = DefaultServerURL
	}
	if c.Skill.Port == 0 {
		c.Skill.Port = DefaultPort
	}
	if c.Skill.ConnectTimeout == "" {
		c.Skill.ConnectTimeout = "10s"
	}
	if c.Skill.SendRetries == 0 {
		c.Skill.SendRetries = 3
	}
	if c.Camera.Backend == "" {
		c.Camera.Backend = "ffmpeg"
	}
	if c.Camera.Device == "" {
		c.Camera.Device = "/dev/video0"
	}
	if c.Camera.Width == 0 {
		c.Camera.Width = 800
	}
	if c.Camera.Height == 0 {
		c.Camera.Height = 600
	}
	if c.Speech.Provider == "" {
		c.Speech.Provider = "google"
	}
	if c.Speech.Language == "" {
		c.Speech.Language = "en-US"
	}
	if c.Speech.SampleRate == 0 {
		c.Speech.SampleRate = 16000
	}
	if c.Speech.MaxSeconds == 0 {
		c.Speech.MaxSeconds = 10
	}
	if c.Utterance.Source == "" {
		c.Utterance.Source = "console"
	}
	if c.Utterance.HTTPAddr == "" {
		c.Utterance.HTTPAddr = ":8080"
	}
	if c.Utterance.Prompt == "" {
		c.Utterance.Prompt = "> "
	}
	if c.Recognizer.ListenAddr == "" {
		c.Recognizer.ListenAddr = fmt.Sprintf(":%d", DefaultPort)
	}
	if c.Recognizer.ModelPath == "" {
		c.Recognizer.ModelPath = "models/yolov8n.onnx"
	}
	if c.Recognizer.Confidence == 0 {
		c.Recognizer.Confidence = 0.5
	}
	if c.Recognizer.NMS == 0 {
		c.Recognizer.NMS = 0.45
	}
	if c.Recognizer.IdleTimeout == "" {
		c.Recognizer.IdleTimeout = "5m"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	if c.Skill.Port < 1 || c.Skill.Port > 65535 {
		return fmt.Errorf("invalid skill.port: %d", c.Skill.Port)
	}
	if c.Skill.SendRetries < 1 {
		return fmt.Errorf("invalid skill.send_retries: %d", c.Skill.SendRetries)
	}
	if _, err := time.ParseDuration(c.Skill.ConnectTimeout); err != nil {
		return fmt.Errorf("invalid skill.connect_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Recognizer.IdleTimeout); err != nil {
		return fmt.Errorf("invalid recognizer.idle_timeout: %w", err)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("invalid camera size: %dx%d", c.Camera.Width, c.Camera.Height)
	}
	switch c.Camera.Backend {
	case "ffmpeg", "gocv", "file":
	default:
		return fmt.Errorf("unknown camera.backend: %s", c.Camera.Backend)
	}
	if c.Camera.Backend == "file" && c.Camera.ImagePath == "" {
		return fmt.Errorf("camera.image_path is required for the file backend")
	}
	switch c.Speech.Provider {
	case "google", "whisper", "none":
	default:
		return fmt.Errorf("unknown speech.provider: %s", c.Speech.Provider)
	}
	switch c.Utterance.Source {
	case "console", "http":
	default:
		return fmt.Errorf("unknown utterance.source: %s", c.Utterance.Source)
	}
	return nil
}

// ConnectTimeout is only valid after Load.
func (c *Config) ConnectTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Skill.ConnectTimeout)
	return d
}

func (c *Config) IdleTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Recognizer.IdleTimeout)
	return d
}
