package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mgpai22/zimu/internal/progress"
	"github.com/mgpai22/zimu/internal/script"
	"github.com/mgpai22/zimu/internal/transcribe"
)

type Config struct {
	Engine      string `yaml:"engine"`
	Model       string `yaml:"model"`
	Language    string `yaml:"language"`
	BeamSize    int    `yaml:"beam_size"`
	Prompt      string `yaml:"prompt"`
	Script      string `yaml:"script"`
	ModelSuffix *bool  `yaml:"model_suffix"`
	Progress    string `yaml:"progress"`

	Whisper   WhisperConfig   `yaml:"whisper"`
	FFmpeg    FFmpegConfig    `yaml:"ffmpeg"`
	OpenAI    ProviderConfig  `yaml:"openai"`
	Gemini    ProviderConfig  `yaml:"gemini"`
	Anthropic ProviderConfig  `yaml:"anthropic"`
	Translate TranslateConfig `yaml:"translate"`
	Watch     WatchConfig     `yaml:"watch"`
}

type WhisperConfig struct {
	Python      string `yaml:"python"`
	Device      string `yaml:"device"`
	ComputeType string `yaml:"compute_type"`
}

type FFmpegConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type TranslateConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	BatchSize   int    `yaml:"batch_size"`
	Concurrency int    `yaml:"concurrency"`
}

type WatchConfig struct {
	Settle time.Duration `yaml:"settle"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	_ = cfg.Validate()
	return cfg
}

// Load reads a YAML file and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads path when given, otherwise <UserConfigDir>/zimu/config.yaml
// if it exists, otherwise the defaults.
func LoadDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return Default(), nil
	}
	candidate := filepath.Join(dir, "zimu", "config.yaml")
	if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(candidate)
}

// ApplyEnv fills secrets and binary locations from the environment. Values
// already set in the file win.
func (c *Config) ApplyEnv(getenv func(string) string) {
	setIfEmpty(&c.OpenAI.APIKey, getenv("OPENAI_API_KEY"))
	setIfEmpty(&c.Gemini.APIKey, getenv("GEMINI_API_KEY"))
	setIfEmpty(&c.Anthropic.APIKey, getenv("ANTHROPIC_API_KEY"))
	setIfEmpty(&c.Whisper.Python, getenv("ZIMU_PYTHON"))
	setIfEmpty(&c.FFmpeg.FFmpegPath, getenv("ZIMU_FFMPEG_PATH"))
	setIfEmpty(&c.FFmpeg.FFprobePath, getenv("ZIMU_FFPROBE_PATH"))
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

// Validate rejects unknown enum values and fills defaults.
func (c *Config) Validate() error {
	if _, err := transcribe.ParseProvider(c.Engine); err != nil {
		return err
	}
	if _, err := script.ParseDirection(c.Script); err != nil {
		return err
	}
	if _, err := progress.ParseMode(c.Progress); err != nil {
		return err
	}
	if c.BeamSize < 0 {
		return fmt.Errorf("beam_size must not be negative, got %d", c.BeamSize)
	}
	if c.Translate.BatchSize < 0 || c.Translate.Concurrency < 0 {
		return fmt.Errorf("translate.batch_size and translate.concurrency must not be negative")
	}

	if c.Engine == "" {
		c.Engine = string(transcribe.ProviderWhisper)
	}
	if c.Model == "" {
		c.Model = "medium"
	}
	if c.Language == "" {
		c.Language = "zh"
	}
	if c.BeamSize == 0 {
		c.BeamSize = 5
	}
	if c.Script == "" {
		c.Script = string(script.TraditionalToSimplified)
	}
	if c.ModelSuffix == nil {
		suffix := true
		c.ModelSuffix = &suffix
	}
	if c.Progress == "" {
		c.Progress = string(progress.ModePercent)
	}
	if c.Whisper.Device == "" {
		c.Whisper.Device = "cpu"
	}
	if c.Whisper.ComputeType == "" {
		c.Whisper.ComputeType = "int8"
	}
	if c.Translate.Provider == "" {
		c.Translate.Provider = "gemini"
	}
	if c.Translate.BatchSize == 0 {
		c.Translate.BatchSize = 50
	}
	if c.Translate.Concurrency == 0 {
		c.Translate.Concurrency = 3
	}
	if c.Watch.Settle <= 0 {
		c.Watch.Settle = 2 * time.Second
	}
	return nil
}

// APIKey returns the key for a cloud engine or translation provider.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAI.APIKey
	case "gemini":
		return c.Gemini.APIKey
	case "anthropic":
		return c.Anthropic.APIKey
	default:
		return ""
	}
}
