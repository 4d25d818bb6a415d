package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mgpai22/zimu/internal/subtitle"
)

// Stream yields segments in arrival order. Next returns io.EOF once the
// engine has finished; Close releases the engine's resources and may be
// called at any point.
type Stream interface {
	subtitle.Source
	Close() error
}

// interface for speech transcription engines
type Engine interface {
	Transcribe(ctx context.Context, mediaPath string) (Stream, error)
}

var (
	_ Engine = (*WhisperEngine)(nil)
	_ Engine = (*OpenAIEngine)(nil)
	_ Engine = (*GeminiEngine)(nil)
)

// transcription engine provider
type Provider string

const (
	ProviderWhisper Provider = "whisper"
	ProviderOpenAI  Provider = "openai"
	ProviderGemini  Provider = "gemini"
)

// transcription options shared by every engine
type Options struct {
	Model    string // engine model name, e.g. "medium" or "whisper-1"
	Language string // language hint, e.g. "zh"
	BeamSize int    // decoding quality; local engine only
	Prompt   string
}

// settings for the local faster-whisper engine
type WhisperConfig struct {
	Python      string
	Device      string
	ComputeType string
}

// everything needed to build an engine
type Config struct {
	Provider   Provider
	Options    Options
	Whisper    WhisperConfig
	APIKey     string
	FFmpegPath string // cloud engines compress audio before upload
}

// creates an engine for the configured provider
func New(ctx context.Context, cfg Config) (Engine, error) {
	switch cfg.Provider {
	case ProviderWhisper, "":
		return NewWhisperEngine(cfg.Whisper, cfg.Options)
	case ProviderOpenAI:
		return NewOpenAIEngine(cfg.APIKey, cfg.FFmpegPath, cfg.Options)
	case ProviderGemini:
		return NewGeminiEngine(ctx, cfg.APIKey, cfg.FFmpegPath, cfg.Options)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(s); p {
	case "", ProviderWhisper:
		return ProviderWhisper, nil
	case ProviderOpenAI, ProviderGemini:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported engine %q: use whisper, openai, or gemini", s)
	}
}

// SliceStream serves segments that an engine produced all at once.
type SliceStream struct {
	segments []subtitle.Segment
	pos      int
	closed   bool
}

func NewSliceStream(segments []subtitle.Segment) *SliceStream {
	return &SliceStream{segments: segments}
}

var errStreamClosed = errors.New("stream closed")

func (s *SliceStream) Next() (subtitle.Segment, error) {
	if s.closed {
		return subtitle.Segment{}, errStreamClosed
	}
	if s.pos >= len(s.segments) {
		return subtitle.Segment{}, io.EOF
	}
	seg := s.segments[s.pos]
	s.pos++
	return seg, nil
}

func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}
