package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mgpai22/zimu/internal/media"
	"github.com/mgpai22/zimu/internal/subtitle"
)

// implements Engine using the OpenAI audio transcription API
type OpenAIEngine struct {
	client     openai.Client
	model      string
	ffmpegPath string
	options    Options
}

// segment from a verbose_json response
type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// verbose_json response structure
type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Duration float64          `json:"duration"`
}

func NewOpenAIEngine(apiKey, ffmpegPath string, opts Options) (*OpenAIEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required: set openai.api_key or OPENAI_API_KEY")
	}

	model := opts.Model
	if model == "" || IsKnownModel(model) {
		model = "whisper-1"
	}

	return &OpenAIEngine{
		client:     openai.NewClient(option.WithAPIKey(apiKey)),
		model:      model,
		ffmpegPath: ffmpegPath,
		options:    opts,
	}, nil
}

// Transcribe uploads a compressed copy of the media. The API caps uploads at
// 25 MB, roughly 50 minutes at the default 64k mono mp3.
func (e *OpenAIEngine) Transcribe(ctx context.Context, mediaPath string) (Stream, error) {
	tempDir, err := os.MkdirTemp("", "zimu-openai-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	audioPath := filepath.Join(tempDir, "audio.mp3")
	if err := media.ExtractAudio(ctx, e.ffmpegPath, mediaPath, audioPath, media.DefaultAudioOptions()); err != nil {
		return nil, err
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(e.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}
	if e.options.Language != "" {
		params.Language = openai.String(e.options.Language)
	}
	if e.options.Prompt != "" {
		params.Prompt = openai.String(e.options.Prompt)
	}

	resp, err := e.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	segments, err := parseVerboseJSON(resp.RawJSON())
	if err != nil {
		return nil, err
	}
	return NewSliceStream(segments), nil
}

// parseVerboseJSON keeps every segment, including empty ones, so block
// numbering mirrors the engine output.
func parseVerboseJSON(rawJSON string) ([]subtitle.Segment, error) {
	if rawJSON == "" {
		return nil, fmt.Errorf("empty response")
	}

	var resp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	if len(resp.Segments) == 0 {
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return nil, nil
		}
		return []subtitle.Segment{{Start: 0, End: resp.Duration, Text: text}}, nil
	}

	segments := make([]subtitle.Segment, len(resp.Segments))
	for i, seg := range resp.Segments {
		segments[i] = subtitle.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
	}
	return segments, nil
}
