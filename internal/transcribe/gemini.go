package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/mgpai22/zimu/internal/llmjson"
	"github.com/mgpai22/zimu/internal/media"
)

// implements Engine using Google Gemini
type GeminiEngine struct {
	client     *genai.Client
	model      string
	ffmpegPath string
	options    Options
}

func NewGeminiEngine(ctx context.Context, apiKey, ffmpegPath string, opts Options) (*GeminiEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required: set gemini.api_key or GEMINI_API_KEY")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" || IsKnownModel(model) {
		model = "gemini-2.5-flash"
	}

	return &GeminiEngine{
		client:     client,
		model:      model,
		ffmpegPath: ffmpegPath,
		options:    opts,
	}, nil
}

func (e *GeminiEngine) Transcribe(ctx context.Context, mediaPath string) (Stream, error) {
	tempDir, err := os.MkdirTemp("", "zimu-gemini-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	audioPath := filepath.Join(tempDir, "audio.mp3")
	if err := media.ExtractAudio(ctx, e.ffmpegPath, mediaPath, audioPath, media.DefaultAudioOptions()); err != nil {
		return nil, err
	}

	uploaded, err := e.client.Files.UploadFromPath(ctx, audioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}
	defer deleteUpload(ctx, e.client.Files, uploaded.Name)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(e.prompt()),
			genai.NewPartFromURI(uploaded.URI, uploaded.MIMEType),
		}, genai.RoleUser),
	}

	result, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("no text in Gemini response")
	}

	segments, err := extractTranscriptSegments(llmjson.Clean(text))
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w (response: %s)", err, llmjson.Truncate(text, 200))
	}

	// the model occasionally emits cues out of order
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})

	return NewSliceStream(segments), nil
}

func (e *GeminiEngine) prompt() string {
	var sb strings.Builder

	sb.WriteString("Transcribe this audio verbatim. ")
	sb.WriteString("Return a JSON array of objects with 'start', 'end' and 'text' fields, ")
	sb.WriteString("one object per sentence or phrase, where 'start' and 'end' are offsets in seconds (numbers). ")
	if e.options.Language != "" {
		sb.WriteString(fmt.Sprintf("The speech is in language %q; keep the transcript in that language. ", e.options.Language))
	}
	if e.options.Prompt != "" {
		sb.WriteString(e.options.Prompt)
		sb.WriteString(" ")
	}
	sb.WriteString("Return ONLY the JSON array, no other text or markdown formatting.")

	return sb.String()
}

type fileDeleter interface {
	Delete(ctx context.Context, name string, config *genai.DeleteFileConfig) (*genai.DeleteFileResponse, error)
}

// deleteUpload removes an uploaded file even when ctx was cancelled
// mid-request, so an interrupt does not leave the upload behind.
func deleteUpload(ctx context.Context, files fileDeleter, name string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	_, _ = files.Delete(ctx, name, nil)
}
