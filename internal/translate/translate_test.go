package translate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mgpai22/zimu/internal/subtitle"
)

func TestFactory(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		provider Provider
		opts     Options
		wantType string
		wantErr  bool
	}{
		{"gemini", ProviderGemini, Options{TargetLanguage: "English"}, "*translate.GeminiTranslator", false},
		{"openai", ProviderOpenAI, Options{TargetLanguage: "Spanish"}, "*translate.OpenAITranslator", false},
		{"anthropic", ProviderAnthropic, Options{TargetLanguage: "German"}, "*translate.AnthropicTranslator", false},
		{"missing target", ProviderGemini, Options{}, "", true},
		{"unknown provider", Provider("unknown"), Options{TargetLanguage: "French"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			translator, err := Factory(ctx, tt.provider, "fake-key", tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Factory() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && fmt.Sprintf("%T", translator) != tt.wantType {
				t.Errorf("Factory() = %T, want %s", translator, tt.wantType)
			}
		})
	}
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	for _, p := range []Provider{ProviderGemini, ProviderOpenAI, ProviderAnthropic} {
		if _, err := Factory(context.Background(), p, "", Options{TargetLanguage: "English"}); err == nil {
			t.Errorf("%s: expected error for missing API key", p)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	items := []Item{
		{Index: 0, Text: "你好"},
		{Index: 1, Text: "世界"},
	}

	prompt := BuildPrompt(Options{SourceLanguage: "Chinese", TargetLanguage: "English", Prompt: "keep names in pinyin"}, items)
	for _, want := range []string{"Chinese subtitle lines to English", "你好", `"index": 1`, "keep names in pinyin"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	prompt = BuildPrompt(Options{TargetLanguage: "Japanese"}, items[:1])
	if strings.Contains(prompt, "Chinese") {
		t.Error("prompt should not name a source language when none is set")
	}
	if !strings.Contains(prompt, "to Japanese") {
		t.Error("prompt should contain target language")
	}
}

// echoBatch "translates" by upper-casing and records batch sizes.
type echoBatch struct {
	mu       sync.Mutex
	sizes    []int
	inFlight int
	maxSeen  int
	failOn   int // batch starting at this index fails; -1 disables
}

func (e *echoBatch) translate(ctx context.Context, items []Item) ([]Result, error) {
	e.mu.Lock()
	e.sizes = append(e.sizes, len(items))
	e.inFlight++
	if e.inFlight > e.maxSeen {
		e.maxSeen = e.inFlight
	}
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.inFlight--
		e.mu.Unlock()
	}()

	if items[0].Index == e.failOn {
		return nil, errors.New("quota exceeded")
	}
	results := make([]Result, len(items))
	// reverse order to check that results are sorted afterwards
	for i, it := range items {
		results[len(items)-1-i] = Result{Index: it.Index, Text: strings.ToUpper(it.Text)}
	}
	return results, nil
}

func makeItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{Index: i, Text: fmt.Sprintf("line %d", i)}
	}
	return items
}

func TestTranslateBatches(t *testing.T) {
	tests := []struct {
		name        string
		items       int
		batchSize   int
		concurrency int
		wantBatches int
	}{
		{"empty", 0, 10, 2, 0},
		{"single batch", 5, 10, 2, 1},
		{"exact multiple", 20, 10, 2, 2},
		{"remainder", 25, 10, 3, 3},
		{"default batch size", 120, 0, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			echo := &echoBatch{failOn: -1}
			results, err := translateBatches(context.Background(), makeItems(tt.items),
				Options{BatchSize: tt.batchSize, Concurrency: tt.concurrency}, echo.translate)
			if err != nil {
				t.Fatalf("translateBatches() error = %v", err)
			}
			if len(results) != tt.items {
				t.Fatalf("got %d results, want %d", len(results), tt.items)
			}
			for i, r := range results {
				if r.Index != i || r.Text != fmt.Sprintf("LINE %d", i) {
					t.Errorf("results[%d] = %+v", i, r)
				}
			}
			if len(echo.sizes) != tt.wantBatches {
				t.Errorf("batches = %d, want %d", len(echo.sizes), tt.wantBatches)
			}
			limit := tt.concurrency
			if limit == 0 {
				limit = DefaultConcurrency
			}
			if echo.maxSeen > limit {
				t.Errorf("max in flight = %d, limit %d", echo.maxSeen, limit)
			}
		})
	}
}

func TestTranslateBatchesFailure(t *testing.T) {
	echo := &echoBatch{failOn: 10}
	_, err := translateBatches(context.Background(), makeItems(30), Options{BatchSize: 10, Concurrency: 1}, echo.translate)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("translateBatches() error = %v", err)
	}
}

type mapTranslator struct {
	dict map[string]string
	drop bool
}

func (m mapTranslator) Translate(ctx context.Context, items []Item) ([]Result, error) {
	var results []Result
	for _, it := range items {
		if m.drop && it.Index == len(items)-1 {
			continue
		}
		results = append(results, Result{Index: it.Index, Text: m.dict[it.Text]})
	}
	return results, nil
}

func TestSubtitles(t *testing.T) {
	entries := []subtitle.Entry{
		{Index: 3, Start: 0, End: 1.2, Text: "你好"},
		{Index: 7, Start: 1.2, End: 3, Text: "世界"},
	}
	tr := mapTranslator{dict: map[string]string{"你好": "Hello", "世界": "World"}}

	segments, err := Subtitles(context.Background(), tr, entries)
	if err != nil {
		t.Fatalf("Subtitles() error = %v", err)
	}

	var buf strings.Builder
	if err := subtitle.WriteSRT(&buf, segments, nil); err != nil {
		t.Fatal(err)
	}
	want := "1\n00:00:00,000 --> 00:00:01,200\nHello\n\n" +
		"2\n00:00:01,200 --> 00:00:03,000\nWorld\n\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}

	tr.drop = true
	if _, err := Subtitles(context.Background(), tr, entries); err == nil {
		t.Error("expected error for a missing translation")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input string
		lang  string
		want  string
	}{
		{"/subs/lecture_medium.srt", "English", "/subs/lecture_medium.english.srt"},
		{"/subs/talk.srt", "en", "/subs/talk.en.srt"},
		{"/subs/talk.srt", "Brazilian Portuguese", "/subs/talk.brazilian-portuguese.srt"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := OutputPath(filepath.FromSlash(tt.input), tt.lang)
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("OutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Integration test: only runs if OPENAI_API_KEY is set
func TestOpenAITranslatorIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set; skipping integration test")
	}

	translator, err := NewOpenAITranslator(apiKey, Options{SourceLanguage: "Chinese", TargetLanguage: "English"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator error: %v", err)
	}

	results, err := translator.Translate(context.Background(), []Item{
		{Index: 0, Text: "你好"},
		{Index: 1, Text: "再见"},
	})
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}
