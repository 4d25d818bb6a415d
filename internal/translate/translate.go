// Package translate translates subtitle text through hosted LLM providers.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mgpai22/zimu/internal/subtitle"
)

// Item is one subtitle text sent for translation.
type Item struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Result is the translation of the Item with the same Index.
type Result struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// interface for text translation
type Translator interface {
	Translate(ctx context.Context, items []Item) ([]Result, error)
}

// translation service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 3
)

type Options struct {
	SourceLanguage string
	TargetLanguage string
	Model          string
	Prompt         string
	BatchSize      int // items per API request
	Concurrency    int // batches in flight
}

// creates a Translator for provider
func Factory(ctx context.Context, provider Provider, apiKey string, opts Options) (Translator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranslator(apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

// BuildPrompt creates the translation prompt for one batch.
func BuildPrompt(opts Options, items []Item) string {
	var sb strings.Builder

	if opts.SourceLanguage != "" {
		fmt.Fprintf(&sb, "Translate the following %s subtitle lines to %s.\n\n", opts.SourceLanguage, opts.TargetLanguage)
	} else {
		fmt.Fprintf(&sb, "Translate the following subtitle lines to %s.\n\n", opts.TargetLanguage)
	}

	sb.WriteString("Rules:\n")
	sb.WriteString("1. Translate each line on its own; lines are consecutive speech.\n")
	sb.WriteString("2. Keep line breaks inside a text in the same places.\n")
	sb.WriteString("3. Return ONLY a JSON array of objects with 'index' and 'text' fields.\n")
	sb.WriteString("4. The 'index' values must match the input indices exactly.\n")
	sb.WriteString("5. Do not add explanations or markdown.\n\n")

	if opts.Prompt != "" {
		fmt.Fprintf(&sb, "Additional instructions: %s\n\n", opts.Prompt)
	}

	sb.WriteString("Input JSON:\n")
	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(inputJSON)
	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}

type batchFunc func(ctx context.Context, items []Item) ([]Result, error)

func batches(items []Item, size int) [][]Item {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]Item
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		out = append(out, items[i:end])
	}
	return out
}

// translateBatches splits items into batches and runs up to concurrency of
// them at a time. The first failing batch cancels the rest. Results come
// back sorted by index.
func translateBatches(ctx context.Context, items []Item, opts Options, translate batchFunc) ([]Result, error) {
	if len(items) == 0 {
		return []Result{}, nil
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	work := batches(items, opts.BatchSize)
	if len(work) == 1 {
		return translate(ctx, work[0])
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type batchResult struct {
		index   int
		results []Result
		err     error
	}

	workChan := make(chan int)
	resultChan := make(chan batchResult, len(work))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(work); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workChan {
				if ctx.Err() != nil {
					return
				}
				results, err := translate(ctx, work[idx])
				if err != nil {
					cancel()
				}
				resultChan <- batchResult{index: idx, results: results, err: err}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i := range work {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var all []Result
	var firstErr error
	for r := range resultChan {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("batch %d failed: %w", r.index, r.err)
			}
			continue
		}
		all = append(all, r.results...)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil && len(all) != len(items) {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Index < all[j].Index
	})
	return all, nil
}

// Subtitles translates the text of every entry and keeps its timing.
func Subtitles(ctx context.Context, tr Translator, entries []subtitle.Entry) ([]subtitle.Segment, error) {
	items := make([]Item, len(entries))
	for i, e := range entries {
		items[i] = Item{Index: i, Text: e.Text}
	}

	results, err := tr.Translate(ctx, items)
	if err != nil {
		return nil, err
	}

	translated := make(map[int]string, len(results))
	for _, r := range results {
		translated[r.Index] = r.Text
	}

	segments := subtitle.EntriesToSegments(entries)
	for i := range segments {
		text, ok := translated[i]
		if !ok {
			return nil, fmt.Errorf("missing translation for subtitle %d", entries[i].Index)
		}
		segments[i].Text = text
	}
	return segments, nil
}

// OutputPath returns <dir>/<base>.<lang>.srt for an input SRT file.
func OutputPath(input, lang string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	lang = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(lang), " ", "-"))
	return filepath.Join(filepath.Dir(input), base+"."+lang+subtitle.Extension)
}
