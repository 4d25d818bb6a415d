package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/zimu/internal/subtitle"
	"github.com/mgpai22/zimu/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate <subtitle.srt>",
	Short: "Translate an SRT file to another language using AI",
	Long: `Translate an existing SRT file, such as one produced by zimu, to another
language. Timing is kept; blocks are renumbered 1..N.

The --overlay flag creates bilingual subtitles with the translated text
first, followed by the original text on the next line.

Examples:
  zimu translate lecture_medium.srt -t english
  zimu translate lecture_medium.srt -t ja --overlay --provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation (required)")
	translateCmd.Flags().
		String("source-language", "Chinese", "Language of the input subtitles")
	translateCmd.Flags().
		Bool("overlay", false, "Overlay translated text with original (bilingual subtitles)")
	translateCmd.Flags().
		String("provider", "", "Translation provider (gemini, openai, anthropic)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (default from config or the provider's env var)")
	translateCmd.Flags().
		String("model", "", "Model to use for translation (provider-specific default)")
	translateCmd.Flags().
		Int("concurrency", 0, "Number of parallel translation workers")
	translateCmd.Flags().
		Int("batch-size", 0, "Number of subtitle entries per API request")
	translateCmd.Flags().
		StringP("output", "o", "", "Output file path")

	_ = translateCmd.MarkFlagRequired("target-language")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	subtitlePath := args[0]
	ctx := cmd.Context()

	targetLang, _ := cmd.Flags().GetString("target-language")
	sourceLang, _ := cmd.Flags().GetString("source-language")
	overlay, _ := cmd.Flags().GetBool("overlay")
	apiKey, _ := cmd.Flags().GetString("api-key")
	outputPath, _ := cmd.Flags().GetString("output")

	providerName := cfg.Translate.Provider
	if cmd.Flags().Changed("provider") {
		providerName, _ = cmd.Flags().GetString("provider")
	}
	model := cfg.Translate.Model
	if cmd.Flags().Changed("model") {
		model, _ = cmd.Flags().GetString("model")
	}
	concurrency := cfg.Translate.Concurrency
	if cmd.Flags().Changed("concurrency") {
		concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	batchSize := cfg.Translate.BatchSize
	if cmd.Flags().Changed("batch-size") {
		batchSize, _ = cmd.Flags().GetInt("batch-size")
	}

	if ext := strings.ToLower(filepath.Ext(subtitlePath)); ext != subtitle.Extension {
		return fmt.Errorf("unsupported subtitle format %q: only .srt is supported", ext)
	}
	if strings.TrimSpace(targetLang) == "" {
		return fmt.Errorf("target language is required")
	}
	if strings.EqualFold(strings.TrimSpace(sourceLang), strings.TrimSpace(targetLang)) {
		return fmt.Errorf("source language %q and target language %q cannot be the same", sourceLang, targetLang)
	}
	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}

	provider := translate.Provider(providerName)
	if apiKey == "" {
		apiKey = cfg.APIKey(providerName)
	}
	if apiKey == "" {
		return fmt.Errorf("API key is required: use --api-key or set %s_API_KEY", strings.ToUpper(providerName))
	}

	if outputPath == "" {
		outputPath = translate.OutputPath(subtitlePath, targetLang)
		if overlay {
			outputPath = strings.TrimSuffix(outputPath, subtitle.Extension) + ".overlay" + subtitle.Extension
		}
	}

	entries, err := subtitle.ParseSRTFile(subtitlePath)
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("subtitle file contains no entries")
	}

	logger.Infow("Starting subtitle translation",
		"input", subtitlePath,
		"output", outputPath,
		"entries", len(entries),
		"provider", provider,
		"target_language", targetLang,
		"overlay", overlay,
	)

	translator, err := translate.Factory(ctx, provider, apiKey, translate.Options{
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
		Model:          model,
		BatchSize:      batchSize,
		Concurrency:    concurrency,
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	segments, err := translate.Subtitles(ctx, translator, entries)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	if overlay {
		for i := range segments {
			segments[i].Text = segments[i].Text + "\n" + entries[i].Text
		}
	}

	if err := writeSRTFile(outputPath, segments); err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Subtitles translated successfully: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Entries: %d\n", len(segments))
	fmt.Fprintf(cmd.OutOrStdout(), "  Target language: %s\n", targetLang)
	return nil
}

func writeSRTFile(path string, segments []subtitle.Segment) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := subtitle.WriteSRT(f, segments, nil); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return f.Close()
}
