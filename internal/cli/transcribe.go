package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mgpai22/zimu/internal/config"
	"github.com/mgpai22/zimu/internal/ffmpeg"
	"github.com/mgpai22/zimu/internal/media"
	"github.com/mgpai22/zimu/internal/pipeline"
	"github.com/mgpai22/zimu/internal/progress"
	"github.com/mgpai22/zimu/internal/script"
	"github.com/mgpai22/zimu/internal/transcribe"
)

// settings is the resolved configuration of one transcription run.
type settings struct {
	Input       string
	Output      string
	Engine      transcribe.Provider
	Model       string
	Language    string
	BeamSize    int
	Prompt      string
	Script      script.Direction
	Progress    progress.Mode
	ModelSuffix bool
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings(cfg, cmd, args)
	if err != nil {
		return err
	}

	result, err := transcribeFile(cmd.Context(), cfg, s, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Done! SRT saved to: %s\n", result.OutputPath)
	return nil
}

// resolveSettings layers flags and positional arguments over c.
func resolveSettings(c *config.Config, cmd *cobra.Command, args []string) (settings, error) {
	s := settings{
		Model:       c.Model,
		Language:    c.Language,
		BeamSize:    c.BeamSize,
		Prompt:      c.Prompt,
		ModelSuffix: c.ModelSuffix == nil || *c.ModelSuffix,
	}
	engine := c.Engine
	scriptName := c.Script
	progressName := c.Progress

	flags := cmd.Flags()
	if flags.Changed("model") {
		s.Model, _ = flags.GetString("model")
	}
	if flags.Changed("engine") {
		engine, _ = flags.GetString("engine")
	}
	if flags.Changed("script") {
		scriptName, _ = flags.GetString("script")
	}
	if flags.Changed("progress") {
		progressName, _ = flags.GetString("progress")
	}
	if flags.Changed("language") {
		s.Language, _ = flags.GetString("language")
	}
	if flags.Changed("beam-size") {
		s.BeamSize, _ = flags.GetInt("beam-size")
	}
	if flags.Changed("prompt") {
		s.Prompt, _ = flags.GetString("prompt")
	}
	if flags.Changed("no-model-suffix") {
		noSuffix, _ := flags.GetBool("no-model-suffix")
		s.ModelSuffix = !noSuffix
	}
	s.Output, _ = flags.GetString("output")

	var err error
	if s.Engine, err = transcribe.ParseProvider(engine); err != nil {
		return settings{}, fmt.Errorf("%w: %w", pipeline.ErrUsage, err)
	}
	if s.Script, err = script.ParseDirection(scriptName); err != nil {
		return settings{}, fmt.Errorf("%w: %w", pipeline.ErrUsage, err)
	}
	if s.Progress, err = progress.ParseMode(progressName); err != nil {
		return settings{}, fmt.Errorf("%w: %w", pipeline.ErrUsage, err)
	}

	if len(args) == 0 || args[0] == "" {
		return settings{}, fmt.Errorf("%w: input file is required", pipeline.ErrUsage)
	}
	s.Input = args[0]
	if len(args) > 1 && args[1] != "" {
		s.Model = args[1]
	}
	if len(args) > 2 {
		normalize, err := strconv.ParseBool(args[2])
		if err != nil {
			return settings{}, fmt.Errorf("%w: normalize flag %q must be true or false", pipeline.ErrUsage, args[2])
		}
		s.Script = script.FromFlag(normalize)
	}

	if s.BeamSize <= 0 {
		return settings{}, fmt.Errorf("%w: beam size must be positive, got %d", pipeline.ErrUsage, s.BeamSize)
	}
	return s, nil
}

// transcribeFile builds the engine and probe for s and runs the pipeline.
func transcribeFile(ctx context.Context, c *config.Config, s settings, stdout io.Writer) (*pipeline.Result, error) {
	if err := pipeline.CheckInput(s.Input); err != nil {
		return nil, err
	}
	if s.Engine == transcribe.ProviderWhisper && !transcribe.IsKnownModel(s.Model) {
		logger.Warnw("Unknown model name, passing it to faster-whisper as is",
			"model", s.Model,
			"known", transcribe.KnownModels,
		)
	}

	locator := ffmpeg.NewLocator(c.FFmpeg.FFmpegPath, c.FFmpeg.FFprobePath)

	var prober media.Prober
	if ffprobePath, err := locator.FFprobe(); err != nil {
		logger.Warnw("ffprobe not available, progress disabled", "error", err)
	} else {
		prober = media.NewFFprobe(ffprobePath)
	}

	engineCfg := transcribe.Config{
		Provider: s.Engine,
		Options: transcribe.Options{
			Model:    s.Model,
			Language: s.Language,
			BeamSize: s.BeamSize,
			Prompt:   s.Prompt,
		},
		Whisper: transcribe.WhisperConfig{
			Python:      c.Whisper.Python,
			Device:      c.Whisper.Device,
			ComputeType: c.Whisper.ComputeType,
		},
		APIKey: c.APIKey(string(s.Engine)),
	}

	if s.Engine != transcribe.ProviderWhisper {
		ffmpegPath, err := locator.FFmpeg()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", pipeline.ErrEngine, err)
		}
		engineCfg.FFmpegPath = ffmpegPath
		if providerModel := cloudModel(c, s.Engine); providerModel != "" && transcribe.IsKnownModel(s.Model) {
			engineCfg.Options.Model = providerModel
		}
	}

	engine, err := transcribe.New(ctx, engineCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrEngine, err)
	}

	logger.Debugw("Resolved settings",
		"engine", s.Engine,
		"model", s.Model,
		"language", s.Language,
		"beam_size", s.BeamSize,
		"script", s.Script,
		"progress", s.Progress,
	)

	return pipeline.Run(ctx, pipeline.Request{
		InputPath:   s.Input,
		OutputPath:  s.Output,
		Model:       s.Model,
		ModelSuffix: s.ModelSuffix,
		Script:      s.Script,
		Progress:    s.Progress,
	}, pipeline.Deps{
		Engine: engine,
		Prober: prober,
		Stdout: stdout,
		Logger: logger,
	})
}

func cloudModel(c *config.Config, engine transcribe.Provider) string {
	switch engine {
	case transcribe.ProviderOpenAI:
		return c.OpenAI.Model
	case transcribe.ProviderGemini:
		return c.Gemini.Model
	default:
		return ""
	}
}
