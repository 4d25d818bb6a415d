// Package pipeline turns one media file into one SRT file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/zimu/internal/logging"
	"github.com/mgpai22/zimu/internal/media"
	"github.com/mgpai22/zimu/internal/progress"
	"github.com/mgpai22/zimu/internal/script"
	"github.com/mgpai22/zimu/internal/subtitle"
	"github.com/mgpai22/zimu/internal/transcribe"
)

// Request describes a single run.
type Request struct {
	InputPath   string
	OutputPath  string // derived from InputPath when empty
	Model       string
	ModelSuffix bool
	Script      script.Direction
	Progress    progress.Mode
}

// Deps are the collaborators of a run.
type Deps struct {
	Engine transcribe.Engine
	Prober media.Prober // optional
	// NewConverter defaults to script.New
	NewConverter func(script.Direction) (script.Converter, error)
	Stdout       io.Writer
	Logger       *logging.Logger
}

// Result summarizes a finished run.
type Result struct {
	OutputPath     string
	Blocks         int
	DurationMillis int64
}

// OutputPath returns <dir>/<base>[_<model>].srt for input.
func OutputPath(input, model string, suffix bool) string {
	dir := filepath.Dir(input)
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if suffix && model != "" {
		base += "_" + model
	}
	return filepath.Join(dir, base+subtitle.Extension)
}

// CheckInput reports a usage error unless path is an existing regular file.
func CheckInput(path string) error {
	if path == "" {
		return fmt.Errorf("%w: input file is required", ErrUsage)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: input file: %w", ErrUsage, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: input %s is a directory", ErrUsage, path)
	}
	return nil
}

// Run transcribes req.InputPath and writes the SRT file. The output file is
// created only after the converter and the engine have started; on a
// mid-stream failure the blocks written so far stay on disk.
func Run(ctx context.Context, req Request, deps Deps) (*Result, error) {
	log := deps.Logger
	if log == nil {
		log = logging.NewNop()
	}
	stdout := deps.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	newConverter := deps.NewConverter
	if newConverter == nil {
		newConverter = script.New
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("%w: no transcription engine configured", ErrUsage)
	}

	if err := CheckInput(req.InputPath); err != nil {
		return nil, err
	}

	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = OutputPath(req.InputPath, req.Model, req.ModelSuffix)
	}

	var totalMillis int64
	if deps.Prober != nil {
		var err error
		totalMillis, err = deps.Prober.DurationMillis(ctx, req.InputPath)
		if err != nil {
			log.Warnw("Could not determine duration, progress disabled", "input", req.InputPath, "error", err)
			totalMillis = 0
		}
	}
	log.Debugw("Probed duration", "millis", totalMillis)

	conv, err := newConverter(req.Script)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConvert, err)
	}

	log.Infow("Transcribing", "input", req.InputPath, "model", req.Model)
	stream, err := deps.Engine.Transcribe(ctx, req.InputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngine, err)
	}
	defer stream.Close()

	file, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	reporter := progress.New(req.Progress, stdout, totalMillis)
	writer := subtitle.NewStreamWriter(file, script.Normalizer(conv))
	blocks, writeErr := writer.WriteAll(stream, func(seg subtitle.Segment, _ subtitle.Block) {
		reporter.Advance(seg.End)
	})
	closeErr := file.Close()

	if writeErr != nil {
		log.Debugw("Run aborted", "blocks", blocks, "output", outputPath)
		return nil, classify(writeErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, closeErr)
	}
	reporter.Finish()

	log.Infow("Wrote subtitles", "output", outputPath, "blocks", blocks)
	return &Result{
		OutputPath:     outputPath,
		Blocks:         blocks,
		DurationMillis: totalMillis,
	}, nil
}

func classify(err error) error {
	var normErr *subtitle.NormalizeError
	if errors.As(err, &normErr) {
		return fmt.Errorf("%w: %w", ErrConvert, err)
	}
	var srcErr *subtitle.SourceError
	if errors.As(err, &srcErr) {
		return fmt.Errorf("%w: %w", ErrEngine, err)
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}
