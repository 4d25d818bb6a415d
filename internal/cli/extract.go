package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/zimu/internal/ffmpeg"
	"github.com/mgpai22/zimu/internal/media"
)

var extractCmd = &cobra.Command{
	Use:   "extract <media_file>",
	Short: "Extract speech-ready audio from a media file",
	Long: `Extract the audio track from a video or audio file, resampled for speech
recognition (16 kHz mono by default).

Examples:
  zimu extract lecture.mp4
  zimu extract lecture.mp4 -o lecture.wav -f wav`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	defaults := media.DefaultAudioOptions()
	extractCmd.Flags().
		StringP("format", "f", defaults.Format, "Output audio format (mp3, wav, flac)")
	extractCmd.Flags().
		IntP("sample-rate", "r", defaults.SampleRate, "Sample rate in Hz")
	extractCmd.Flags().
		IntP("channels", "c", defaults.Channels, "Number of audio channels (1=mono, 2=stereo)")
	extractCmd.Flags().
		StringP("bitrate", "b", defaults.Bitrate, "Bitrate for mp3 output")
	extractCmd.Flags().
		StringP("output", "o", "", "Output file path")
}

func runExtract(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	opts := media.AudioOptions{}
	opts.Format, _ = cmd.Flags().GetString("format")
	opts.SampleRate, _ = cmd.Flags().GetInt("sample-rate")
	opts.Channels, _ = cmd.Flags().GetInt("channels")
	opts.Bitrate, _ = cmd.Flags().GetString("bitrate")
	outputPath, _ := cmd.Flags().GetString("output")

	switch opts.Format {
	case "mp3", "wav", "flac":
	default:
		return fmt.Errorf("invalid format %q: supported formats are mp3, wav, flac", opts.Format)
	}
	if !media.IsMediaFile(inputPath) {
		return fmt.Errorf("unsupported file type: %s (expected audio or video file)", filepath.Ext(inputPath))
	}

	if outputPath == "" {
		outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "." + opts.Format
	}
	if filepath.Clean(outputPath) == filepath.Clean(inputPath) {
		return fmt.Errorf("output would overwrite the input; use --output")
	}

	ffmpegPath, err := ffmpeg.NewLocator(cfg.FFmpeg.FFmpegPath, cfg.FFmpeg.FFprobePath).FFmpeg()
	if err != nil {
		return err
	}

	logger.Infow("Extracting audio",
		"input", inputPath,
		"output", outputPath,
		"format", opts.Format,
		"sample_rate", opts.SampleRate,
		"channels", opts.Channels,
	)

	if err := media.ExtractAudio(cmd.Context(), ffmpegPath, inputPath, outputPath, opts); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Audio extracted successfully: %s\n", absOutput)
	return nil
}
