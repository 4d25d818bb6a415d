package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgpai22/zimu/internal/config"
	"github.com/mgpai22/zimu/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "zimu <input> [model] [normalize]",
	Short: "Generate Chinese subtitles from speech",
	Long: `Zimu transcribes Mandarin speech in an audio or video file and writes
a SubRip (.srt) subtitle file next to it.

The optional second argument picks the model (tiny, base, small, medium,
large-v3; default medium). The optional third argument turns
Traditional-to-Simplified conversion on or off (default true).

Examples:
  zimu lecture.mp4
  zimu lecture.mp4 large-v3
  zimu interview.wav small false
  zimu lecture.mp4 --engine gemini --progress marker`,
	Args: cobra.RangeArgs(1, 3),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		loaded, err := config.LoadDefault(configPath)
		if err != nil {
			return err
		}
		loaded.ApplyEnv(os.Getenv)
		cfg = loaded
		return nil
	},
	RunE: runTranscribe,
}

// ExecuteContext runs the root command; ctx is cancelled on interrupt.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default: <user config dir>/zimu/config.yaml)")

	addTranscribeFlags(rootCmd)
}

// flags shared by every command that runs a transcription
func addTranscribeFlags(cmd *cobra.Command) {
	cmd.Flags().
		StringP("model", "m", "", "Model name (overridden by the second argument)")
	cmd.Flags().
		StringP("engine", "e", "", "Transcription engine (whisper, openai, gemini)")
	cmd.Flags().
		String("script", "", "Script conversion (t2s, s2t, none)")
	cmd.Flags().
		String("progress", "", "Progress output (percent, marker, none)")
	cmd.Flags().
		StringP("language", "l", "", "Language hint passed to the engine")
	cmd.Flags().
		Int("beam-size", 0, "Beam size for the local engine")
	cmd.Flags().
		String("prompt", "", "Initial prompt or extra instructions for the engine")
	cmd.Flags().
		StringP("output", "o", "", "Output file path")
	cmd.Flags().
		Bool("no-model-suffix", false, "Do not append the model name to the output file name")
}
