package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/zimu/internal/ffmpeg"
	"github.com/mgpai22/zimu/internal/media"
	"github.com/mgpai22/zimu/internal/subtitle"
)

var probeCmd = &cobra.Command{
	Use:   "probe <media_file>",
	Short: "Print the duration used for progress reporting",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	locator := ffmpeg.NewLocator(cfg.FFmpeg.FFmpegPath, cfg.FFmpeg.FFprobePath)
	ffprobePath, err := locator.FFprobe()
	if err != nil {
		return err
	}
	logger.Debugw("Using ffprobe", "path", ffprobePath)

	millis, err := media.NewFFprobe(ffprobePath).DurationMillis(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}

	d := time.Duration(millis) * time.Millisecond
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d ms\t%s\n",
		subtitle.FormatTimestamp(d.Seconds()), millis, d)
	return nil
}
