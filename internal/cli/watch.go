package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgpai22/zimu/internal/progress"
	"github.com/mgpai22/zimu/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir> [model] [normalize]",
	Short: "Transcribe media files as they appear in a directory",
	Long: `Watch a directory and transcribe every new audio or video file once it
has stopped changing. Files are processed one at a time; each one gets its
own .srt file next to it.

Examples:
  zimu watch ~/Recordings
  zimu watch ~/Recordings small --settle 10s`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().
		Duration("settle", 0, "How long a file must stay unchanged before it is processed (default from config, 2s)")
	addTranscribeFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	template, err := resolveSettings(cfg, cmd, append([]string{dir}, args[1:]...))
	if err != nil {
		return err
	}
	if template.Output != "" {
		return fmt.Errorf("--output cannot be used with watch; each file gets its own .srt")
	}
	// a shared terminal line is meaningless across files
	if template.Progress == progress.ModePercent {
		template.Progress = progress.ModeNone
	}

	settle := cfg.Watch.Settle
	if cmd.Flags().Changed("settle") {
		settle, _ = cmd.Flags().GetDuration("settle")
	}

	handler := func(ctx context.Context, path string) error {
		s := template
		s.Input = path
		result, err := transcribeFile(ctx, cfg, s, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Done! SRT saved to: %s\n", result.OutputPath)
		return nil
	}

	w, err := watch.New(dir, handler, logger, settle)
	if err != nil {
		return err
	}
	if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
