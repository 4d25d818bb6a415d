package cli

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"

	"github.com/mgpai22/zimu/internal/config"
	"github.com/mgpai22/zimu/internal/pipeline"
	"github.com/mgpai22/zimu/internal/progress"
	"github.com/mgpai22/zimu/internal/script"
	"github.com/mgpai22/zimu/internal/transcribe"
)

func newTestCmd(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "zimu"}
	addTranscribeFlags(cmd)
	if err := cmd.ParseFlags(flags); err != nil {
		t.Fatalf("ParseFlags(%v) error = %v", flags, err)
	}
	return cmd
}

func TestResolveSettingsDefaults(t *testing.T) {
	s, err := resolveSettings(config.Default(), newTestCmd(t), []string{"lecture.mp4"})
	if err != nil {
		t.Fatalf("resolveSettings() error = %v", err)
	}

	want := settings{
		Input:       "lecture.mp4",
		Engine:      transcribe.ProviderWhisper,
		Model:       "medium",
		Language:    "zh",
		BeamSize:    5,
		Script:      script.TraditionalToSimplified,
		Progress:    progress.ModePercent,
		ModelSuffix: true,
	}
	if s != want {
		t.Errorf("resolveSettings() = %+v, want %+v", s, want)
	}
}

func TestResolveSettingsPositionals(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		flags      []string
		wantModel  string
		wantScript script.Direction
		wantErr    bool
	}{
		{name: "model only", args: []string{"a.mp4", "small"}, wantModel: "small", wantScript: script.TraditionalToSimplified},
		{name: "normalize off", args: []string{"a.mp4", "large-v3", "false"}, wantModel: "large-v3", wantScript: script.None},
		{name: "normalize on", args: []string{"a.mp4", "tiny", "1"}, wantModel: "tiny", wantScript: script.TraditionalToSimplified},
		{name: "positional beats flag", args: []string{"a.mp4", "base"}, flags: []string{"--model", "small"}, wantModel: "base", wantScript: script.TraditionalToSimplified},
		{name: "positional normalize beats --script", args: []string{"a.mp4", "base", "false"}, flags: []string{"--script", "s2t"}, wantModel: "base", wantScript: script.None},
		{name: "flag beats config", args: []string{"a.mp4"}, flags: []string{"-m", "tiny", "--script", "s2t"}, wantModel: "tiny", wantScript: script.SimplifiedToTraditional},
		{name: "invalid normalize", args: []string{"a.mp4", "base", "maybe"}, wantErr: true},
		{name: "empty input", args: []string{""}, wantErr: true},
		{name: "unknown engine", args: []string{"a.mp4"}, flags: []string{"--engine", "vosk"}, wantErr: true},
		{name: "unknown progress", args: []string{"a.mp4"}, flags: []string{"--progress", "bar"}, wantErr: true},
		{name: "zero beam", args: []string{"a.mp4"}, flags: []string{"--beam-size", "0"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := resolveSettings(config.Default(), newTestCmd(t, tt.flags...), tt.args)
			if tt.wantErr {
				if !errors.Is(err, pipeline.ErrUsage) {
					t.Errorf("resolveSettings() error = %v, want ErrUsage", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveSettings() error = %v", err)
			}
			if s.Model != tt.wantModel {
				t.Errorf("Model = %q, want %q", s.Model, tt.wantModel)
			}
			if s.Script != tt.wantScript {
				t.Errorf("Script = %q, want %q", s.Script, tt.wantScript)
			}
		})
	}
}

func TestResolveSettingsConfigFile(t *testing.T) {
	c := config.Default()
	c.Engine = "gemini"
	c.Progress = "marker"
	noSuffix := false
	c.ModelSuffix = &noSuffix

	s, err := resolveSettings(c, newTestCmd(t, "--language", "yue"), []string{"a.mp4"})
	if err != nil {
		t.Fatalf("resolveSettings() error = %v", err)
	}
	if s.Engine != transcribe.ProviderGemini || s.Progress != progress.ModeMarker {
		t.Errorf("config values not applied: %+v", s)
	}
	if s.ModelSuffix {
		t.Error("model_suffix: false not applied")
	}
	if s.Language != "yue" {
		t.Errorf("Language = %q, want flag value", s.Language)
	}

	s, err = resolveSettings(config.Default(), newTestCmd(t, "--no-model-suffix"), []string{"a.mp4"})
	if err != nil {
		t.Fatal(err)
	}
	if s.ModelSuffix {
		t.Error("--no-model-suffix not applied")
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"watch": false, "translate": false, "extract": false, "probe": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}
