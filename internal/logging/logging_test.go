package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLoggerWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := New(zapcore.AddSync(&buf), zapcore.InfoLevel, false)

	logger.Infow("Writing subtitles", "output", "clip_medium.srt")
	logger.Debugw("hidden at info level")
	_ = logger.Sync()

	out := buf.String()
	if !strings.Contains(out, "Writing subtitles") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "clip_medium.srt") {
		t.Errorf("expected field value in output, got %q", out)
	}
	if strings.Contains(out, "hidden at info level") {
		t.Errorf("debug line should be filtered at info level: %q", out)
	}
}

func TestWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(zapcore.AddSync(&buf), zapcore.DebugLevel, false).With("input", "a.mp4")

	logger.Warnw("Duration probe failed")
	_ = logger.Sync()

	if !strings.Contains(buf.String(), "a.mp4") {
		t.Errorf("expected inherited field, got %q", buf.String())
	}
}
