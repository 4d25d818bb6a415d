package progress

import (
	"bytes"
	"testing"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		end, total  int64
		wantPercent int
		wantOK      bool
	}{
		{"quarter", 2500, 10000, 25, true},
		{"floors", 2599, 10000, 25, true},
		{"start", 0, 10000, 0, true},
		{"complete", 10000, 10000, 100, true},
		{"clamped past the end", 12000, 10000, 100, true},
		{"unknown total", 2500, 0, 0, false},
		{"negative total", 2500, -1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Percent(tt.end, tt.total)
			if got != tt.wantPercent || ok != tt.wantOK {
				t.Errorf("Percent(%d, %d) = %d, %v; want %d, %v",
					tt.end, tt.total, got, ok, tt.wantPercent, tt.wantOK)
			}
		})
	}
}

func TestMillis(t *testing.T) {
	tests := []struct {
		seconds float64
		want    int64
	}{
		{0, 0},
		{-1, 0},
		{1.2, 1200},
		{2.5, 2500},
		{2.4996, 2499},
		{59.9995, 59999},
	}

	for _, tt := range tests {
		if got := Millis(tt.seconds); got != tt.want {
			t.Errorf("Millis(%v) = %d, want %d", tt.seconds, got, tt.want)
		}
	}
}

func TestPercentReporterNeverRunsAhead(t *testing.T) {
	var buf bytes.Buffer
	r := New(ModePercent, &buf, 10000)

	r.Advance(2.4996)

	if buf.String() != "\rGenerating 24%" {
		t.Errorf("got %q, want 24%%", buf.String())
	}
}

func TestPercentReporterOverwritesInPlace(t *testing.T) {
	var buf bytes.Buffer
	r := New(ModePercent, &buf, 10000)

	r.Advance(2.5)
	r.Advance(5.0)
	r.Finish()

	want := "\rGenerating 25%\rGenerating 50%\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
	if last := r.(*PercentReporter).Last(); last != 50 {
		t.Errorf("Last() = %d, want 50", last)
	}
}

func TestPercentReporterWithoutDurationIsSilent(t *testing.T) {
	var buf bytes.Buffer
	r := New(ModePercent, &buf, 0)

	r.Advance(2.5)
	r.Finish()

	if buf.Len() != 0 {
		t.Errorf("expected no progress output, got %q", buf.String())
	}
	if _, ok := r.(Nop); !ok {
		t.Errorf("expected Nop reporter, got %T", r)
	}
}

func TestMarkerReporter(t *testing.T) {
	var buf bytes.Buffer
	r := New(ModeMarker, &buf, 0)

	r.Advance(1.2)
	r.Advance(3)
	r.Finish()

	if buf.String() != "END:1.2\nEND:3\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModePercent, "percent": ModePercent, "marker": ModeMarker, "none": ModeNone} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("bar"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
