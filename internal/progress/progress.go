// Package progress reports how far a transcription run has advanced.
package progress

import (
	"fmt"
	"io"
	"math"
	"strconv"
)

// Mode selects how progress is rendered.
type Mode string

const (
	ModePercent Mode = "percent"
	ModeMarker  Mode = "marker"
	ModeNone    Mode = "none"
)

// Reporter receives the end offset of every written block.
type Reporter interface {
	Advance(endSeconds float64)
	// Finish terminates the progress line after a successful run.
	Finish()
}

// New picks a reporter for mode. Percent output needs a known, positive
// total duration; without one it degrades to a no-op.
func New(mode Mode, w io.Writer, totalMillis int64) Reporter {
	switch mode {
	case ModePercent:
		if totalMillis <= 0 {
			return Nop{}
		}
		return &PercentReporter{w: w, totalMillis: totalMillis, last: -1}
	case ModeMarker:
		return &MarkerReporter{w: w}
	default:
		return Nop{}
	}
}

// Percent computes floor(endMillis / totalMillis * 100), clamped to [0, 100].
// ok is false when the total is unknown.
func Percent(endMillis, totalMillis int64) (percent int, ok bool) {
	if totalMillis <= 0 {
		return 0, false
	}
	if endMillis <= 0 {
		return 0, true
	}
	if endMillis >= totalMillis {
		return 100, true
	}
	return int(endMillis * 100 / totalMillis), true
}

// Millis converts a seconds offset to whole milliseconds, truncating like
// the subtitle timecodes do. The offset is first quantized to microseconds so
// 1.2 stays 1200 rather than 1199, but 2.4996 never rounds up to 2500.
func Millis(seconds float64) int64 {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	if seconds > math.MaxInt64/1e6 {
		return math.MaxInt64 / 1000
	}
	return int64(math.Round(seconds*1e6)) / 1000
}

// PercentReporter rewrites a single "Generating N%" line in place.
type PercentReporter struct {
	w           io.Writer
	totalMillis int64
	last        int
}

func (r *PercentReporter) Advance(endSeconds float64) {
	percent, _ := Percent(Millis(endSeconds), r.totalMillis)
	r.last = percent
	fmt.Fprintf(r.w, "\rGenerating %d%%", percent)
}

// last reported value, -1 before the first block
func (r *PercentReporter) Last() int {
	return r.last
}

func (r *PercentReporter) Finish() {
	if r.last >= 0 {
		fmt.Fprintln(r.w)
	}
}

// MarkerReporter prints one "END:<seconds>" line per block.
type MarkerReporter struct {
	w io.Writer
}

func (r *MarkerReporter) Advance(endSeconds float64) {
	fmt.Fprintf(r.w, "END:%s\n", strconv.FormatFloat(endSeconds, 'f', -1, 64))
}

func (r *MarkerReporter) Finish() {}

// Nop discards progress.
type Nop struct{}

func (Nop) Advance(float64) {}
func (Nop) Finish()         {}

// parses a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModePercent:
		return ModePercent, nil
	case ModeMarker, ModeNone:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unsupported progress mode %q: use percent, marker, or none", s)
	}
}
