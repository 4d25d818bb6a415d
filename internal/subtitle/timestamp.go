package subtitle

import (
	"fmt"
	"math"
)

// largest offset whose microsecond count still fits in an int64
const maxSeconds = float64(math.MaxInt64/1_000_000) - 1

// FormatTimestamp renders a non-negative offset in seconds as an SRT timecode
// (HH:MM:SS,mmm). Hours are unbounded.
//
// The offset is quantized to whole microseconds first, then milliseconds are
// truncated. Quantizing absorbs float noise such as 1.2 being stored as
// 1.19999...; truncating on integers means the millisecond field can never
// reach 1000.
func FormatTimestamp(seconds float64) string {
	switch {
	case math.IsNaN(seconds) || seconds < 0:
		seconds = 0
	case seconds > maxSeconds:
		seconds = maxSeconds
	}
	micros := int64(math.Round(seconds * 1e6))
	totalMillis := micros / 1000

	millis := totalMillis % 1000
	totalSeconds := totalMillis / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ParseTimestamp is the inverse of FormatTimestamp for well-formed timecodes.
func ParseTimestamp(code string) (float64, error) {
	var h, m, s, ms int64
	if _, err := fmt.Sscanf(code, "%d:%d:%d,%d", &h, &m, &s, &ms); err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", code, err)
	}
	if m > 59 || s > 59 || ms > 999 || h < 0 || m < 0 || s < 0 || ms < 0 {
		return 0, fmt.Errorf("invalid timestamp %q: field out of range", code)
	}
	totalMillis := ((h*60+m)*60+s)*1000 + ms
	return float64(totalMillis) / 1000, nil
}
