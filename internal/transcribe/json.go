package transcribe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mgpai22/zimu/internal/subtitle"
)

// segment as returned by LLM engines
type transcriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// extractTranscriptSegments finds the first JSON value in text that holds a
// usable segment array: a bare array, or an object wrapping one.
func extractTranscriptSegments(text string) ([]subtitle.Segment, error) {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err != nil {
			continue
		}
		if segs, ok := segmentsFromRaw(raw); ok {
			out := make([]subtitle.Segment, len(segs))
			for j, s := range segs {
				out[j] = subtitle.Segment{Start: s.Start, End: s.End, Text: s.Text}
			}
			return out, nil
		}
		// skip past the value we just decoded
		i += len(raw) - 1
	}
	return nil, fmt.Errorf("no transcript JSON found in response")
}

var wrapperKeys = []string{"segments", "transcript", "transcription", "data", "results"}

func segmentsFromRaw(raw json.RawMessage) ([]transcriptSegment, bool) {
	var segs []transcriptSegment
	if err := json.Unmarshal(raw, &segs); err == nil {
		return segs, usableSegments(segs)
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}
	for _, key := range wrapperKeys {
		if field, ok := wrapper[key]; ok {
			if segs, ok := segmentsFromRaw(field); ok {
				return segs, true
			}
		}
	}
	for _, field := range wrapper {
		if segs, ok := segmentsFromRaw(field); ok {
			return segs, true
		}
	}
	return nil, false
}

// an array counts when at least one entry carries text or a real time span
func usableSegments(segs []transcriptSegment) bool {
	for _, s := range segs {
		if s.Text != "" || s.End > 0 {
			return true
		}
	}
	return false
}
