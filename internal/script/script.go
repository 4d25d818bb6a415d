// Package script normalizes Chinese subtitle text between Traditional and
// Simplified characters.
package script

import (
	"fmt"
	"strings"

	"github.com/longbridgeapp/opencc"

	"github.com/mgpai22/zimu/internal/subtitle"
)

// Direction selects the conversion applied to every segment of a run.
type Direction string

const (
	None                    Direction = "none"
	TraditionalToSimplified Direction = "t2s"
	SimplifiedToTraditional Direction = "s2t"
)

// parses a direction name; "" means none
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", None, "off":
		return None, nil
	case TraditionalToSimplified:
		return TraditionalToSimplified, nil
	case SimplifiedToTraditional:
		return SimplifiedToTraditional, nil
	default:
		return "", fmt.Errorf("unsupported script conversion %q: use t2s, s2t, or none", s)
	}
}

// FromFlag maps the boolean normalize switch onto a direction.
func FromFlag(enabled bool) Direction {
	if enabled {
		return TraditionalToSimplified
	}
	return None
}

// Converter converts text between scripts.
type Converter interface {
	Convert(text string) (string, error)
}

// New loads the conversion dictionaries for d. It returns a nil Converter for
// None. Loading happens once; the returned converter is reused per segment.
func New(d Direction) (Converter, error) {
	if d == None || d == "" {
		return nil, nil
	}
	cc, err := opencc.New(string(d))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s dictionaries: %w", d, err)
	}
	return cc, nil
}

// Normalizer trims text and runs it through conv when conv is non-nil.
func Normalizer(conv Converter) subtitle.Normalizer {
	return func(text string) (string, error) {
		text = strings.TrimSpace(text)
		if conv == nil || text == "" {
			return text, nil
		}
		return conv.Convert(text)
	}
}
