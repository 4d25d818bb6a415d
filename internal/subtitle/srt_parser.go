package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var timecodeLine = regexp.MustCompile(
	`^\s*(\d{2,}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{2,}:\d{2}:\d{2},\d{3})`,
)

// reads an SRT file from disk
func ParseSRTFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SRT file: %w", err)
	}
	defer file.Close()

	return ParseSRT(file)
}

// ParseSRT reads SRT cues. Multi-line cue text is joined with "\n"; cues
// without text are dropped.
func ParseSRT(r io.Reader) ([]Entry, error) {
	var (
		entries []Entry
		current *Entry
		timed   bool
		lines   []string
		lineNum int
	)

	flush := func() {
		if current != nil && len(lines) > 0 {
			current.Text = strings.Join(lines, "\n")
			entries = append(entries, *current)
		}
		current = nil
		timed = false
		lines = nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lineNum++
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if current == nil {
			index, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil {
				return nil, fmt.Errorf("line %d: expected cue index, got %q", lineNum, line)
			}
			current = &Entry{Index: index}
			continue
		}

		if !timed {
			if m := timecodeLine.FindStringSubmatch(line); m != nil {
				start, err := ParseTimestamp(m[1])
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				end, err := ParseTimestamp(m[2])
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				current.Start, current.End = start, end
				timed = true
				continue
			}
			return nil, fmt.Errorf("line %d: expected timecode, got %q", lineNum, line)
		}

		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading SRT: %w", err)
	}
	flush()

	return entries, nil
}

// converts parsed entries back into segments for re-writing
func EntriesToSegments(entries []Entry) []Segment {
	segments := make([]Segment, len(entries))
	for i, e := range entries {
		segments[i] = Segment{Start: e.Start, End: e.End, Text: e.Text}
	}
	return segments
}
