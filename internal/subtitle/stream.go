package subtitle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// NormalizeError reports a normalizer failure for a given block.
type NormalizeError struct {
	Index int
	Err   error
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("normalize block %d: %v", e.Index, e.Err)
}

func (e *NormalizeError) Unwrap() error { return e.Err }

// StreamWriter writes SRT blocks to a sink as segments arrive. Indices start
// at 1 and advance by one per written segment; nothing is buffered beyond the
// current block and the underlying bufio.Writer.
type StreamWriter struct {
	w         *bufio.Writer
	normalize Normalizer
	written   int
}

// NewStreamWriter wraps w. A nil normalizer only trims whitespace.
func NewStreamWriter(w io.Writer, normalize Normalizer) *StreamWriter {
	return &StreamWriter{
		w:         bufio.NewWriter(w),
		normalize: normalize,
	}
}

// Write formats seg as the next block and writes it.
func (sw *StreamWriter) Write(seg Segment) (Block, error) {
	index := sw.written + 1

	text := strings.TrimSpace(seg.Text)
	if sw.normalize != nil {
		converted, err := sw.normalize(text)
		if err != nil {
			return Block{}, &NormalizeError{Index: index, Err: err}
		}
		text = converted
	}

	block := Block{
		Index:     index,
		StartCode: FormatTimestamp(seg.Start),
		EndCode:   FormatTimestamp(seg.End),
		Text:      text,
	}
	if _, err := fmt.Fprintf(sw.w, "%d\n%s --> %s\n%s\n\n",
		block.Index, block.StartCode, block.EndCode, block.Text); err != nil {
		return Block{}, fmt.Errorf("write block %d: %w", index, err)
	}

	// push each block through so a crash leaves every finished block on disk
	if err := sw.w.Flush(); err != nil {
		return Block{}, fmt.Errorf("write block %d: %w", index, err)
	}

	sw.written = index
	return block, nil
}

// number of blocks written so far
func (sw *StreamWriter) Count() int {
	return sw.written
}

// Flush writes any buffered data to the sink.
func (sw *StreamWriter) Flush() error {
	return sw.w.Flush()
}

// WriteAll drains src into sw. observe, when set, runs after each block.
// It stops at the first error; blocks already written stay in the sink.
func (sw *StreamWriter) WriteAll(src Source, observe func(Segment, Block)) (int, error) {
	for {
		seg, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sw.written, &SourceError{Index: sw.written + 1, Err: err}
		}

		block, err := sw.Write(seg)
		if err != nil {
			return sw.written, err
		}
		if observe != nil {
			observe(seg, block)
		}
	}
	return sw.written, sw.Flush()
}

// SourceError reports a failure to produce the next segment.
type SourceError struct {
	Index int
	Err   error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("read segment %d: %v", e.Index, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// SliceSource serves segments from memory.
type SliceSource struct {
	segments []Segment
	pos      int
}

func NewSliceSource(segments []Segment) *SliceSource {
	return &SliceSource{segments: segments}
}

func (s *SliceSource) Next() (Segment, error) {
	if s.pos >= len(s.segments) {
		return Segment{}, io.EOF
	}
	seg := s.segments[s.pos]
	s.pos++
	return seg, nil
}

// WriteSRT writes segments to w as a complete SRT document.
func WriteSRT(w io.Writer, segments []Segment, normalize Normalizer) error {
	_, err := NewStreamWriter(w, normalize).WriteAll(NewSliceSource(segments), nil)
	return err
}
