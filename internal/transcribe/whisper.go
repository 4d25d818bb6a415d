package transcribe

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mgpai22/zimu/internal/subtitle"
)

//go:embed assets/faster_whisper_stream.py
var helperScript []byte

// model sizes shipped by faster-whisper; other names are passed through
var KnownModels = []string{"tiny", "base", "small", "medium", "large-v3"}

func IsKnownModel(name string) bool {
	for _, m := range KnownModels {
		if m == name {
			return true
		}
	}
	return false
}

// WhisperEngine runs faster-whisper in a python subprocess and reads its
// segments line by line, so the first block can be written while the model
// is still decoding the rest of the file.
type WhisperEngine struct {
	python      string
	device      string
	computeType string
	options     Options
}

func NewWhisperEngine(cfg WhisperConfig, opts Options) (*WhisperEngine, error) {
	python, err := ResolvePython(cfg.Python)
	if err != nil {
		return nil, err
	}

	if opts.Model == "" {
		opts.Model = "medium"
	}
	if opts.BeamSize <= 0 {
		opts.BeamSize = 5
	}
	device := cfg.Device
	if device == "" {
		device = "cpu"
	}
	computeType := cfg.ComputeType
	if computeType == "" {
		computeType = "int8"
	}

	return &WhisperEngine{
		python:      python,
		device:      device,
		computeType: computeType,
		options:     opts,
	}, nil
}

// ResolvePython picks the interpreter: the configured one, then the
// transcriber virtualenv in the home directory, then python3 on PATH.
func ResolvePython(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("python interpreter not found: %s", configured)
		}
		return configured, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		venv := filepath.Join(home, ".venv", "srt_transcriber_env", "bin", "python3")
		if _, err := os.Stat(venv); err == nil {
			return venv, nil
		}
	}

	found, err := exec.LookPath("python3")
	if err != nil {
		return "", fmt.Errorf("python3 not found: set whisper.python or ZIMU_PYTHON")
	}
	return found, nil
}

func (e *WhisperEngine) args(scriptPath, mediaPath string) []string {
	args := []string{
		"-u", scriptPath,
		"--audio", mediaPath,
		"--model", e.options.Model,
		"--beam-size", strconv.Itoa(e.options.BeamSize),
		"--device", e.device,
		"--compute-type", e.computeType,
	}
	if e.options.Language != "" {
		args = append(args, "--language", e.options.Language)
	}
	if e.options.Prompt != "" {
		args = append(args, "--prompt", e.options.Prompt)
	}
	return args
}

// starts the helper; segments are produced as the returned stream is read
func (e *WhisperEngine) Transcribe(ctx context.Context, mediaPath string) (Stream, error) {
	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("media file not found: %s", mediaPath)
	}

	script, err := os.CreateTemp("", "zimu-whisper-*.py")
	if err != nil {
		return nil, fmt.Errorf("write helper script: %w", err)
	}
	scriptPath := script.Name()
	if _, err := script.Write(helperScript); err != nil {
		_ = script.Close()
		_ = os.Remove(scriptPath)
		return nil, fmt.Errorf("write helper script: %w", err)
	}
	if err := script.Close(); err != nil {
		_ = os.Remove(scriptPath)
		return nil, fmt.Errorf("write helper script: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.python, e.args(scriptPath, mediaPath)...)
	stream, err := startLineStream(cmd, "faster-whisper", func() { _ = os.Remove(scriptPath) })
	if err != nil {
		_ = os.Remove(scriptPath)
		return nil, err
	}
	return stream, nil
}

// bounds how long Wait keeps draining stderr after the helper is gone, since
// grandchildren may still hold the pipe open
const helperWaitDelay = 2 * time.Second

// startLineStream starts cmd and streams JSON segments from its stdout. The
// last few KiB of stderr are attached to a failed exit. cleanup runs once the
// process has been reaped.
func startLineStream(cmd *exec.Cmd, name string, cleanup func()) (*lineStream, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("attach %s output: %w", name, err)
	}
	stderr := newTailBuffer(4096)
	cmd.Stderr = stderr
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = helperWaitDelay
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	return newLineStream(stdout, func() error {
		if cleanup != nil {
			defer cleanup()
		}
		if err := cmd.Wait(); err != nil {
			if msg := stderr.String(); msg != "" {
				return fmt.Errorf("%s failed: %w: %s", name, err, msg)
			}
			return fmt.Errorf("%s failed: %w", name, err)
		}
		return nil
	}, func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}), nil
}

// one segment as printed by the helper
type helperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// lineStream decodes newline-delimited JSON segments from a reader and
// reports the producer's exit status once the reader is drained.
type lineStream struct {
	scanner *bufio.Scanner
	wait    func() error
	kill    func()

	once    sync.Once
	waitErr error
	done    bool
	line    int
}

func newLineStream(r io.Reader, wait func() error, kill func()) *lineStream {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &lineStream{scanner: scanner, wait: wait, kill: kill}
}

func (s *lineStream) finish() error {
	s.once.Do(func() {
		s.done = true
		if s.wait != nil {
			s.waitErr = s.wait()
		}
	})
	return s.waitErr
}

func (s *lineStream) Next() (subtitle.Segment, error) {
	if s.done {
		if s.waitErr != nil {
			return subtitle.Segment{}, s.waitErr
		}
		return subtitle.Segment{}, io.EOF
	}

	for s.scanner.Scan() {
		s.line++
		raw := strings.TrimSpace(s.scanner.Text())
		if raw == "" || !strings.HasPrefix(raw, "{") {
			continue
		}

		var seg helperSegment
		if err := json.Unmarshal([]byte(raw), &seg); err != nil {
			return subtitle.Segment{}, fmt.Errorf("helper output line %d: %w", s.line, err)
		}
		return subtitle.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}, nil
	}

	if scanErr := s.scanner.Err(); scanErr != nil {
		// nothing reads the pipe any more; stop the producer before reaping it
		_ = s.stop()
		s.waitErr = fmt.Errorf("read helper output: %w", scanErr)
		return subtitle.Segment{}, s.waitErr
	}
	if err := s.finish(); err != nil {
		return subtitle.Segment{}, err
	}
	return subtitle.Segment{}, io.EOF
}

// stop kills the producer and reaps it, discarding the exit status the kill
// caused.
func (s *lineStream) stop() error {
	if s.kill != nil {
		s.kill()
	}
	err := s.finish()
	if killedBySignal(err) {
		return nil
	}
	return err
}

// killedBySignal reports whether err is the exit of a process terminated by
// a signal rather than one that exited with a status of its own.
func killedBySignal(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == -1
}

// Close stops the helper if it is still running. A helper that had already
// failed on its own still reports its exit status.
func (s *lineStream) Close() error {
	if s.done {
		return nil
	}
	return s.stop()
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}
