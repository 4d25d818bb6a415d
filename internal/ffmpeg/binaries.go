// Package ffmpeg locates the ffmpeg and ffprobe executables.
//
// Lookup never mutates PATH or other process state: callers resolve once and
// hand the resulting paths to the probe and the audio helpers.
package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	ffmpegName  = "ffmpeg"
	ffprobeName = "ffprobe"
)

// ErrNotFound is returned when no candidate location holds the binary.
var ErrNotFound = errors.New("executable not found")

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// Locator resolves binaries in a fixed order: explicit path, bundled
// directory (next to the running executable), local development directory,
// then the system PATH.
type Locator struct {
	FFmpegPath  string
	FFprobePath string
	BundleDir   string
	DevDir      string

	lookPath func(string) (string, error)
}

// builds a locator with the default bundle and development directories
func NewLocator(ffmpegPath, ffprobePath string) *Locator {
	bundle := ""
	if exe, err := os.Executable(); err == nil {
		bundle = filepath.Dir(exe)
	}
	return &Locator{
		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,
		BundleDir:   bundle,
		DevDir:      "bin",
	}
}

func (l *Locator) FFmpeg() (string, error) {
	return l.find(ffmpegName, l.FFmpegPath)
}

func (l *Locator) FFprobe() (string, error) {
	return l.find(ffprobeName, l.FFprobePath)
}

// resolves both binaries; either may be missing
func (l *Locator) Resolve() (BinaryPaths, error) {
	ffmpegPath, errMpeg := l.FFmpeg()
	ffprobePath, errProbe := l.FFprobe()
	return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, errors.Join(errMpeg, errProbe)
}

// Candidates lists the locations checked for name, in order. The final PATH
// lookup is not included.
func (l *Locator) Candidates(name, explicit string) []string {
	var out []string
	if explicit != "" {
		out = append(out, explicit)
	}
	file := name + executableSuffix()
	if l.BundleDir != "" {
		out = append(out, filepath.Join(l.BundleDir, file))
	}
	if l.DevDir != "" {
		out = append(out, filepath.Join(l.DevDir, file))
	}
	return out
}

func (l *Locator) find(name, explicit string) (string, error) {
	if explicit != "" && !fileExists(explicit) {
		return "", fmt.Errorf("%s: configured path %q: %w", name, explicit, ErrNotFound)
	}
	for _, candidate := range l.Candidates(name, explicit) {
		if fileExists(candidate) {
			return candidate, nil
		}
	}

	lookPath := l.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if found, err := lookPath(name); err == nil {
		return found, nil
	}
	return "", fmt.Errorf("%s: %w (install it or set ZIMU_%s_PATH)", name, ErrNotFound, strings.ToUpper(name))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
