package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// minFrameBytes rejects the zero-byte (or near-empty) files ffmpeg can leave
// behind when a seek lands outside the decodable range.
const minFrameBytes = 1024

// scaleFilter downscales frames at extraction time so payloads start small.
const scaleFilter = "scale=960:-1"

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// Doctor checks that both binaries can be invoked at all.
func (a *Adapter) Doctor(ctx context.Context) error {
	for _, bin := range []string{a.ffmpeg, a.ffprobe} {
		cmd := exec.CommandContext(ctx, bin, "-version")
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%s not available: %w", bin, err)
		}
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, mediaPath string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		mediaPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// ExtractFrame decodes a single frame at the given timestamp into JPEG bytes.
func (a *Adapter) ExtractFrame(ctx context.Context, mediaPath string, at time.Duration) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "metafootage-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outFile := filepath.Join(tmpDir, "frame.jpg")
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-ss", fmtSeconds(at),
		"-i", mediaPath,
		"-frames:v", "1",
		"-vf", scaleFilter,
		"-q:v", "2",
		"-y", outFile,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg extract frame at %s: %w\n%s", at, err, string(b))
	}

	jpg, err := os.ReadFile(outFile)
	if err != nil {
		return nil, fmt.Errorf("read extracted frame: %w", err)
	}
	if len(jpg) < minFrameBytes {
		return nil, fmt.Errorf("frame at %s is %d bytes, likely a failed decode", at, len(jpg))
	}
	return jpg, nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
