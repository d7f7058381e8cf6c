package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/skywatch/drone-annotation-service/internal/domain/port"
	"go.uber.org/zap"
)

type Extractor struct {
	fps     int
	format  string
	quality int
	logger  *zap.Logger
}

func NewExtractor(fps int, format string, quality int, logger *zap.Logger) *Extractor {
	return &Extractor{fps: fps, format: format, quality: quality, logger: logger}
}

// ExtractFrames samples videoPath at the configured rate and writes stills
// named <namePrefix>-NNN.<format> under outputDir. The numeric suffix is
// zero-padded to three digits so a lexicographic sort of the filenames is the
// temporal order.
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath, namePrefix, outputDir string) (*port.FrameExtractionResult, error) {
	duration, err := e.probeDuration(ctx, videoPath)
	if err != nil {
		e.logger.Warn("could not get video duration", zap.Error(err))
	}

	framePattern := filepath.Join(outputDir, fmt.Sprintf("%s-%%03d.%s", namePrefix, e.format))
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%d", e.fps),
		"-q:v", strconv.Itoa(e.quality),
		"-y",
		framePattern,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg: %v, output: %s", port.ErrDecode, err, string(output))
	}

	frames, err := ListFrames(outputDir, namePrefix, e.format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrDecode, err)
	}

	e.logger.Info("frames extracted",
		zap.String("prefix", namePrefix),
		zap.Int("count", len(frames)),
		zap.Float64("video_duration", duration),
	)

	return &port.FrameExtractionResult{
		FramePaths:    frames,
		FrameCount:    len(frames),
		VideoDuration: duration,
	}, nil
}

// ListFrames returns this prefix's frame files in index order. The glob is
// anchored on the three-digit suffix so a prefix that extends another prefix
// cannot pollute its listing. An empty result is valid: a zero-length video
// yields zero frames, not an error.
func ListFrames(dir, namePrefix, format string) ([]string, error) {
	pattern := filepath.Join(dir, fmt.Sprintf("%s-[0-9][0-9][0-9].%s", namePrefix, format))
	frames, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob frames: %w", err)
	}
	sort.Strings(frames)
	return frames, nil
}

func (e *Extractor) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}
