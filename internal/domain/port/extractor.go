package port

import (
	"context"
	"errors"
)

// ErrDecode marks a terminal decode failure: the whole job fails and no
// partial frame list is produced.
var ErrDecode = errors.New("video decode failed")

type FrameExtractionResult struct {
	// FramePaths is sorted in frame-index order. Filenames carry a
	// zero-padded numeric suffix so lexicographic order is temporal order.
	FramePaths    []string
	FrameCount    int
	VideoDuration float64
}

type FrameExtractor interface {
	// ExtractFrames samples the video at a fixed rate and writes one still
	// image per sample under outputDir, named <namePrefix>-NNN.<format>.
	// Zero produced frames is not an error.
	ExtractFrames(ctx context.Context, videoPath, namePrefix, outputDir string) (*FrameExtractionResult, error)
}
