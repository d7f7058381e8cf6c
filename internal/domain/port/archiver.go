package port

import "context"

type FrameArchiver interface {
	// ArchiveFrames stores a retention copy of a job's frames in object
	// storage. Best-effort: the serving copy stays on local disk.
	ArchiveFrames(ctx context.Context, videoName string, framePaths []string) error
}
