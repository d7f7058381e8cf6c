package entity

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusExtracting JobStatus = "EXTRACTING"
	JobStatusAnnotating JobStatus = "ANNOTATING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// Job is one video-upload processing instance. The orchestrator owns it
// exclusively for the duration of processing. Telemetry travels with the
// dispatch task and is never persisted.
type Job struct {
	ID            uuid.UUID
	VideoName     string
	VideoPath     string
	Status        JobStatus
	FrameCount    int
	TaggedCount   int
	FallbackCount int
	VideoDuration float64
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time

	Telemetry []TelemetrySample
}

func NewJob(videoName, videoPath string, telemetry []TelemetrySample) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.New(),
		VideoName: SanitizeVideoName(videoName),
		VideoPath: videoPath,
		Status:    JobStatusPending,
		Telemetry: telemetry,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SanitizeVideoName strips any path component and collapses whitespace runs
// to underscores. The result is used as the frame filename prefix and as the
// subscriber channel, so it must be stable across jobs.
func SanitizeVideoName(name string) string {
	base := filepath.Base(name)
	return strings.Join(strings.Fields(base), "_")
}

func (j *Job) MarkExtracting() {
	j.Status = JobStatusExtracting
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) MarkAnnotating(frameCount int, duration float64) {
	j.Status = JobStatusAnnotating
	j.FrameCount = frameCount
	j.VideoDuration = duration
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) MarkCompleted(tagged, fallback int) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.TaggedCount = tagged
	j.FallbackCount = fallback
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *Job) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}
