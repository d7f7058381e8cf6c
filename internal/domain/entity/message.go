package entity

import "github.com/google/uuid"

// AnnotationTask is the dispatch payload handed to the annotation worker when
// an upload is accepted. It carries the telemetry array so the pipeline does
// not need to persist it.
type AnnotationTask struct {
	JobID     uuid.UUID         `json:"job_id"`
	VideoName string            `json:"video_name"`
	VideoPath string            `json:"video_path"`
	Telemetry []TelemetrySample `json:"telemetry,omitempty"`
}

// JobStatusMessage is published to the status exchange on every job lifecycle
// transition, including the terminal failure that is otherwise only observable
// as silence on the frame stream.
type JobStatusMessage struct {
	JobID         uuid.UUID `json:"job_id"`
	VideoName     string    `json:"video_name"`
	Status        JobStatus `json:"status"`
	FrameCount    int       `json:"frame_count,omitempty"`
	TaggedCount   int       `json:"tagged_count,omitempty"`
	FallbackCount int       `json:"fallback_count,omitempty"`
	Duration      float64   `json:"duration_seconds,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
}
