package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/skywatch/drone-annotation-service/internal/domain/entity"
	"github.com/skywatch/drone-annotation-service/internal/domain/port"
	"github.com/skywatch/drone-annotation-service/internal/infra/metrics"
	"go.uber.org/zap"
)

const TaskTypeAnnotate = "annotation:process"

// TaskEnqueuer is the slice of the asynq client the service needs.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// JobService accepts an upload, records the job and dispatches the annotation
// task. The caller gets the acknowledgment before any extraction work starts.
type JobService struct {
	repo   port.JobRepository
	queue  TaskEnqueuer
	logger *zap.Logger
}

func NewJobService(repo port.JobRepository, queue TaskEnqueuer, logger *zap.Logger) *JobService {
	return &JobService{repo: repo, queue: queue, logger: logger}
}

// JobAcceptance is the immediate response to an accepted upload. It never
// reflects downstream failures; those are only visible on the event stream.
type JobAcceptance struct {
	Status       string `json:"status"`
	OriginalName string `json:"originalName"`
	JobID        string `json:"jobId"`
}

func (s *JobService) StartJob(ctx context.Context, videoPath, originalName string, telemetryJSON []byte) (*JobAcceptance, error) {
	telemetry, err := entity.ParseTelemetry(telemetryJSON)
	if err != nil {
		// Malformed telemetry degrades to an empty array: every frame will
		// use the synthesized fallback sample.
		s.logger.Warn("invalid telemetry JSON received, proceeding without telemetry", zap.Error(err))
	}

	job := entity.NewJob(originalName, videoPath, telemetry)

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	payload, err := json.Marshal(entity.AnnotationTask{
		JobID:     job.ID,
		VideoName: job.VideoName,
		VideoPath: job.VideoPath,
		Telemetry: job.Telemetry,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal annotation task: %w", err)
	}

	// MaxRetry 0: replaying a partially processed job would re-emit frame
	// events and break the one-event-per-frame guarantee.
	_, err = s.queue.Enqueue(asynq.NewTask(TaskTypeAnnotate, payload),
		asynq.Queue("annotation"),
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue annotation task: %w", err)
	}

	metrics.UploadsAcceptedTotal.Inc()

	s.logger.Info("annotation job accepted",
		zap.String("job_id", job.ID.String()),
		zap.String("video_name", job.VideoName),
		zap.Int("telemetry_samples", len(telemetry)),
	)

	return &JobAcceptance{
		Status:       "Processing Started",
		OriginalName: job.VideoName,
		JobID:        job.ID.String(),
	}, nil
}
