package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/skywatch/drone-annotation-service/internal/domain/entity"
	"github.com/skywatch/drone-annotation-service/internal/domain/port"
	"github.com/skywatch/drone-annotation-service/internal/usecase"
	"go.uber.org/zap"
)

// AnnotationWorker consumes dispatched annotation tasks and hands the job to
// the pipeline.
type AnnotationWorker struct {
	uc     *usecase.AnnotateVideoUseCase
	repo   port.JobRepository
	logger *zap.Logger
}

func NewAnnotationWorker(uc *usecase.AnnotateVideoUseCase, repo port.JobRepository, logger *zap.Logger) *AnnotationWorker {
	return &AnnotationWorker{uc: uc, repo: repo, logger: logger}
}

func (w *AnnotationWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var task entity.AnnotationTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("failed to unmarshal annotation task", zap.Error(err), zap.ByteString("payload", t.Payload()))
		return fmt.Errorf("unmarshal annotation task: %w", err)
	}

	job, err := w.repo.FindByID(ctx, task.JobID)
	if err != nil {
		// The task payload carries everything the pipeline needs. A dead
		// database must not drop the job, so rebuild the record and proceed;
		// persistence stays best-effort downstream.
		w.logger.Warn("job record lookup failed, rebuilding from task payload",
			zap.String("job_id", task.JobID.String()),
			zap.Error(err),
		)
		now := time.Now().UTC()
		job = &entity.Job{
			ID:        task.JobID,
			VideoName: task.VideoName,
			VideoPath: task.VideoPath,
			Status:    entity.JobStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	// Telemetry rides in the task payload, not the job record.
	job.Telemetry = task.Telemetry

	return w.uc.Execute(ctx, job)
}
