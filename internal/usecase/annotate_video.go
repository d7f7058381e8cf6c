package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/skywatch/drone-annotation-service/internal/domain/entity"
	"github.com/skywatch/drone-annotation-service/internal/domain/port"
	"github.com/skywatch/drone-annotation-service/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AnnotateVideoUseCase drives one job end to end: extract frames, align
// telemetry, tag each frame and emit every result to subscribers in frame
// order. A failed tagging call degrades exactly one frame; a decode failure
// ends the job before any frame is processed. Either way the transient upload
// is released.
type AnnotateVideoUseCase struct {
	repo      port.JobRepository
	extractor port.FrameExtractor
	tagger    port.FrameTagger
	publisher port.AnnotationPublisher
	status    port.StatusPublisher
	archiver  port.FrameArchiver
	notifier  port.FailureNotifier
	logger    *zap.Logger
	cfg       AnnotateVideoConfig
}

type AnnotateVideoConfig struct {
	FrameDir     string
	StaticPrefix string
	Workers      int
	NotifyTo     string
}

func NewAnnotateVideoUseCase(
	repo port.JobRepository,
	extractor port.FrameExtractor,
	tagger port.FrameTagger,
	publisher port.AnnotationPublisher,
	status port.StatusPublisher,
	archiver port.FrameArchiver,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg AnnotateVideoConfig,
) *AnnotateVideoUseCase {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.StaticPrefix == "" {
		cfg.StaticPrefix = "/static/frames"
	}
	return &AnnotateVideoUseCase{
		repo:      repo,
		extractor: extractor,
		tagger:    tagger,
		publisher: publisher,
		status:    status,
		archiver:  archiver,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
	}
}

func (uc *AnnotateVideoUseCase) Execute(ctx context.Context, job *entity.Job) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "AnnotateVideoUseCase.Execute")
	defer span.End()

	span.SetAttributes(
		attribute.String("job.id", job.ID.String()),
		attribute.String("job.video_name", job.VideoName),
	)

	log := uc.logger.With(zap.String("job_id", job.ID.String()), zap.String("video_name", job.VideoName))

	metrics.ActiveJobs.Inc()
	defer metrics.ActiveJobs.Dec()

	totalTimer := time.Now()

	job.MarkExtracting()
	uc.persistAndPublish(ctx, job, log)

	exStart := time.Now()
	ctx2, spanEx := tracer.Start(ctx, "extract_frames")
	result, err := uc.extractor.ExtractFrames(ctx2, job.VideoPath, job.VideoName, uc.cfg.FrameDir)
	spanEx.End()
	if err != nil {
		log.Error("frame extraction failed", zap.Error(err))
		return uc.failJob(ctx, job, "extract_frames: "+err.Error(), log)
	}
	metrics.JobStageDuration.WithLabelValues("extract").Observe(time.Since(exStart).Seconds())
	metrics.FramesExtractedTotal.Add(float64(result.FrameCount))

	job.MarkAnnotating(result.FrameCount, result.VideoDuration)
	uc.persistAndPublish(ctx, job, log)

	anStart := time.Now()
	ctx3, spanAn := tracer.Start(ctx, "annotate_frames")
	tagged, fallback := uc.annotateFrames(ctx3, job, result.FramePaths, log)
	spanAn.End()
	metrics.JobStageDuration.WithLabelValues("annotate").Observe(time.Since(anStart).Seconds())

	uc.removeUpload(job, log)

	if err := uc.archiver.ArchiveFrames(ctx, job.VideoName, result.FramePaths); err != nil {
		log.Warn("frame archiving failed", zap.Error(err))
	}

	job.MarkCompleted(tagged, fallback)
	uc.persistAndPublish(ctx, job, log)

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.JobStageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	log.Info("job completed",
		zap.Int("frame_count", result.FrameCount),
		zap.Int("tagged", tagged),
		zap.Int("fallback", fallback),
		zap.Float64("duration_secs", result.VideoDuration),
	)

	return nil
}

// annotateFrames runs the per-frame loop with a bounded worker pool. Emission
// is gated per index: a result is handed to the publisher only after every
// lower-indexed frame has been emitted, so subscribers always see exactly N
// events in ascending frame order, whatever order the remote calls finish in.
func (uc *AnnotateVideoUseCase) annotateFrames(ctx context.Context, job *entity.Job, framePaths []string, log *zap.Logger) (tagged, fallback int) {
	n := len(framePaths)
	results := make([]entity.AnnotationResult, n)
	fellBack := make([]bool, n)
	done := make([]chan struct{}, n)
	for i := range done {
		done[i] = make(chan struct{})
	}

	sem := make(chan struct{}, uc.cfg.Workers)
	for i := range framePaths {
		go func(i int) {
			sem <- struct{}{}
			defer func() {
				<-sem
				close(done[i])
			}()

			sample := entity.Align(i, job.Telemetry)
			result, err := uc.tagger.Tag(ctx, framePaths[i], sample)
			if err != nil {
				log.Warn("frame tagging failed",
					zap.Int("frame_index", i),
					zap.Error(err),
				)
				result = entity.NewTaggingFallback(sample)
				fellBack[i] = true
			}
			result.ImageURL = path.Join(uc.cfg.StaticPrefix, filepath.Base(framePaths[i]))
			results[i] = result
		}(i)
	}

	for i := 0; i < n; i++ {
		<-done[i]
		if fellBack[i] {
			fallback++
			metrics.FramesAnnotatedTotal.WithLabelValues("fallback").Inc()
		} else {
			tagged++
			metrics.FramesAnnotatedTotal.WithLabelValues("tagged").Inc()
		}
		uc.publisher.PublishFrame(job.VideoName, results[i])
	}
	return tagged, fallback
}

func (uc *AnnotateVideoUseCase) failJob(ctx context.Context, job *entity.Job, errMsg string, log *zap.Logger) error {
	job.MarkFailed(errMsg)
	uc.persistAndPublish(ctx, job, log)

	uc.removeUpload(job, log)

	metrics.JobsProcessedTotal.WithLabelValues("failed").Inc()

	if uc.cfg.NotifyTo != "" {
		_ = uc.notifier.NotifyFailure(ctx, uc.cfg.NotifyTo, job.ID.String(), job.VideoName, errMsg)
	}

	return fmt.Errorf("job %s failed: %s", job.ID, errMsg)
}

// removeUpload releases the transient video file. The file being gone already
// is fine: cleanup is idempotent and never fails the job.
func (uc *AnnotateVideoUseCase) removeUpload(job *entity.Job, log *zap.Logger) {
	if err := os.Remove(job.VideoPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("failed to remove uploaded video", zap.String("path", job.VideoPath), zap.Error(err))
	}
}

// persistAndPublish records the job transition and fans it out on both the
// status exchange and the live subscriber channel. Both are observational:
// errors are logged, never propagated into the pipeline.
func (uc *AnnotateVideoUseCase) persistAndPublish(ctx context.Context, job *entity.Job, log *zap.Logger) {
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job record", zap.String("status", string(job.Status)), zap.Error(err))
	}

	statusMsg := entity.JobStatusMessage{
		JobID:         job.ID,
		VideoName:     job.VideoName,
		Status:        job.Status,
		FrameCount:    job.FrameCount,
		TaggedCount:   job.TaggedCount,
		FallbackCount: job.FallbackCount,
		Duration:      job.VideoDuration,
		ErrorMessage:  job.ErrorMessage,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.status.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}

	uc.publisher.PublishJobStatus(job.VideoName, job.Status, job.ErrorMessage)
}
