package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/skywatch/drone-annotation-service/internal/domain/port"
)

type JobHandler struct {
	repo port.JobRepository
}

func NewJobHandler(repo port.JobRepository) *JobHandler {
	return &JobHandler{repo: repo}
}

type jobStatusResponse struct {
	JobID         string     `json:"jobId"`
	VideoName     string     `json:"videoName"`
	Status        string     `json:"status"`
	FrameCount    int        `json:"frameCount"`
	TaggedCount   int        `json:"taggedCount"`
	FallbackCount int        `json:"fallbackCount"`
	Duration      float64    `json:"durationSeconds"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// Status handles GET /jobs/:id.
func (h *JobHandler) Status(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid job id")
	}

	job, err := h.repo.FindByID(c.Context(), id)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "job not found")
	}

	return c.JSON(jobStatusResponse{
		JobID:         job.ID.String(),
		VideoName:     job.VideoName,
		Status:        string(job.Status),
		FrameCount:    job.FrameCount,
		TaggedCount:   job.TaggedCount,
		FallbackCount: job.FallbackCount,
		Duration:      job.VideoDuration,
		Error:         job.ErrorMessage,
		CreatedAt:     job.CreatedAt,
		CompletedAt:   job.CompletedAt,
	})
}
