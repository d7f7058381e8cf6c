package handler

import (
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/skywatch/drone-annotation-service/internal/service"
	"go.uber.org/zap"
)

type UploadHandler struct {
	jobs      *service.JobService
	uploadDir string
	maxSize   int64
	logger    *zap.Logger
}

func NewUploadHandler(jobs *service.JobService, uploadDir string, maxSizeMB int, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		jobs:      jobs,
		uploadDir: uploadDir,
		maxSize:   int64(maxSizeMB) * 1024 * 1024,
		logger:    logger,
	}
}

// Upload handles POST /upload. The response is sent as soon as the job is
// accepted; extraction and annotation continue in the background and are
// observable only on the event stream.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("video")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "video file is required")
	}

	if file.Size > h.maxSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "video exceeds upload size limit")
	}

	// The transient upload gets a random name; the original name survives as
	// the sanitized frame prefix.
	dst := filepath.Join(h.uploadDir, uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveFile(file, dst); err != nil {
		h.logger.Error("failed to store uploaded video", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to store upload")
	}

	ack, err := h.jobs.StartJob(c.Context(), dst, file.Filename, []byte(c.FormValue("telemetry")))
	if err != nil {
		h.logger.Error("failed to start annotation job", zap.Error(err))
		os.Remove(dst)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to start processing")
	}

	return c.Status(fiber.StatusAccepted).JSON(ack)
}
