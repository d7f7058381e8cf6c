package port

import (
	"context"

	"github.com/skywatch/drone-annotation-service/internal/domain/entity"
)

type FrameTagger interface {
	// Tag submits one frame image with its aligned telemetry to the tagging
	// service and returns the normalized annotation. The call carries a
	// bounded timeout; any failure is scoped to this frame only.
	Tag(ctx context.Context, framePath string, sample entity.TelemetrySample) (entity.AnnotationResult, error)
}
