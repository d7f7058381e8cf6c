package port

import "github.com/skywatch/drone-annotation-service/internal/domain/entity"

// AnnotationPublisher is the live fan-out boundary. Delivery is best-effort:
// no buffering, no acknowledgment, late subscribers miss earlier events.
type AnnotationPublisher interface {
	PublishFrame(channel string, result entity.AnnotationResult)
	PublishJobStatus(channel string, status entity.JobStatus, message string)
}
