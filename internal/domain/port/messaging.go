package port

import "context"

// StatusPublisher pushes job lifecycle messages onto the durable status bus,
// independent of the live subscriber fan-out.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg []byte) error
}
