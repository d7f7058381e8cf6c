package port

import "context"

type FailureNotifier interface {
	NotifyFailure(ctx context.Context, to string, jobID string, videoName string, errorMsg string) error
}
