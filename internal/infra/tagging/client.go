package tagging

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/skywatch/drone-annotation-service/internal/domain/entity"
	"go.uber.org/zap"
)

// Client talks to the remote image-tagging service. Every call carries a
// bounded timeout; a hung remote must not block the job beyond it.
type Client struct {
	httpClient *http.Client
	endpoint   string
	logger     *zap.Logger
}

func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		logger:     logger,
	}
}

func (c *Client) Tag(ctx context.Context, framePath string, sample entity.TelemetrySample) (entity.AnnotationResult, error) {
	image, err := os.ReadFile(framePath)
	if err != nil {
		return entity.AnnotationResult{}, fmt.Errorf("read frame %s: %w", framePath, err)
	}

	body, err := json.Marshal(entity.TagRequest{
		Image:     base64.StdEncoding.EncodeToString(image),
		DroneID:   sample.DroneID,
		GPS:       sample.GPS,
		Timestamp: sample.Timestamp,
	})
	if err != nil {
		return entity.AnnotationResult{}, fmt.Errorf("marshal tag request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return entity.AnnotationResult{}, fmt.Errorf("build tag request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.AnnotationResult{}, fmt.Errorf("tag request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return entity.AnnotationResult{}, fmt.Errorf("tag request: unexpected status %d", resp.StatusCode)
	}

	var tagResp entity.TagResponse
	if err := json.NewDecoder(resp.Body).Decode(&tagResp); err != nil {
		return entity.AnnotationResult{}, fmt.Errorf("decode tag response: %w", err)
	}

	c.logger.Debug("frame tagged",
		zap.String("frame", framePath),
		zap.Duration("latency", time.Since(start)),
	)

	return entity.NewAnnotationResult(tagResp, sample), nil
}
