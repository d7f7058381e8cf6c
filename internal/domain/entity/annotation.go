package entity

import (
	"encoding/json"
	"strings"
)

const (
	// TagScanning is emitted when the tagging service answered but produced
	// no simple tags for the frame.
	TagScanning = "scanning"
	// TagError is emitted in place of a real tag when the tagging call for a
	// frame failed. It degrades exactly that frame, never the job.
	TagError = "AI Error"
)

// AnnotationResult is the per-frame record broadcast to subscribers. For a job
// with N extracted frames exactly N results are emitted, in frame-index order.
type AnnotationResult struct {
	Tag         string          `json:"tag"`
	ContextTags json.RawMessage `json:"contextTags,omitempty"`
	Caption     string          `json:"caption,omitempty"`
	DroneID     string          `json:"droneID,omitempty"`
	Timestamp   string          `json:"timestamp"`
	GPS         GPSCoordinate   `json:"gps"`
	ImageURL    string          `json:"imageUrl"`
}

// NewAnnotationResult maps a tagging service response onto the canonical
// record. Service-provided metadata wins over the aligned telemetry sample;
// absent fields fall back to the sample.
func NewAnnotationResult(resp TagResponse, sample TelemetrySample) AnnotationResult {
	r := AnnotationResult{
		Tag:         TagScanning,
		ContextTags: resp.Tags.ContextTags,
		Caption:     resp.Caption,
		DroneID:     sample.DroneID,
		Timestamp:   sample.Timestamp,
		GPS:         sample.GPS,
	}
	// A present-but-empty simple_tags list joins to "", only an absent list
	// means the service is still scanning.
	if resp.Tags.SimpleTags != nil {
		r.Tag = strings.Join(resp.Tags.SimpleTags, ", ")
	}
	if resp.Metadata != nil {
		if resp.Metadata.DroneID != "" {
			r.DroneID = resp.Metadata.DroneID
		}
		if resp.Metadata.Timestamp != "" {
			r.Timestamp = resp.Metadata.Timestamp
		}
		if resp.Metadata.GPS != nil {
			r.GPS = *resp.Metadata.GPS
		}
	}
	return r
}

// NewTaggingFallback is the degraded record substituted when the tagging call
// for a frame failed. Only tag, timestamp, gps and the image reference are
// populated.
func NewTaggingFallback(sample TelemetrySample) AnnotationResult {
	return AnnotationResult{
		Tag:       TagError,
		Timestamp: sample.Timestamp,
		GPS:       sample.GPS,
	}
}

// TagRequest is the payload sent to the remote tagging service for one frame.
type TagRequest struct {
	Image     string        `json:"image"`
	DroneID   string        `json:"droneID"`
	GPS       GPSCoordinate `json:"gps"`
	Timestamp string        `json:"timestamp"`
}

// TagResponse is the expected answer shape of the tagging service. All fields
// are optional; context_tags is passed through opaquely.
type TagResponse struct {
	Tags struct {
		SimpleTags  []string        `json:"simple_tags"`
		ContextTags json.RawMessage `json:"context_tags"`
	} `json:"tags"`
	Caption  string `json:"caption"`
	Metadata *struct {
		DroneID   string         `json:"droneID"`
		Timestamp string         `json:"timestamp"`
		GPS       *GPSCoordinate `json:"gps"`
	} `json:"metadata"`
}
