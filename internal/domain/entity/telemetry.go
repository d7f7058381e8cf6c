package entity

import (
	"encoding/json"
	"fmt"
)

// GPSCoordinate is a latitude/longitude pair as reported by the drone.
type GPSCoordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TelemetrySample is one timestamped drone position record. Samples are
// aligned to extracted frames by array index, matching the one-frame-per-second
// sampling rate.
type TelemetrySample struct {
	DroneID   string        `json:"drone_id"`
	Timestamp string        `json:"timestamp"`
	GPS       GPSCoordinate `json:"gps"`
}

// ParseTelemetry decodes the raw telemetry array sent alongside an upload.
// Malformed input is not fatal to a job: the caller gets an empty array and
// an error to log, and every frame falls back to synthesized telemetry.
func ParseTelemetry(raw []byte) ([]TelemetrySample, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var samples []TelemetrySample
	if err := json.Unmarshal(raw, &samples); err != nil {
		return nil, fmt.Errorf("parse telemetry: %w", err)
	}
	return samples, nil
}

// Align returns the telemetry sample for frame index i. When the telemetry
// array is missing or shorter than the frame count, it synthesizes a fallback
// sample with a seconds-only timestamp derived from the index.
func Align(i int, samples []TelemetrySample) TelemetrySample {
	if i >= 0 && i < len(samples) {
		return samples[i]
	}
	return TelemetrySample{
		DroneID:   "Unknown",
		Timestamp: fmt.Sprintf("00:00:%02d", i%60),
		GPS:       GPSCoordinate{Lat: 0, Lng: 0},
	}
}
