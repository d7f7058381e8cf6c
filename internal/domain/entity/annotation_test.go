package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleD1() TelemetrySample {
	return TelemetrySample{DroneID: "D1", Timestamp: "00:00:00", GPS: GPSCoordinate{Lat: 1, Lng: 2}}
}

func TestNewAnnotationResultJoinsSimpleTags(t *testing.T) {
	var resp TagResponse
	resp.Tags.SimpleTags = []string{"tree", "river"}
	resp.Caption = "a river bank"

	r := NewAnnotationResult(resp, sampleD1())

	assert.Equal(t, "tree, river", r.Tag)
	assert.Equal(t, "a river bank", r.Caption)
	assert.Equal(t, "D1", r.DroneID)
	assert.Equal(t, "00:00:00", r.Timestamp)
	assert.Equal(t, GPSCoordinate{Lat: 1, Lng: 2}, r.GPS)
}

func TestNewAnnotationResultScanningWhenTagsAbsent(t *testing.T) {
	var resp TagResponse

	r := NewAnnotationResult(resp, sampleD1())
	assert.Equal(t, TagScanning, r.Tag)
}

func TestNewAnnotationResultEmptyTagListJoinsToEmpty(t *testing.T) {
	var resp TagResponse
	resp.Tags.SimpleTags = []string{}

	r := NewAnnotationResult(resp, sampleD1())
	assert.Equal(t, "", r.Tag)
}

func TestNewAnnotationResultMetadataOverridesSample(t *testing.T) {
	raw := []byte(`{
		"tags": {"simple_tags": ["car"], "context_tags": {"zone": "urban"}},
		"caption": "street",
		"metadata": {"droneID": "D9", "timestamp": "00:01:00", "gps": {"lat": 9, "lng": 8}}
	}`)
	var resp TagResponse
	require.NoError(t, json.Unmarshal(raw, &resp))

	r := NewAnnotationResult(resp, sampleD1())

	assert.Equal(t, "car", r.Tag)
	assert.Equal(t, "D9", r.DroneID)
	assert.Equal(t, "00:01:00", r.Timestamp)
	assert.Equal(t, GPSCoordinate{Lat: 9, Lng: 8}, r.GPS)
	assert.JSONEq(t, `{"zone":"urban"}`, string(r.ContextTags))
}

func TestNewAnnotationResultPartialMetadataFallsBackToSample(t *testing.T) {
	raw := []byte(`{"tags": {}, "metadata": {"droneID": "D9"}}`)
	var resp TagResponse
	require.NoError(t, json.Unmarshal(raw, &resp))

	r := NewAnnotationResult(resp, sampleD1())

	assert.Equal(t, "D9", r.DroneID)
	assert.Equal(t, "00:00:00", r.Timestamp)
	assert.Equal(t, GPSCoordinate{Lat: 1, Lng: 2}, r.GPS)
}

func TestNewTaggingFallbackShape(t *testing.T) {
	r := NewTaggingFallback(TelemetrySample{DroneID: "D1", Timestamp: "00:00:02", GPS: GPSCoordinate{}})
	r.ImageURL = "/static/frames/vid-002.jpg"

	assert.Equal(t, TagError, r.Tag)
	assert.Equal(t, "00:00:02", r.Timestamp)

	// The degraded record carries only tag, timestamp, gps and the image
	// reference on the wire.
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"tag": "AI Error",
		"timestamp": "00:00:02",
		"gps": {"lat": 0, "lng": 0},
		"imageUrl": "/static/frames/vid-002.jpg"
	}`, string(data))
}
