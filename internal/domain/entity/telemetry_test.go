package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignReturnsSampleInRange(t *testing.T) {
	samples := []TelemetrySample{
		{DroneID: "D1", Timestamp: "00:00:00", GPS: GPSCoordinate{Lat: 1, Lng: 2}},
		{DroneID: "D1", Timestamp: "00:00:01", GPS: GPSCoordinate{Lat: 1.1, Lng: 2.1}},
	}

	got := Align(1, samples)
	assert.Equal(t, samples[1], got)
}

func TestAlignFallbackForMissingTelemetry(t *testing.T) {
	tests := []struct {
		index    int
		wantTime string
	}{
		{0, "00:00:00"},
		{7, "00:00:07"},
		{59, "00:00:59"},
		{60, "00:00:00"},
		{125, "00:00:05"},
	}

	for _, tt := range tests {
		got := Align(tt.index, nil)
		assert.Equal(t, "Unknown", got.DroneID, "index %d", tt.index)
		assert.Equal(t, tt.wantTime, got.Timestamp, "index %d", tt.index)
		assert.Equal(t, GPSCoordinate{Lat: 0, Lng: 0}, got.GPS, "index %d", tt.index)
	}
}

func TestAlignSurplusTelemetryIgnored(t *testing.T) {
	samples := []TelemetrySample{
		{DroneID: "D1", Timestamp: "00:00:00"},
		{DroneID: "D1", Timestamp: "00:00:01"},
		{DroneID: "D1", Timestamp: "00:00:02"},
	}

	// Only index 0 belongs to a one-frame job; surplus samples are simply
	// never requested.
	got := Align(0, samples)
	assert.Equal(t, samples[0], got)
}

func TestParseTelemetry(t *testing.T) {
	raw := []byte(`[{"drone_id":"D1","timestamp":"00:00:00","gps":{"lat":1,"lng":2}}]`)

	samples, err := ParseTelemetry(raw)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "D1", samples[0].DroneID)
	assert.Equal(t, GPSCoordinate{Lat: 1, Lng: 2}, samples[0].GPS)
}

func TestParseTelemetryMalformedDegradesToEmpty(t *testing.T) {
	samples, err := ParseTelemetry([]byte(`{not json`))
	assert.Error(t, err)
	assert.Empty(t, samples)
}

func TestParseTelemetryEmptyInput(t *testing.T) {
	samples, err := ParseTelemetry(nil)
	assert.NoError(t, err)
	assert.Empty(t, samples)
}

func TestSanitizeVideoName(t *testing.T) {
	assert.Equal(t, "drone_flight_1.mp4", SanitizeVideoName("drone flight  1.mp4"))
	assert.Equal(t, "plain.mp4", SanitizeVideoName("plain.mp4"))
	assert.Equal(t, "evil.mp4", SanitizeVideoName("../../evil.mp4"))
}
