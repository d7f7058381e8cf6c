package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/skywatch/drone-annotation-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(channel string, buffer int) *Client {
	return &Client{Channel: channel, Send: make(chan []byte, buffer)}
}

func receive(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Envelope{}
	}
}

func TestHubDeliversFrameEventsToChannelSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	subscriber := newTestClient("patrol.mp4", 8)
	other := newTestClient("unrelated.mp4", 8)
	hub.Register(subscriber)
	hub.Register(other)

	hub.PublishFrame("patrol.mp4", entity.AnnotationResult{
		Tag:       "tree",
		Timestamp: "00:00:00",
		GPS:       entity.GPSCoordinate{Lat: 1, Lng: 2},
		ImageURL:  "/static/frames/patrol.mp4-000.jpg",
	})

	env := receive(t, subscriber)
	assert.Equal(t, EventNewFrame, env.Event)

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var result entity.AnnotationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "tree", result.Tag)
	assert.Equal(t, "/static/frames/patrol.mp4-000.jpg", result.ImageURL)

	// The other channel's subscriber saw nothing.
	select {
	case raw := <-other.Send:
		t.Fatalf("unexpected event on unrelated channel: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDeliversJobStatusEvents(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	subscriber := newTestClient("patrol.mp4", 8)
	hub.Register(subscriber)

	hub.PublishJobStatus("patrol.mp4", entity.JobStatusFailed, "extract_frames: decode failed")

	env := receive(t, subscriber)
	assert.Equal(t, EventJobStatus, env.Event)

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var event JobStatusEvent
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, entity.JobStatusFailed, event.Status)
	assert.Equal(t, "extract_frames: decode failed", event.Message)
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	subscriber := newTestClient("patrol.mp4", 8)
	hub.Register(subscriber)
	hub.Unregister(subscriber)

	// Unregister closes the send channel.
	select {
	case _, ok := <-subscriber.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed on unregister")
	}

	// Publishing afterwards must not panic on the closed channel.
	hub.PublishFrame("patrol.mp4", entity.AnnotationResult{Tag: "tree"})
	time.Sleep(50 * time.Millisecond)
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	slow := newTestClient("patrol.mp4", 1)
	hub.Register(slow)

	// First event fills the buffer, the second finds it full and evicts the
	// client instead of blocking the broadcast loop. Nothing drains the
	// buffer until both events have been through the hub.
	hub.PublishFrame("patrol.mp4", entity.AnnotationResult{Tag: "one"})
	hub.PublishFrame("patrol.mp4", entity.AnnotationResult{Tag: "two"})
	time.Sleep(100 * time.Millisecond)

	raw, ok := <-slow.Send
	require.True(t, ok)
	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	data, _ := json.Marshal(env.Data)
	var result entity.AnnotationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "one", result.Tag)

	select {
	case _, ok := <-slow.Send:
		assert.False(t, ok, "expected closed send channel after eviction")
	case <-time.After(time.Second):
		t.Fatal("slow subscriber was not evicted")
	}
}
