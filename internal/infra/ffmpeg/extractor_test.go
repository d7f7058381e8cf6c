package ffmpeg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
}

func TestListFramesSortedByIndex(t *testing.T) {
	dir := t.TempDir()
	// Created out of order on purpose.
	touch(t, dir, "flight.mp4-002.jpg")
	touch(t, dir, "flight.mp4-000.jpg")
	touch(t, dir, "flight.mp4-001.jpg")
	touch(t, dir, "flight.mp4-010.jpg")

	frames, err := ListFrames(dir, "flight.mp4", "jpg")
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "flight.mp4-000.jpg"),
		filepath.Join(dir, "flight.mp4-001.jpg"),
		filepath.Join(dir, "flight.mp4-002.jpg"),
		filepath.Join(dir, "flight.mp4-010.jpg"),
	}
	assert.Equal(t, want, frames)
}

func TestListFramesIgnoresOtherJobs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4-000.jpg")
	// A prefix that extends the queried one must not leak into its listing.
	touch(t, dir, "a.mp4-extra-000.jpg")
	touch(t, dir, "b.mp4-000.jpg")

	frames, err := ListFrames(dir, "a.mp4", "jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.mp4-000.jpg")}, frames)
}

func TestListFramesEmptyDirIsNotAnError(t *testing.T) {
	frames, err := ListFrames(t.TempDir(), "nothing.mp4", "jpg")
	require.NoError(t, err)
	assert.Empty(t, frames)
}
