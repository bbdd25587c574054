package headless

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThaumielSparrow/go-sm83/sm83/backend"
	"github.com/ThaumielSparrow/go-sm83/sm83/video"
)

func TestQuitAfterFrameBudget(t *testing.T) {
	b := New(3, CaptureConfig{})
	require.NoError(t, b.Init(backend.Config{}))

	frame := video.NewFrameBuffer()

	events, err := b.Update(frame)
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = b.Update(frame)
	require.NoError(t, err)

	events, err = b.Update(frame)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, backend.ActionQuit, events[0].Action)
	assert.Equal(t, 3, b.FrameCount())
}

func TestFrameCapture(t *testing.T) {
	dir := t.TempDir()
	b := New(4, CaptureConfig{Enabled: true, Interval: 2, Directory: dir, Name: "test"})
	require.NoError(t, b.Init(backend.Config{}))

	frame := video.NewFrameBuffer()
	frame.Clear(video.DarkGreyColor)

	for i := 0; i < 4; i++ {
		_, err := b.Update(frame)
		require.NoError(t, err)
	}

	for _, name := range []string{"test_frame_2.png", "test_frame_4.png"} {
		f, err := os.Open(filepath.Join(dir, name))
		require.NoError(t, err, name)
		img, err := png.Decode(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, video.FramebufferWidth, img.Bounds().Dx())
		assert.Equal(t, video.FramebufferHeight, img.Bounds().Dy())
	}
}

func TestNewCaptureConfig(t *testing.T) {
	config, err := NewCaptureConfig(0, "", "game.gb")
	require.NoError(t, err)
	assert.False(t, config.Enabled)

	dir := filepath.Join(t.TempDir(), "captures")
	config, err = NewCaptureConfig(10, dir, "/roms/tetris.gb")
	require.NoError(t, err)
	assert.True(t, config.Enabled)
	assert.Equal(t, dir, config.Directory)
	assert.Equal(t, "tetris", config.Name)
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}
