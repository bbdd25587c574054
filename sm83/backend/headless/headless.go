// Package headless runs the machine without a display, for automated
// runs and batch frame capture.
package headless

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ThaumielSparrow/go-sm83/sm83/backend"
	"github.com/ThaumielSparrow/go-sm83/sm83/video"
)

// CaptureConfig controls periodic PNG frame capture.
type CaptureConfig struct {
	Enabled   bool
	Interval  int    // capture every N frames
	Directory string // destination directory
	Name      string // base name for capture files
}

// Backend counts frames and optionally captures them as PNG files,
// then signals quit once the frame budget is spent.
type Backend struct {
	config     backend.Config
	capture    CaptureConfig
	frameCount int
	maxFrames  int
}

func New(maxFrames int, capture CaptureConfig) *Backend {
	return &Backend{maxFrames: maxFrames, capture: capture}
}

func (h *Backend) Init(config backend.Config) error {
	h.config = config
	slog.Info("running headless",
		"frames", h.maxFrames,
		"capture_interval", h.capture.Interval,
		"capture_dir", h.capture.Directory)
	return nil
}

func (h *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	h.frameCount++

	if h.capture.Enabled && h.frameCount%h.capture.Interval == 0 {
		h.captureFrame(frame)
	}

	if h.frameCount >= h.maxFrames {
		if h.capture.Enabled && h.frameCount%h.capture.Interval != 0 {
			h.captureFrame(frame)
		}
		slog.Info("headless run completed", "frames", h.frameCount)
		return []backend.InputEvent{{Action: backend.ActionQuit, Type: backend.Press}}, nil
	}
	return nil, nil
}

func (h *Backend) Cleanup() error { return nil }

// FrameCount returns the frames processed so far.
func (h *Backend) FrameCount() int { return h.frameCount }

func (h *Backend) captureFrame(frame *video.FrameBuffer) {
	name := fmt.Sprintf("%s_frame_%d.png", h.capture.Name, h.frameCount)
	path := filepath.Join(h.capture.Directory, name)
	if err := WritePNG(frame, path); err != nil {
		slog.Error("frame capture failed", "frame", h.frameCount, "error", err)
	}
}

// WritePNG encodes a framebuffer as a PNG file.
func WritePNG(frame *video.FrameBuffer, path string) error {
	img := image.NewRGBA(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight))
	pixels := frame.ToSlice()
	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			p := pixels[y*video.FramebufferWidth+x]
			img.Set(x, y, color.RGBA{
				R: uint8(p >> 16),
				G: uint8(p >> 8),
				B: uint8(p),
				A: uint8(p >> 24),
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// NewCaptureConfig builds a capture configuration; a zero interval
// disables capture. An empty directory gets a temp directory.
func NewCaptureConfig(interval int, directory, romPath string) (CaptureConfig, error) {
	config := CaptureConfig{
		Enabled:  interval > 0,
		Interval: interval,
	}
	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "sm83-frames-*")
		if err != nil {
			return config, fmt.Errorf("create capture directory: %w", err)
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return config, fmt.Errorf("create capture directory: %w", err)
		}
		config.Directory = directory
	}

	base := filepath.Base(romPath)
	config.Name = base[:len(base)-len(filepath.Ext(base))]
	return config, nil
}
