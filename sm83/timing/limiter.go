// Package timing paces emulation to the hardware frame rate.
package timing

import (
	"time"

	"github.com/ThaumielSparrow/go-sm83/sm83/audio"
	"github.com/ThaumielSparrow/go-sm83/sm83/video"
)

// Limiter controls frame pacing.
type Limiter interface {
	// WaitForNextFrame blocks until the next frame is due. Returns
	// immediately when behind schedule or in turbo.
	WaitForNextFrame()

	// SetTurbo toggles unthrottled execution.
	SetTurbo(enabled bool)

	// Reset clears pacing state, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that never waits, for headless
// runs.
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) SetTurbo(bool)     {}
func (n *noOpLimiter) Reset()            {}

// TargetFPS is the exact hardware frame rate.
func TargetFPS() float64 {
	return float64(audio.CPUFrequency) / float64(video.FrameCycles)
}

// FrameDuration returns the target duration of a single frame.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}
