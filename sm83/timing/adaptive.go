package timing

import "time"

// AdaptiveLimiter paces frames with sleep plus a short busy-wait for
// accuracy, absorbing small scheduling drift.
type AdaptiveLimiter struct {
	targetFrameTime time.Duration
	nextFrameTime   time.Time
	turbo           bool
}

func NewAdaptiveLimiter() *AdaptiveLimiter {
	return &AdaptiveLimiter{
		targetFrameTime: FrameDuration(),
		nextFrameTime:   time.Now(),
	}
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	if a.turbo {
		a.nextFrameTime = time.Now()
		return
	}

	now := time.Now()
	sleepTime := a.nextFrameTime.Sub(now)

	if sleepTime > 0 {
		if sleepTime < 2*time.Millisecond {
			// busy-wait for short waits, higher accuracy
			for time.Now().Before(a.nextFrameTime) {
			}
		} else {
			time.Sleep(sleepTime - time.Millisecond)
			for time.Now().Before(a.nextFrameTime) {
			}
		}
	} else if sleepTime < -5*time.Millisecond {
		// far behind schedule, do not try to catch up
		a.nextFrameTime = now
	}

	a.nextFrameTime = a.nextFrameTime.Add(a.targetFrameTime)
}

func (a *AdaptiveLimiter) SetTurbo(enabled bool) {
	a.turbo = enabled
}

func (a *AdaptiveLimiter) Reset() {
	a.nextFrameTime = time.Now()
}
