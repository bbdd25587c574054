package timing

import "time"

// TickerLimiter paces frames with a time.Ticker. Less accurate than
// AdaptiveLimiter but simpler.
type TickerLimiter struct {
	ticker *time.Ticker
	turbo  bool
}

func NewTickerLimiter() *TickerLimiter {
	return &TickerLimiter{ticker: time.NewTicker(FrameDuration())}
}

func (t *TickerLimiter) WaitForNextFrame() {
	if t.turbo {
		return
	}
	<-t.ticker.C
}

func (t *TickerLimiter) SetTurbo(enabled bool) {
	t.turbo = enabled
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(FrameDuration())
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
