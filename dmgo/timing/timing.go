// Package timing holds the fixed clock constants shared across the core
// and the frame limiters used by interactive hosts.
package timing

import "time"

// Hardware clock constants for the DMG.
const (
	// CPUFrequency is the master clock rate in T-cycles per second.
	CPUFrequency = 4_194_304
	// CyclesPerFrame is the number of T-cycles in one 160x144 frame.
	CyclesPerFrame = 70224
)

// TargetFPS is the exact DMG frame rate derived from the master clock.
func TargetFPS() float64 {
	return float64(CPUFrequency) / float64(CyclesPerFrame)
}

// FrameDuration is the wall-clock duration of one frame at TargetFPS.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}

// Limiter paces a host's presentation loop; it has no effect on the core.
type Limiter interface {
	WaitForNextFrame()
	Reset()
}

// NoOpLimiter runs as fast as possible, for headless batch runs.
type NoOpLimiter struct{}

func (NoOpLimiter) WaitForNextFrame() {}
func (NoOpLimiter) Reset()            {}

// TickerLimiter paces frames with a time.Ticker.
type TickerLimiter struct {
	ticker *time.Ticker
}

func NewTickerLimiter() *TickerLimiter {
	return &TickerLimiter{ticker: time.NewTicker(FrameDuration())}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ticker.C
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(FrameDuration())
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
