// Package pacer converts host frame callbacks into a count of simulation
// steps to execute, honoring a variable speed and recovering from host stalls
// without replaying the backlog.
package pacer

import (
	"context"
	"errors"
	"time"
)

// Host delivers frame callbacks. NextFrame blocks until the next callback and
// returns the host's monotonic elapsed time at that callback.
type Host interface {
	NextFrame(ctx context.Context) (time.Duration, error)
}

// ErrHostClosed is returned by a host that has no more frames to deliver.
var ErrHostClosed = errors.New("pacer: host closed")

// TickerHost paces callbacks with a wall-clock ticker, the way a display
// refresh would.
type TickerHost struct {
	ticker *time.Ticker
	start  time.Time
}

// NewTickerHost creates a host firing rate times per second.
func NewTickerHost(rate int) *TickerHost {
	if rate <= 0 {
		rate = 60
	}
	return &TickerHost{
		ticker: time.NewTicker(time.Second / time.Duration(rate)),
		start:  time.Now(),
	}
}

// NextFrame waits for the next tick.
func (h *TickerHost) NextFrame(ctx context.Context) (time.Duration, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case t := <-h.ticker.C:
		return t.Sub(h.start), nil
	}
}

// Stop releases the ticker.
func (h *TickerHost) Stop() {
	h.ticker.Stop()
}

// VirtualHost advances a synthetic clock by a fixed interval on every call
// without waiting. It drives headless evaluation and deterministic tests.
type VirtualHost struct {
	interval time.Duration
	now      time.Duration
}

// NewVirtualHost creates a host whose clock advances by interval per frame.
func NewVirtualHost(interval time.Duration) *VirtualHost {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &VirtualHost{interval: interval}
}

// NextFrame returns the next synthetic timestamp.
func (h *VirtualHost) NextFrame(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	h.now += h.interval
	return h.now, nil
}

// Sleep jumps the clock forward, as if the host had been suspended.
func (h *VirtualHost) Sleep(d time.Duration) {
	h.now += d
}

// ScriptHost replays a fixed list of timestamps, then reports ErrHostClosed.
type ScriptHost struct {
	frames []time.Duration
	pos    int
}

// NewScriptHost creates a host delivering the given timestamps in order.
func NewScriptHost(frames ...time.Duration) *ScriptHost {
	return &ScriptHost{frames: frames}
}

// NextFrame returns the next scripted timestamp.
func (h *ScriptHost) NextFrame(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if h.pos >= len(h.frames) {
		return 0, ErrHostClosed
	}
	t := h.frames[h.pos]
	h.pos++
	return t, nil
}
