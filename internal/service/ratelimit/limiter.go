package ratelimit

import (
	"context"
	"sync"
	"time"

	xutil "RiskPulse/pkg/util"

	"golang.org/x/time/rate"
)

// Gate is a single-permit, minimum-interval gate for one hard-rate-limited
// provider. Every call across all assets queues behind it: the mutex gives
// strict sequencing, the token bucket (rate 1/minInterval, burst 1) gives the
// spacing.
type Gate struct {
	mu  sync.Mutex
	lim *rate.Limiter
}

// NewGate creates a gate that admits one call per minInterval.
func NewGate(minInterval time.Duration) *Gate {
	if minInterval <= 0 {
		minInterval = time.Nanosecond
	}
	return &Gate{lim: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Do runs fn after the interval since the previous admitted call has elapsed.
// Callers block cooperatively; ctx cancellation releases a waiting caller.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.lim.Wait(ctx); err != nil {
		return err
	}
	return fn()
}

// DailyBudget is a soft quota counter that resets at UTC midnight, shared by
// providers with a combined daily allowance.
type DailyBudget struct {
	mu    sync.Mutex
	limit int
	day   time.Time
	used  int
}

// NewDailyBudget creates a budget of limit calls per UTC day. A non-positive
// limit means unlimited.
func NewDailyBudget(limit int) *DailyBudget {
	return &DailyBudget{limit: limit}
}

// Allow consumes one unit of today's budget, reporting false when exhausted.
func (b *DailyBudget) Allow() bool {
	if b.limit <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	today := xutil.DayUTC(time.Now())
	if !b.day.Equal(today) {
		b.day = today
		b.used = 0
	}
	if b.used >= b.limit {
		return false
	}
	b.used++
	return true
}

// Remaining reports how much of today's budget is left.
func (b *DailyBudget) Remaining() int {
	if b.limit <= 0 {
		return -1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	today := xutil.DayUTC(time.Now())
	if !b.day.Equal(today) {
		return b.limit
	}
	return b.limit - b.used
}
