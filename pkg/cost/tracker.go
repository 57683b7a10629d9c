// Package cost tracks daily request, token, and spend counters against
// configured limits. Counters reset at UTC midnight.
package cost

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/airsift/airsift/pkg/config"
)

// Status is a point-in-time snapshot of the day's usage.
type Status struct {
	Day          string  `json:"day"`
	Requests     int64   `json:"requests"`
	Tokens       int64   `json:"tokens"`
	CostUSD      float64 `json:"cost_usd"`
	RequestLimit int     `json:"request_limit,omitempty"`
	TokenLimit   int     `json:"token_limit,omitempty"`
	CostLimitUSD float64 `json:"cost_limit_usd,omitempty"`
}

// Tracker holds the daily counters. Hot-path increments are atomic; the
// mutex only guards the midnight rollover.
type Tracker struct {
	requestLimit int
	tokenLimit   int
	costLimit    float64

	requests atomic.Int64
	tokens   atomic.Int64
	// microUSD avoids a float in the atomic hot path.
	microUSD atomic.Int64

	mu  sync.Mutex
	day string

	now func() time.Time // test hook
}

// NewTracker creates a tracker. Zero limits mean unlimited, which is the
// default for local (no-cost) backends.
func NewTracker(cfg config.LimitsConfig) *Tracker {
	t := &Tracker{
		requestLimit: cfg.DailyRequestLimit,
		tokenLimit:   cfg.DailyTokenLimit,
		costLimit:    cfg.DailyCostLimitUSD,
		now:          time.Now,
	}
	t.day = t.today()
	return t
}

func (t *Tracker) today() string {
	return t.now().UTC().Format("2006-01-02")
}

// rollover resets counters when the UTC day has changed.
func (t *Tracker) rollover() {
	today := t.today()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.day == today {
		return
	}
	slog.Info("Resetting daily usage counters",
		"previous_day", t.day,
		"requests", t.requests.Load(),
		"tokens", t.tokens.Load())
	t.day = today
	t.requests.Store(0)
	t.tokens.Store(0)
	t.microUSD.Store(0)
}

// CheckLimits reports whether another request may proceed and, when not,
// why.
func (t *Tracker) CheckLimits() (bool, string) {
	t.rollover()
	if t.requestLimit > 0 && t.requests.Load() >= int64(t.requestLimit) {
		return false, fmt.Sprintf("daily request limit of %d reached", t.requestLimit)
	}
	if t.tokenLimit > 0 && t.tokens.Load() >= int64(t.tokenLimit) {
		return false, fmt.Sprintf("daily token limit of %d reached", t.tokenLimit)
	}
	if t.costLimit > 0 && t.costUSD() >= t.costLimit {
		return false, fmt.Sprintf("daily cost limit of $%.2f reached", t.costLimit)
	}
	return true, ""
}

// Track records one completed request.
func (t *Tracker) Track(tokens int, costUSD float64) {
	t.rollover()
	t.requests.Add(1)
	t.tokens.Add(int64(tokens))
	t.microUSD.Add(int64(costUSD * 1e6))
}

// Status returns the current day's snapshot.
func (t *Tracker) Status() Status {
	t.rollover()
	t.mu.Lock()
	day := t.day
	t.mu.Unlock()
	return Status{
		Day:          day,
		Requests:     t.requests.Load(),
		Tokens:       t.tokens.Load(),
		CostUSD:      t.costUSD(),
		RequestLimit: t.requestLimit,
		TokenLimit:   t.tokenLimit,
		CostLimitUSD: t.costLimit,
	}
}

func (t *Tracker) costUSD() float64 {
	return float64(t.microUSD.Load()) / 1e6
}
