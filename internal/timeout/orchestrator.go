// Package timeout holds the request deadline budget and derives per-stage contexts from it.
package timeout

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Budget is the cascade of deadlines, outer to inner.
type Budget struct {
	Request     time.Duration
	OCRJob      time.Duration
	SyncCeiling time.Duration
	Providers   []time.Duration // per-call timeout of every provider that may be attempted
}

// ProviderTotal is the worst-case time spent walking the whole fallback chain.
func (b Budget) ProviderTotal() time.Duration {
	var total time.Duration
	for _, d := range b.Providers {
		total += d
	}
	return total
}

// Validate checks the cascade: the request budget must cover the OCR job timeout and
// the sum of provider timeouts, otherwise the slowest path could overrun undetected.
func (b Budget) Validate() error {
	if b.Request <= 0 {
		return errors.New("request timeout must be positive")
	}
	if b.OCRJob <= 0 {
		return errors.New("ocr job timeout must be positive")
	}
	if b.SyncCeiling < 0 {
		return errors.New("sync ceiling must not be negative")
	}
	if b.Request < b.OCRJob {
		return fmt.Errorf("request timeout %s is shorter than ocr job timeout %s", b.Request, b.OCRJob)
	}
	if total := b.ProviderTotal(); b.Request < total {
		return fmt.Errorf("request timeout %s is shorter than %d provider timeouts totalling %s", b.Request, len(b.Providers), total)
	}
	return nil
}

// Orchestrator hands out contexts that never outlive the request deadline.
type Orchestrator struct {
	budget Budget
	now    func() time.Time
}

func New(b Budget) *Orchestrator {
	return &Orchestrator{budget: b, now: time.Now}
}

func (o *Orchestrator) Budget() Budget { return o.budget }

// Deadline is the absolute deadline of a request starting now, tightened by any
// deadline the caller's context already carries.
func (o *Orchestrator) Deadline(ctx context.Context) time.Time {
	d := o.now().Add(o.budget.Request)
	if cd, ok := ctx.Deadline(); ok && cd.Before(d) {
		return cd
	}
	return d
}

// Begin attaches the request deadline to ctx.
func (o *Orchestrator) Begin(ctx context.Context) (context.Context, context.CancelFunc, time.Time) {
	d := o.Deadline(ctx)
	ctx, cancel := context.WithDeadline(ctx, d)
	return ctx, cancel, d
}

// Stage derives a child context bounded by min(limit, remaining request time).
// A non-positive limit means the stage only inherits the request deadline.
func (o *Orchestrator) Stage(ctx context.Context, limit time.Duration) (context.Context, context.CancelFunc) {
	if limit <= 0 {
		return context.WithCancel(ctx)
	}
	if rem, ok := o.Remaining(ctx); ok && rem < limit {
		limit = rem
	}
	return context.WithTimeout(ctx, limit)
}

// Ceiling is how long a synchronous caller may wait on an OCR job.
func (o *Orchestrator) Ceiling(ctx context.Context) time.Duration {
	c := o.budget.SyncCeiling
	if c <= 0 {
		c = o.budget.OCRJob
	}
	if rem, ok := o.Remaining(ctx); ok && rem < c {
		c = rem
	}
	if c < 0 {
		c = 0
	}
	return c
}

// Remaining reports the time left before ctx's deadline.
func (o *Orchestrator) Remaining(ctx context.Context) (time.Duration, bool) {
	d, ok := ctx.Deadline()
	if !ok {
		return 0, false
	}
	return d.Sub(o.now()), true
}

// Expired reports whether ctx ended because its deadline passed.
func Expired(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}
