// Package apply executes a reconciliation plan against a Tracker with
// bounded retries, fixed phase ordering and partial-failure reporting.
package apply

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/foundryhq/foundry/internal/plan"
	"github.com/foundryhq/foundry/internal/tracker"
)

// RetryConfig controls backoff for transient tracker failures.
type RetryConfig struct {
	MaxAttempts int           // total attempts per operation
	BaseDelay   time.Duration // delay before the second attempt
	Multiplier  float64       // exponential growth factor
	Jitter      float64       // fraction of the delay randomized, e.g. 0.2 for ±20%
}

// DefaultRetryConfig returns the standard policy: 5 attempts, 250ms base,
// doubling, ±20% jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   250 * time.Millisecond,
		Multiplier:  2.0,
		Jitter:      0.2,
	}
}

// Options configures one apply call.
type Options struct {
	// Strict aborts the run after the first permanent failure instead of
	// continuing best-effort.
	Strict bool

	// Timeout bounds each tracker operation. Zero means the 30s default.
	Timeout time.Duration

	// Retry policy; zero value means DefaultRetryConfig.
	Retry RetryConfig

	// Logf receives one line per retry attempt and phase transition. Nil
	// disables logging.
	Logf func(format string, args ...any)
}

const defaultOpTimeout = 30 * time.Second

// Apply executes p against trk, serially, in four phases: creates first
// (new items show up promptly), then title updates, then state changes,
// then closes last so user-visible work is never destroyed before its
// replacement exists.
//
// Cancellation is polled between operations and before every backoff
// sleep; in-flight operations are not aborted and their outcomes are
// recorded. Apply never returns an error: all failure is in the Report.
func Apply(ctx context.Context, trk tracker.Tracker, parentID string, p plan.Plan, opts Options) Report {
	a := &applier{trk: trk, opts: opts}
	if a.opts.Timeout <= 0 {
		a.opts.Timeout = defaultOpTimeout
	}
	if a.opts.Retry.MaxAttempts <= 0 {
		a.opts.Retry = DefaultRetryConfig()
	}

	var report Report

	for _, c := range p.ToCreate {
		c := c
		var id string
		done := a.run(ctx, &report, OpCreate, c.TaskKey, func(opCtx context.Context) error {
			var err error
			id, err = trk.CreateSubIssue(opCtx, parentID, c.Title, c.TaskKey, c.Completed)
			return err
		})
		if done {
			report.Created++
			report.CreatedIDs = append(report.CreatedIDs, id)
		}
		if a.stopped(ctx, &report) {
			return report
		}
	}

	for _, u := range p.ToUpdate {
		u := u
		if a.run(ctx, &report, OpUpdate, u.ID, func(opCtx context.Context) error {
			return trk.UpdateTitle(opCtx, u.ID, u.Title)
		}) {
			report.Updated++
		}
		if a.stopped(ctx, &report) {
			return report
		}
	}

	for _, id := range p.ToReopen {
		id := id
		if a.run(ctx, &report, OpReopen, id, func(opCtx context.Context) error {
			return trk.SetState(opCtx, id, true)
		}) {
			report.Reopened++
		}
		if a.stopped(ctx, &report) {
			return report
		}
	}
	for _, id := range p.ToComplete {
		id := id
		if a.run(ctx, &report, OpComplete, id, func(opCtx context.Context) error {
			return trk.SetState(opCtx, id, false)
		}) {
			report.Completed++
		}
		if a.stopped(ctx, &report) {
			return report
		}
	}

	for _, id := range p.ToClose {
		id := id
		if a.run(ctx, &report, OpClose, id, func(opCtx context.Context) error {
			return trk.SetState(opCtx, id, false)
		}) {
			report.Closed++
		}
		if a.stopped(ctx, &report) {
			return report
		}
	}

	return report
}

type applier struct {
	trk     tracker.Tracker
	opts    Options
	aborted bool
}

// stopped reports whether the run should end now, recording cancellation.
func (a *applier) stopped(ctx context.Context, report *Report) bool {
	if ctx.Err() != nil {
		report.Cancelled = true
		return true
	}
	return a.aborted
}

// run executes one operation with retry. It returns true on success; on
// terminal failure it appends to the report and, in strict mode for
// permanent errors, flags the run for abort.
func (a *applier) run(ctx context.Context, report *Report, kind OpKind, target string, fn func(context.Context) error) bool {
	err := a.withRetry(ctx, kind, target, fn)
	if err == nil {
		return true
	}
	if ctx.Err() != nil {
		// Cancelled mid-operation; not a failure. The outer loop records
		// Cancelled and stops issuing work.
		return false
	}

	report.Failures = append(report.Failures, Failure{
		Kind:      kind,
		Target:    target,
		ErrorKind: tracker.KindOf(err),
		Message:   err.Error(),
	})
	if a.opts.Strict && tracker.KindOf(err) == tracker.KindPermanent {
		a.aborted = true
	}
	return false
}

// withRetry is the backoff loop: transient failures retry with jittered
// exponential delay, permanent failures return immediately.
func (a *applier) withRetry(ctx context.Context, kind OpKind, target string, fn func(context.Context) error) error {
	cfg := a.opts.Retry
	delay := cfg.BaseDelay

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		opCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
		err := fn(opCtx)
		cancel()

		if err == nil {
			if attempt > 1 {
				a.logf("%s %s succeeded after %d attempts", kind, target, attempt)
			}
			return nil
		}
		lastErr = err

		if !tracker.IsTransient(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		sleep := jitter(delay, cfg.Jitter)
		a.logf("%s %s failed (attempt %d/%d), retrying in %v: %v",
			kind, target, attempt, cfg.MaxAttempts, sleep.Round(time.Millisecond), err)

		select {
		case <-time.After(sleep):
			delay = time.Duration(float64(delay) * cfg.Multiplier)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%s %s failed after %d attempts: %w", kind, target, cfg.MaxAttempts, lastErr)
}

func (a *applier) logf(format string, args ...any) {
	if a.opts.Logf != nil {
		a.opts.Logf(format, args...)
	}
}

// jitter spreads d by ±fraction so concurrent clients don't retry in
// lockstep against the same rate limit window.
func jitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	spread := (rand.Float64()*2 - 1) * fraction
	return time.Duration(float64(d) * (1 + spread))
}
