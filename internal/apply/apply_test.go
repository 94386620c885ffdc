package apply

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundryhq/foundry/internal/plan"
	"github.com/foundryhq/foundry/internal/task"
	"github.com/foundryhq/foundry/internal/tracker"
)

// fastRetry keeps tests quick while still exercising the backoff loop.
func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2.0, Jitter: 0.2}
}

func TestApplyFullPlan(t *testing.T) {
	ctx := context.Background()
	mem := tracker.NewMemory()
	mem.Seed("parent", tracker.SubIssue{ID: "E1", Title: "keep me", Open: true, TaskKey: "keep-me", Foundry: true})
	mem.Seed("parent", tracker.SubIssue{ID: "E2", Title: "Old task", Open: true, TaskKey: "old-task", Foundry: true})
	mem.Seed("parent", tracker.SubIssue{ID: "E3", Title: "Done thing", Open: false, TaskKey: "done-thing", Foundry: true})

	desired := task.ParseChecklist("- [ ] keep me\n- [ ] Done thing\n- [x] new and done\n")
	existing, err := mem.ListChildren(ctx, "parent")
	require.NoError(t, err)

	p := plan.Compute(desired, existing)
	report := Apply(ctx, mem, "parent", p, Options{Retry: fastRetry()})

	assert.True(t, report.Succeeded())
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Reopened) // E3 back open
	assert.Equal(t, 1, report.Closed)   // E2 gone from the checklist
	assert.Len(t, report.CreatedIDs, 1)

	// Fixed point: replanning against the converged tracker is empty.
	converged, err := mem.ListChildren(ctx, "parent")
	require.NoError(t, err)
	next := plan.Compute(desired, converged)
	assert.True(t, next.Empty(), "expected empty plan, got %+v", next)
}

func TestApplyRetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	mem := tracker.NewMemory()
	mem.FailNext("create",
		tracker.Transient("rate limited", nil),
		tracker.Transient("502", nil))

	var logged int
	p := plan.Plan{ToCreate: []plan.CreateOp{{Title: "Ship it", TaskKey: "ship-it"}}}
	report := Apply(ctx, mem, "parent", p, Options{
		Retry: fastRetry(),
		Logf:  func(string, ...any) { logged++ },
	})

	assert.True(t, report.Succeeded())
	assert.Equal(t, 1, report.Created)
	assert.GreaterOrEqual(t, logged, 2, "each retry logs one line")
}

func TestApplyTransientExhaustionIsRecorded(t *testing.T) {
	ctx := context.Background()
	mem := tracker.NewMemory()
	mem.FailNext("create",
		tracker.Transient("t1", nil),
		tracker.Transient("t2", nil),
		tracker.Transient("t3", nil))

	p := plan.Plan{ToCreate: []plan.CreateOp{{Title: "Ship it", TaskKey: "ship-it"}}}
	report := Apply(ctx, mem, "parent", p, Options{Retry: fastRetry()})

	require.Len(t, report.Failures, 1)
	assert.Equal(t, OpCreate, report.Failures[0].Kind)
	assert.Equal(t, tracker.KindTransient, report.Failures[0].ErrorKind)
	assert.Equal(t, 0, report.Created)
}

func TestApplyBestEffortContinuesPastPermanentFailure(t *testing.T) {
	ctx := context.Background()
	mem := tracker.NewMemory()
	mem.FailNext("create", tracker.Permanent("forbidden", nil))

	p := plan.Plan{ToCreate: []plan.CreateOp{
		{Title: "First", TaskKey: "first"},
		{Title: "Second", TaskKey: "second"},
	}}
	report := Apply(ctx, mem, "parent", p, Options{Retry: fastRetry()})

	assert.Equal(t, 1, report.Created, "second create proceeds in best-effort mode")
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "first", report.Failures[0].Target)
	assert.Equal(t, 1, report.PermanentFailures())
}

func TestApplyStrictAbortsOnPermanentFailure(t *testing.T) {
	ctx := context.Background()
	mem := tracker.NewMemory()
	mem.FailNext("create", tracker.Permanent("forbidden", nil))

	p := plan.Plan{ToCreate: []plan.CreateOp{
		{Title: "First", TaskKey: "first"},
		{Title: "Second", TaskKey: "second"},
	}}
	report := Apply(ctx, mem, "parent", p, Options{Strict: true, Retry: fastRetry()})

	assert.Equal(t, 0, report.Created)
	require.Len(t, report.Failures, 1)

	children, err := mem.ListChildren(ctx, "parent")
	require.NoError(t, err)
	assert.Empty(t, children, "strict mode must stop before the second create")
}

func TestApplyPhaseOrderClosesLast(t *testing.T) {
	ctx := context.Background()
	mem := tracker.NewMemory()
	mem.Seed("parent", tracker.SubIssue{ID: "E1", Title: "old", Open: true, TaskKey: "old", Foundry: true})
	// The create fails permanently; the close must still have been
	// attempted after it, i.e. the old issue closes only in the last phase.
	mem.FailNext("create", tracker.Permanent("forbidden", nil))

	p := plan.Plan{
		ToCreate: []plan.CreateOp{{Title: "Replacement", TaskKey: "replacement"}},
		ToClose:  []string{"E1"},
	}
	report := Apply(ctx, mem, "parent", p, Options{Retry: fastRetry()})

	assert.Equal(t, 1, report.Closed)
	assert.Len(t, report.Failures, 1)
}

func TestApplyCancellationStopsNewOperations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mem := tracker.NewMemory()

	p := plan.Plan{ToCreate: []plan.CreateOp{
		{Title: "First", TaskKey: "first"},
		{Title: "Second", TaskKey: "second"},
	}}

	cancel() // cancelled before the run starts
	report := Apply(ctx, mem, "parent", p, Options{Retry: fastRetry()})

	assert.True(t, report.Cancelled)
	assert.Equal(t, 0, report.Created)
	assert.Empty(t, report.Failures, "cancellation is not a failure")
}

func TestApplyCancellationDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mem := tracker.NewMemory()
	mem.FailNext("create", tracker.Transient("slow down", nil))

	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	p := plan.Plan{ToCreate: []plan.CreateOp{{Title: "First", TaskKey: "first"}}}
	report := Apply(ctx, mem, "parent", p, Options{
		Retry: RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Multiplier: 2.0},
	})

	assert.True(t, report.Cancelled)
	assert.Empty(t, report.Failures)
}

func TestApplyEmptyPlanIsNoOp(t *testing.T) {
	report := Apply(context.Background(), tracker.NewMemory(), "parent", plan.Plan{}, Options{})
	assert.True(t, report.Succeeded())
	assert.Equal(t, 0, report.Created+report.Updated+report.Reopened+report.Completed+report.Closed)
}
