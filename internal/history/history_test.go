package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundryhq/foundry/internal/apply"
	"github.com/foundryhq/foundry/internal/tracker"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	report := apply.Report{
		Created: 2, Updated: 1, Closed: 1,
		Failures: []apply.Failure{{
			Kind:      apply.OpClose,
			Target:    "iss-9",
			ErrorKind: tracker.KindPermanent,
			Message:   "not found",
		}},
	}
	started := time.Now().Add(-time.Minute)

	runID, err := s.Record(ctx, "payment-api", "linear:p1", report, started, 1500*time.Millisecond)
	require.NoError(t, err)

	runs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, "payment-api", runs[0].Spec)
	assert.Equal(t, 2, runs[0].Created)
	assert.Equal(t, 1, runs[0].Failures)
	assert.Equal(t, 1500*time.Millisecond, runs[0].Duration)
	assert.False(t, runs[0].Cancelled)

	failures, err := s.FailuresFor(ctx, runID)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, apply.OpClose, failures[0].Kind)
	assert.Equal(t, tracker.KindPermanent, failures[0].ErrorKind)
}

func TestRecentOrderingAndLimit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := s.Record(ctx, "spec", "linear:p1", apply.Report{Created: i},
			base.Add(time.Duration(i)*time.Minute), time.Second)
		require.NoError(t, err)
	}

	runs, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, 4, runs[0].Created, "newest first")
	assert.Equal(t, 2, runs[2].Created)
}
