package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsParallelism(t *testing.T) {
	o, err := New(0, nil)
	require.NoError(t, err)
	assert.Greater(t, o.Parallelism(), 0)
}

func TestLogEventAndGetEvents(t *testing.T) {
	o, err := New(2, nil)
	require.NoError(t, err)

	o.LogEvent(StageGraph, "analyzing", nil, nil)
	o.LogEvent(StagePlan, "planning", nil, nil)

	events := o.GetEvents()
	require.Len(t, events, 2)
	assert.Equal(t, StageGraph, events[0].Stage)
	assert.Equal(t, StagePlan, events[1].Stage)
	assert.Equal(t, events[0].SessionID, events[1].SessionID)
}

func TestClearEvents(t *testing.T) {
	o, err := New(2, nil)
	require.NoError(t, err)

	o.LogEvent(StageInit, "starting", nil, nil)
	o.ClearEvents()
	assert.Empty(t, o.GetEvents())
}

func TestExecuteParallelIndividualFailureDoesNotAbortSiblings(t *testing.T) {
	o, err := New(4, nil)
	require.NoError(t, err)

	var ran atomic.Int32
	errs, err := o.ExecuteParallel(context.Background(), 5, func(ctx context.Context, i int) error {
		ran.Add(1)
		if i == 2 {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 5, ran.Load())

	require.Len(t, errs, 5)
	assert.Error(t, errs[2])
	for i, e := range errs {
		if i != 2 {
			assert.NoError(t, e)
		}
	}

	stats := o.GetStats()
	assert.EqualValues(t, 5, stats.TotalTasks)
	assert.EqualValues(t, 4, stats.CompletedTasks)
	assert.EqualValues(t, 1, stats.FailedTasks)
}

func TestProcessParallelSync(t *testing.T) {
	o, err := New(4, nil)
	require.NoError(t, err)

	items := []int{1, 2, 3, 4, 5}
	results, err := ProcessParallelSync(context.Background(), o, items, func(i int) (int, error) {
		return i * i, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 9, 16, 25}, results)
}

func TestGenerateStableIDDeterministic(t *testing.T) {
	o, err := New(2, nil)
	require.NoError(t, err)

	a := o.GenerateStableID("content", "task")
	b := o.GenerateStableID("content", "task")
	assert.Equal(t, a, b)
	assert.Regexp(t, `^task:[0-9a-f]{16}$`, a)
}

func TestBatchGenerateIDs(t *testing.T) {
	o, err := New(2, nil)
	require.NoError(t, err)

	ids := o.BatchGenerateIDs([]string{"a", "b"}, "task")
	require.Len(t, ids, 2)
	assert.Equal(t, o.GenerateStableID("a", "task"), ids[0])
}

func TestRunStagesLogsAllSixStages(t *testing.T) {
	o, err := New(2, nil)
	require.NoError(t, err)

	var seen []Stage
	err = o.RunStages(context.Background(), func(ctx context.Context, stage Stage) error {
		seen = append(seen, stage)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []Stage{StageInit, StageGraph, StagePlan, StageDeterminismCheck, StageExecute, StageEmit}, seen)

	events := o.GetEvents()
	require.Len(t, events, 6)
	for _, e := range events {
		assert.Equal(t, "stage completed", e.Message)
	}
}

func TestRunStagesStopsOnFirstFailure(t *testing.T) {
	o, err := New(2, nil)
	require.NoError(t, err)

	err = o.RunStages(context.Background(), func(ctx context.Context, stage Stage) error {
		if stage == StagePlan {
			return errors.New("plan failed")
		}
		return nil
	})
	require.Error(t, err)

	events := o.GetEvents()
	// Init, Graph completed; Plan failed; later stages never ran.
	require.Len(t, events, 3)
	assert.Equal(t, StagePlan, events[2].Stage)
}

func TestShutdownIsIdempotent(t *testing.T) {
	o, err := New(2, nil)
	require.NoError(t, err)
	assert.NoError(t, o.Shutdown())
	assert.NoError(t, o.Shutdown())
}
