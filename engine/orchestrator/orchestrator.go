// Package orchestrator implements the parallel task dispatcher: bounded
// goroutine fan-out, an append-only event log, and deterministic stable
// ID minting.
//
// # Thread Safety
//
// Orchestrator is safe for concurrent use. The event log is guarded by
// a single mutex (spec.md: "one writer at a time is acceptable; the
// list is not lock-free"). Task statistics are updated with atomic
// operations.
package orchestrator

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nexxo-build/nexxocore/engine/fingerprint"
)

// Stats is the orchestrator's accumulated task bookkeeping.
type Stats struct {
	TotalTasks      int64
	CompletedTasks  int64
	FailedTasks     int64
	TotalDurationMS int64
	Parallelism     int
}

// Orchestrator owns a bounded-parallelism goroutine dispatcher built on
// errgroup, an append-only event log, and per-instance stable-ID
// minting helpers.
type Orchestrator struct {
	parallelism int
	sessionID   string
	logger      *slog.Logger

	eventsMu sync.Mutex
	events   []BuildEvent

	totalTasks      atomic.Int64
	completedTasks  atomic.Int64
	failedTasks     atomic.Int64
	totalDurationMS atomic.Int64
}

// New creates an Orchestrator with the given parallelism. A
// non-positive parallelism defaults to runtime.GOMAXPROCS(0), matching
// spec.md's "default width = available_parallelism".
func New(parallelism int, logger *slog.Logger) (*Orchestrator, error) {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		parallelism: parallelism,
		sessionID:   uuid.NewString()[:12],
		logger:      logger,
	}, nil
}

// LogEvent appends a BuildEvent. The timestamp is captured at append.
func (o *Orchestrator) LogEvent(stage Stage, message string, duration *time.Duration, metadata *string) {
	var durationMS *float64
	if duration != nil {
		ms := float64(duration.Microseconds()) / 1000.0
		durationMS = &ms
	}

	evt := BuildEvent{
		Stage:       stage,
		Message:     message,
		TimestampMS: time.Now().UnixMilli(),
		DurationMS:  durationMS,
		Metadata:    metadata,
		SessionID:   o.sessionID,
	}

	o.eventsMu.Lock()
	o.events = append(o.events, evt)
	o.eventsMu.Unlock()

	o.logger.Debug("build event",
		slog.String("stage", stage.String()),
		slog.String("message", message),
		slog.String("session_id", o.sessionID),
	)
}

// GetEvents returns a copy of the event log in insertion order.
func (o *Orchestrator) GetEvents() []BuildEvent {
	o.eventsMu.Lock()
	defer o.eventsMu.Unlock()

	out := make([]BuildEvent, len(o.events))
	copy(out, o.events)
	return out
}

// ClearEvents discards the event log.
func (o *Orchestrator) ClearEvents() {
	o.eventsMu.Lock()
	o.events = nil
	o.eventsMu.Unlock()
}

// ExecuteParallel submits n independent tasks to the bounded dispatcher
// and awaits them all. Individual task failure does not abort
// siblings: every task runs to completion regardless of others'
// outcomes, and the per-task error (if any) is returned in errs[i].
func (o *Orchestrator) ExecuteParallel(ctx context.Context, n int, task func(ctx context.Context, i int) error) (errs []error, err error) {
	if task == nil {
		return nil, ErrNilTask
	}

	start := time.Now()
	errs = make([]error, n)

	var g errgroup.Group
	g.SetLimit(o.parallelism)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			errs[i] = task(ctx, i)
			return nil
		})
	}
	_ = g.Wait() // inner goroutines never return a non-nil error themselves

	var failed int64
	for _, e := range errs {
		if e != nil {
			failed++
		}
	}
	completed := int64(n) - failed

	o.totalTasks.Add(int64(n))
	o.completedTasks.Add(completed)
	o.failedTasks.Add(failed)
	o.totalDurationMS.Add(time.Since(start).Milliseconds())

	return errs, nil
}

// ProcessParallelSync is a CPU-bound data-parallel map over items using
// the orchestrator's parallelism width. It cannot be a method because
// Go methods cannot introduce their own type parameters; it accepts the
// Orchestrator whose width it borrows and runs on its own errgroup.
func ProcessParallelSync[T, R any](ctx context.Context, o *Orchestrator, items []T, fn func(T) (R, error)) ([]R, error) {
	if fn == nil {
		return nil, ErrNilTask
	}

	results := make([]R, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			r, err := fn(item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// GenerateStableID mints a deterministic "<prefix>:<16-hex>" identifier
// over content.
func (o *Orchestrator) GenerateStableID(content, prefix string) string {
	return fingerprint.StableID(content, prefix)
}

// BatchGenerateIDs mints a GenerateStableID for each element of items
// using the same prefix, fanned out across the dispatch width.
func (o *Orchestrator) BatchGenerateIDs(items []string, prefix string) []string {
	ids, _ := ProcessParallelSync(context.Background(), o, items, func(item string) (string, error) {
		return fingerprint.StableID(item, prefix), nil
	})
	return ids
}

// GetStats returns the orchestrator's accumulated task statistics.
func (o *Orchestrator) GetStats() Stats {
	return Stats{
		TotalTasks:      o.totalTasks.Load(),
		CompletedTasks:  o.completedTasks.Load(),
		FailedTasks:     o.failedTasks.Load(),
		TotalDurationMS: o.totalDurationMS.Load(),
		Parallelism:     o.parallelism,
	}
}

// Parallelism returns the configured dispatch width.
func (o *Orchestrator) Parallelism() int {
	return o.parallelism
}

// Shutdown releases orchestrator resources. The Go errgroup-based
// dispatcher holds no persistent resources beyond in-flight
// goroutines, so this is a documentation point rather than an
// operation with observable side effects; it exists so callers have a
// single place to add teardown logic, matching spec.md's operation
// table.
func (o *Orchestrator) Shutdown() error {
	o.logger.Debug("orchestrator shutdown", slog.String("session_id", o.sessionID))
	return nil
}

// RunStages walks the six canonical build stages in order, invoking fn
// for each and logging one Init/Graph/Plan/DeterminismCheck/Execute/Emit
// transition event after it completes or fails. It gives spec.md §2's stage-by-stage data
// flow narrative a concrete entry point without inventing new
// semantics (see SPEC_FULL.md §4.D).
func (o *Orchestrator) RunStages(ctx context.Context, fn func(ctx context.Context, stage Stage) error) error {
	stages := []Stage{StageInit, StageGraph, StagePlan, StageDeterminismCheck, StageExecute, StageEmit}

	for _, stage := range stages {
		start := time.Now()
		err := fn(ctx, stage)
		duration := time.Since(start)

		if err != nil {
			msg := err.Error()
			o.LogEvent(stage, "stage failed: "+msg, &duration, nil)
			return err
		}
		o.LogEvent(stage, "stage completed", &duration, nil)
	}
	return nil
}
