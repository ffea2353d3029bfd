package orchestrator

import (
	"context"
	"fmt"

	"github.com/nexxo-build/nexxocore/pkg/logging"
)

// EventExporter adapts pkg/logging's LogExporter extension point onto an
// Orchestrator's own event log. A logger configured with one interleaves
// its Debug/Info/Warn/Error calls into GetEvents() alongside the
// stage-transition events RunStages already records, so a single event
// stream captures both pipeline progress and ad-hoc log output from
// code running under that stage.
//
// Entries are always recorded under StageExecute: EventExporter has no
// way to know which stage was active when the log call was made, and
// plugin dispatch (the one stage that runs caller-supplied code) is the
// case this is for.
type EventExporter struct {
	o *Orchestrator
}

// NewEventExporter returns a LogExporter backed by o.
func NewEventExporter(o *Orchestrator) *EventExporter {
	return &EventExporter{o: o}
}

// Export appends entry to o's event log.
func (e *EventExporter) Export(ctx context.Context, entry logging.LogEntry) error {
	e.o.LogEvent(StageExecute, fmt.Sprintf("[%s] %s", entry.Level, entry.Message), nil, nil)
	return nil
}

// Flush is a no-op: LogEvent above already appends synchronously.
func (e *EventExporter) Flush(ctx context.Context) error { return nil }

// Close is a no-op: EventExporter holds no resources of its own.
func (e *EventExporter) Close() error { return nil }

var _ logging.LogExporter = (*EventExporter)(nil)
