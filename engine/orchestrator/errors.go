package orchestrator

import "errors"

// ErrRuntimeInit wraps a failure constructing the orchestrator's task
// executor. This error kind is fatal to the component.
var ErrRuntimeInit = errors.New("orchestrator: failed to initialize task executor")

// ErrNilTask is returned when ExecuteParallel or ProcessParallelSync is
// given a nil task/mapper function.
var ErrNilTask = errors.New("orchestrator: task function must not be nil")
