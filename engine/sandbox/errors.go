package sandbox

import "errors"

// ErrInvalidWasm is returned by VerifyPlugin/Execute when the module
// bytes fail validation or compilation.
var ErrInvalidWasm = errors.New("sandbox: invalid wasm module")

// ErrPluginInstantiationFailed is returned when a validated module
// fails to instantiate against the sandbox's import surface.
var ErrPluginInstantiationFailed = errors.New("sandbox: plugin instantiation failed")

// ErrPluginMissingEntry is returned when neither "transform" nor "main"
// is exported with signature () -> ().
var ErrPluginMissingEntry = errors.New("sandbox: plugin must export 'transform' or 'main'")

// ErrPluginTrap wraps a guest trap (covers timeout, oom, unreachable,
// divide-by-zero, and similar WebAssembly traps).
var ErrPluginTrap = errors.New("sandbox: plugin trapped")

// ErrPluginPanic is returned when the isolation goroutine recovers a
// panic.
var ErrPluginPanic = errors.New("sandbox: stack overflow or panic detected")
