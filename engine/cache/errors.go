package cache

import "errors"

// ErrInvalidCachePath is returned by Open when a persistent (non-in-memory)
// configuration names no directory. This error kind is fatal to the
// component: construction fails outright.
var ErrInvalidCachePath = errors.New("cache: path is required for persistent mode")

// ErrContextCancelled wraps a transaction aborted because its context was
// already done before the transaction began.
var ErrContextCancelled = errors.New("cache: context cancelled")

// ErrNilDB is returned by NewGCRunner when given a nil database handle.
var ErrNilDB = errors.New("cache: db must not be nil")

// ErrInvalidGCInterval is returned by NewGCRunner for a non-positive interval.
var ErrInvalidGCInterval = errors.New("cache: interval must be positive")

// ErrInvalidGCRatio is returned by NewGCRunner for a ratio outside (0, 1).
var ErrInvalidGCRatio = errors.New("cache: ratio must be between 0 and 1")
