package cache

import "time"

// Config configures the underlying badger key-value store.
//
// A zero-value Config is not directly usable in persistent mode (Path is
// required); use DefaultConfig or InMemoryConfig as a starting point.
type Config struct {
	// InMemory, when true, opens badger in pure in-memory mode and Path
	// is ignored. Useful for tests and ephemeral builds.
	InMemory bool

	// Path is the directory badger stores its LSM files in. Required
	// unless InMemory is true. Created if it does not exist.
	Path string

	// SyncWrites forces an fsync on every write when true. The spec for
	// this cache recommends leaving this false: lost tail writes after a
	// crash merely force a rebuild, which is an acceptable trade-off for
	// write throughput.
	SyncWrites bool

	// NumVersionsToKeep bounds how many historical versions of a key
	// badger retains before compaction reclaims them. A build cache has
	// no use for history, so this is kept low.
	NumVersionsToKeep int

	// GCInterval is the value-log GC interval for a GCRunner. Open does
	// not read it and starts no GCRunner; a caller that wants periodic GC
	// passes it to NewGCRunner and calls Start. Zero means no GC runner
	// (NewGCRunner rejects a zero interval); Compact remains available
	// as an explicit, caller-triggered operation.
	GCInterval time.Duration

	// GCDiscardRatio is the badger RunValueLogGC discard ratio a caller
	// passes to NewGCRunner. Open does not read it.
	GCDiscardRatio float64
}

// DefaultConfig returns settings suited to a persistent, on-disk cache:
// fsync disabled (per SyncWrites' doc comment above), one version kept,
// and a 5-minute GC interval for a caller-started GCRunner.
func DefaultConfig() Config {
	return Config{
		InMemory:          false,
		SyncWrites:        false,
		NumVersionsToKeep: 1,
		GCInterval:        5 * time.Minute,
		GCDiscardRatio:    0.5,
	}
}

// InMemoryConfig returns settings suited to an ephemeral, in-memory
// cache: no fsync (nothing to sync), zero GC interval (the store is
// discarded with the process).
func InMemoryConfig() Config {
	return Config{
		InMemory:   true,
		SyncWrites: false,
		GCInterval: 0,
	}
}
