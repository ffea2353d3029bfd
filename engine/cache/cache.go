// Package cache implements the content-addressed persistent build cache:
// a durable key→value store with batching, target-scoped clear,
// compaction, and hit/miss accounting, backed by an embedded
// log-structured merge-tree (badger).
//
// # Ownership Model
//
// A Cache owns its underlying DB handle exclusively; Close releases it.
// Concurrent handles to the same on-disk directory from independent
// processes are not supported (badger itself takes an exclusive lock).
//
// # Thread Safety
//
// Cache is safe for concurrent use from multiple goroutines. Hit/miss
// counters use relaxed atomic increments: they are observability, not
// correctness, so the weakest ordering that preserves monotonic totals
// is acceptable.
package cache

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("buildcore.cache")
	meter  = otel.Meter("buildcore.cache")
)

// Cache is the content-addressed persistent build cache.
type Cache struct {
	db *DB

	hits   atomic.Uint64
	misses atomic.Uint64

	hitCounter   metric.Int64Counter
	missCounter  metric.Int64Counter
	getLatency   metric.Float64Histogram
}

// New wraps an already-open DB as a Cache. Most callers should use
// OpenCache instead, which also opens the underlying store.
func New(db *DB) *Cache {
	c := &Cache{db: db}
	c.hitCounter, _ = meter.Int64Counter("cache_hits_total",
		metric.WithDescription("Total number of cache hits"))
	c.missCounter, _ = meter.Int64Counter("cache_misses_total",
		metric.WithDescription("Total number of cache misses"))
	c.getLatency, _ = meter.Float64Histogram("cache_get_duration_seconds",
		metric.WithDescription("Duration of cache get operations"), metric.WithUnit("s"))
	return c
}

// OpenCache opens the underlying store per cfg and wraps it as a Cache.
func OpenCache(cfg Config) (*Cache, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// Get returns the value for key if present. A miss (including any
// underlying I/O error) is folded into a false return and increments
// the miss counter, per this component's error-handling design: lookup
// failures never propagate as errors.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	ctx, span := tracer.Start(ctx, "cache.Get", trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	start := time.Now()
	defer func() {
		if c.getLatency != nil {
			c.getLatency.Record(ctx, time.Since(start).Seconds())
		}
	}()

	var value string
	found := false

	err := c.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			found = true
			return nil
		})
	})

	if err != nil || !found {
		c.misses.Add(1)
		if c.missCounter != nil {
			c.missCounter.Add(ctx, 1)
		}
		return "", false
	}

	c.hits.Add(1)
	if c.hitCounter != nil {
		c.hitCounter.Add(ctx, 1)
	}
	return value, true
}

// Set durably writes key→value in a single-key transaction.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	_, span := tracer.Start(ctx, "cache.Set", trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	return c.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

// Delete idempotently removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Has reports whether key exists, without affecting hit/miss counters
// (existence checks are not cache-effectiveness signal).
func (c *Cache) Has(ctx context.Context, key string) bool {
	found := false
	_ = c.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		found = err == nil
		return nil
	})
	return found
}

// BatchSet atomically writes every pair in entries: either all keys
// become visible, or none do.
func (c *Cache) BatchSet(ctx context.Context, entries map[string]string) error {
	_, span := tracer.Start(ctx, "cache.BatchSet", trace.WithAttributes(attribute.Int("cache.batch_size", len(entries))))
	defer span.End()

	return c.db.WithTxn(ctx, func(txn *badger.Txn) error {
		for k, v := range entries {
			if err := txn.Set([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ClearTarget deletes every key whose second colon-delimited segment
// equals target, returning the count removed. Keys whose schema does
// not carry a target segment (e.g. "input:<path>:<hash>",
// "graph:<graph-hash>") are not reachable by this operation — that is
// the documented, intentional contract (see DESIGN.md).
func (c *Cache) ClearTarget(ctx context.Context, target string) (int, error) {
	_, span := tracer.Start(ctx, "cache.ClearTarget", trace.WithAttributes(attribute.String("cache.target", target)))
	defer span.End()

	var removed int
	err := c.db.WithTxn(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		var toDelete [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if keyMatchesTarget(string(key), target) {
				toDelete = append(toDelete, key)
			}
		}

		for _, key := range toDelete {
			if err := txn.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	span.SetAttributes(attribute.Int("cache.removed", removed))
	return removed, nil
}

// keyMatchesTarget reports whether the second colon-delimited segment
// of key equals target.
func keyMatchesTarget(key, target string) bool {
	parts := strings.SplitN(key, ":", 3)
	return len(parts) >= 2 && parts[1] == target
}

// ClearAll deletes every key via a full-scan batch delete.
func (c *Cache) ClearAll(ctx context.Context) error {
	return c.db.WithTxn(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		var toDelete [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			toDelete = append(toDelete, it.Item().KeyCopy(nil))
		}
		for _, key := range toDelete {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Stats is the set of cache statistics reported by GetStats.
type Stats struct {
	TotalEntries int
	Hits         uint64
	Misses       uint64
	HitRate      float64
	SizeBytes    int64
}

// GetStats returns current cache statistics. TotalEntries and SizeBytes
// require a full scan / LSM size query and are therefore O(entries).
func (c *Cache) GetStats(ctx context.Context) Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = 100 * float64(hits) / float64(total)
	}

	var totalEntries int
	_ = c.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			totalEntries++
		}
		return nil
	})

	lsmSize, vlogSize := c.db.badger.Size()

	return Stats{
		TotalEntries: totalEntries,
		Hits:         hits,
		Misses:       misses,
		HitRate:      hitRate,
		SizeBytes:    lsmSize + vlogSize,
	}
}

// Compact requests a full-range compaction of the underlying store.
func (c *Cache) Compact(ctx context.Context) error {
	_, span := tracer.Start(ctx, "cache.Compact")
	defer span.End()
	return c.db.badger.Flatten(1)
}

// Close releases the underlying store. Subsequent calls on this Cache
// are undefined.
func (c *Cache) Close() error {
	return c.db.Close()
}
