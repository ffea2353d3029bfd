package cache

import (
	"log/slog"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// GCRunner periodically invokes badger's value-log garbage collection on
// an interval. It supplements, and does not replace, the explicit
// Compact operation: Compact triggers a full-range compaction on
// request, GCRunner reclaims value-log space in the background.
type GCRunner struct {
	db       *DB
	interval time.Duration
	ratio    float64
	logger   *slog.Logger

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewGCRunner validates its arguments and returns a GCRunner that has
// not yet been started.
func NewGCRunner(db *DB, interval time.Duration, ratio float64, logger *slog.Logger) (*GCRunner, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if interval <= 0 {
		return nil, ErrInvalidGCInterval
	}
	if ratio <= 0 || ratio >= 1 {
		return nil, ErrInvalidGCRatio
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GCRunner{
		db:       db,
		interval: interval,
		ratio:    ratio,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start begins the background GC loop. It is safe to call Stop without
// ever having observed a completed cycle.
func (r *GCRunner) Start() {
	go r.loop()
}

func (r *GCRunner) loop() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			// RunValueLogGC returns badger.ErrNoRewrite when there is
			// nothing to reclaim; that is expected steady-state, not a
			// failure worth logging at Warn.
			for {
				err := r.db.badger.RunValueLogGC(r.ratio)
				if err == nil {
					continue
				}
				if err != badger.ErrNoRewrite {
					r.logger.Warn("value log gc cycle failed", "error", err)
				}
				break
			}
		}
	}
}

// Stop signals the GC loop to exit and waits for it to do so. Repeated
// calls are safe: the stop signal is sent only once.
func (r *GCRunner) Stop() {
	r.once.Do(func() {
		close(r.stop)
	})
	<-r.done
}
