// Package query provides a keyed fetch orchestrator: concurrent
// requests for the same key are coalesced into a single upstream call,
// and completed results are served from memory until they go stale.
package query

import (
	"context"
	"sync"
	"time"

	"github.com/richxcame/busymap/pkg/logger"
	"go.uber.org/zap"
)

// Status describes the lifecycle of a cached entry.
type Status int

const (
	StatusPending Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FetchFunc loads the value for a key from upstream.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type entry[T any] struct {
	value     T
	err       error
	fetchedAt time.Time
	status    Status
	done      chan struct{}
}

// Orchestrator coalesces and caches keyed fetches. Entries are never
// mutated after completion; a stale or failed entry is superseded by a
// fresh one on the next query.
type Orchestrator[T any] struct {
	staleAfter   time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	mu      sync.Mutex
	entries map[string]*entry[T]
}

// Option configures an Orchestrator.
type Option[T any] func(*Orchestrator[T])

// WithClock substitutes the time source, used by tests to control staleness.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(o *Orchestrator[T]) {
		o.now = now
	}
}

// New creates an orchestrator. Values older than staleAfter are
// refetched on the next query; each upstream call gets its own context
// bounded by fetchTimeout so an abandoning caller cannot cancel work
// that followers still wait on.
func New[T any](staleAfter, fetchTimeout time.Duration, opts ...Option[T]) *Orchestrator[T] {
	o := &Orchestrator[T]{
		staleAfter:   staleAfter,
		fetchTimeout: fetchTimeout,
		now:          time.Now,
		entries:      make(map[string]*entry[T]),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Query returns the value for key, fetching it if no fresh entry
// exists. The first caller for a key becomes the leader and triggers
// the fetch; concurrent callers wait on the same entry, so at most one
// upstream call runs per key.
func (o *Orchestrator[T]) Query(ctx context.Context, key string, fetch FetchFunc[T]) (T, error) {
	o.mu.Lock()

	if e, ok := o.entries[key]; ok {
		switch e.status {
		case StatusPending:
			o.mu.Unlock()
			return o.wait(ctx, e)
		case StatusReady:
			if o.now().Sub(e.fetchedAt) < o.staleAfter {
				value, err := e.value, e.err
				o.mu.Unlock()
				return value, err
			}
			// stale, fall through to supersede
		case StatusFailed:
			// failed entries are always refetched
		}
	}

	e := &entry[T]{
		status: StatusPending,
		done:   make(chan struct{}),
	}
	o.entries[key] = e
	o.mu.Unlock()

	go o.runFetch(key, e, fetch)

	return o.wait(ctx, e)
}

// Snapshot is the observable state of a cached entry.
type Snapshot[T any] struct {
	Value     T
	Err       error
	FetchedAt time.Time
	Status    Status
}

// Peek returns the cached state for key without triggering a fetch.
func (o *Orchestrator[T]) Peek(key string) (Snapshot[T], bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.entries[key]
	if !ok {
		return Snapshot[T]{}, false
	}
	return Snapshot[T]{
		Value:     e.value,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
		Status:    e.status,
	}, true
}

// Invalidate drops the entry for key so the next query refetches.
// Pending entries are left alone, their waiters still get a result.
func (o *Orchestrator[T]) Invalidate(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if e, ok := o.entries[key]; ok && e.status != StatusPending {
		delete(o.entries, key)
	}
}

func (o *Orchestrator[T]) runFetch(key string, e *entry[T], fetch FetchFunc[T]) {
	ctx, cancel := context.WithTimeout(context.Background(), o.fetchTimeout)
	defer cancel()

	value, err := fetch(ctx)

	o.mu.Lock()
	e.value = value
	e.err = err
	e.fetchedAt = o.now()
	if err != nil {
		e.status = StatusFailed
	} else {
		e.status = StatusReady
	}
	o.mu.Unlock()

	close(e.done)

	if err != nil {
		logger.Debug("keyed fetch failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator[T]) wait(ctx context.Context, e *entry[T]) (T, error) {
	select {
	case <-e.done:
		return e.value, e.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
