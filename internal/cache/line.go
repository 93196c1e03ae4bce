package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Line is a single TTL-bounded cached value. Concurrent misses share one fetch,
// and a fetch that started before Invalidate never repopulates the line.
type Line[T any] struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	value     T
	fetchedAt time.Time
	valid     bool
	gen       uint64

	group singleflight.Group
}

func NewLine[T any](ttl time.Duration) *Line[T] {
	return &Line[T]{ttl: ttl, now: time.Now}
}

func (l *Line[T]) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

func (l *Line[T]) Get(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	l.mu.Lock()
	if l.valid && l.now().Sub(l.fetchedAt) < l.ttl {
		v := l.value
		l.mu.Unlock()
		return v, nil
	}
	gen := l.gen
	l.mu.Unlock()

	// Waiters share this fetch, so it must outlive the caller that started it.
	v, err, _ := l.group.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		val, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		if l.gen == gen {
			l.value = val
			l.fetchedAt = l.now()
			l.valid = true
		}
		l.mu.Unlock()
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (l *Line[T]) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.valid = false
	var zero T
	l.value = zero
}
