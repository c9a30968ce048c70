// Package memo wraps an asynchronous producer so that identical arguments
// are fetched once per cache lifetime.
//
// Policy:
//   - concurrent calls with the same key share one pending producer call
//   - successful results are kept until Reset, there is no eviction
//   - failures are returned to every caller that shared the call and are
//     not stored, the next call runs the producer again
package memo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/GoPolymarket/vaultscope/internal/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Producer fetches the value for one argument.
type Producer[A, T any] func(ctx context.Context, arg A) (T, error)

type Func[A, T any] struct {
	name    string
	produce Producer[A, T]
	keyFn   func(A) string

	mu      sync.RWMutex
	results map[string]T
	flight  singleflight.Group
}

type Option[A, T any] func(*Func[A, T])

// WithKey replaces the default key derivation (JSON form of the argument).
func WithKey[A, T any](fn func(A) string) Option[A, T] {
	return func(f *Func[A, T]) {
		if fn != nil {
			f.keyFn = fn
		}
	}
}

// New returns a memoized wrapper around produce. name labels the cache in metrics.
func New[A, T any](name string, produce Producer[A, T], opts ...Option[A, T]) *Func[A, T] {
	f := &Func[A, T]{
		name:    name,
		produce: produce,
		keyFn:   DefaultKey[A],
		results: make(map[string]T),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DefaultKey serializes the argument to JSON. Values that cannot be
// marshaled fall back to their Go-syntax representation.
func DefaultKey[A any](arg A) string {
	b, err := json.Marshal(arg)
	if err != nil {
		return fmt.Sprintf("%#v", arg)
	}
	return string(b)
}

// Call returns the cached value for arg, joins an in-flight call for the
// same key, or starts a new one.
//
// The producer runs detached from ctx cancellation so that a caller giving
// up does not fail the other callers sharing the call. Call itself returns
// ctx.Err() as soon as ctx is done.
func (f *Func[A, T]) Call(ctx context.Context, arg A) (T, error) {
	key := f.keyFn(arg)
	if v, ok := f.lookup(key); ok {
		metrics.MemoRequests.WithLabelValues(f.name, "hit").Inc()
		return v, nil
	}

	ch := f.flight.DoChan(key, func() (interface{}, error) {
		if v, ok := f.lookup(key); ok {
			return v, nil
		}
		v, err := f.produce(context.WithoutCancel(ctx), arg)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.results[key] = v
		f.mu.Unlock()
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.MemoRequests.WithLabelValues(f.name, "shared").Inc()
		} else {
			metrics.MemoRequests.WithLabelValues(f.name, "miss").Inc()
		}
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

func (f *Func[A, T]) lookup(key string) (T, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.results[key]
	return v, ok
}

// Len reports the number of stored results.
func (f *Func[A, T]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.results)
}

// Reset drops every stored result. In-flight calls still complete and
// store their value.
func (f *Func[A, T]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = make(map[string]T)
}
