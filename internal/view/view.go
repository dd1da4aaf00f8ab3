// Package view holds client-side state for presentation layers: request
// generations so only the newest fetch lands, an optimistic like toggle, and
// list/collection views built on them.
package view

import (
	"context"
	"sync"
)

// Generation issues increasing tokens. Only the most recently issued token is
// current, so a slow response cannot overwrite a newer one.
type Generation struct {
	mu     sync.Mutex
	latest uint64
}

// Next issues a new token, making every earlier one stale.
func (g *Generation) Next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest++
	return g.latest
}

// Current reports whether token is still the latest issued.
func (g *Generation) Current(token uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return token == g.latest
}

// Loader keeps the result of the latest issued fetch.
type Loader[T any] struct {
	gen Generation

	mu     sync.RWMutex
	value  T
	err    error
	loaded bool
}

// Load runs fetch and stores its result unless another Load was issued in the
// meantime. applied reports whether the result was stored. A failed fetch
// keeps the previous value and records the error.
func (l *Loader[T]) Load(ctx context.Context, fetch func(context.Context) (T, error)) (value T, applied bool, err error) {
	token := l.gen.Next()
	value, err = fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.gen.Current(token) {
		return value, false, err
	}
	l.err = err
	if err == nil {
		l.value = value
		l.loaded = true
	}
	return value, true, err
}

// Value returns the stored value and the error of the latest applied load.
func (l *Loader[T]) Value() (T, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.err
}

// Loaded reports whether any load has succeeded.
func (l *Loader[T]) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}
