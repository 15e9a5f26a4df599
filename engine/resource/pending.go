package resource

import "sync"

// Pending is the shared handle on the outcome of a load. Every requester of a key that is in flight
// receives the same Pending and observes the same result. A Pending resolves exactly once.
type Pending[T any] struct {
	key   string
	done  chan struct{}
	once  sync.Once
	value *T
}

// newPending creates an unresolved Pending for key.
func newPending[T any](key string) *Pending[T] {
	return &Pending[T]{
		key:  key,
		done: make(chan struct{}),
	}
}

// Resolved returns a Pending that is already resolved to v. Cache hits are reported this way so callers
// handle hits and in-flight loads uniformly.
//
// Parameters:
//   - key: the resolved resource key
//   - v: the resource
//
// Returns:
//   - *Pending[T]: a resolved handle
func Resolved[T any](key string, v *T) *Pending[T] {
	p := newPending[T](key)
	p.resolve(v)
	return p
}

// Derive returns a Pending that resolves to fn applied to the result of p once p resolves. fn runs on its
// own goroutine, or immediately when p has already resolved.
//
// Parameters:
//   - p: the source handle
//   - fn: maps the source result, may receive nil
//
// Returns:
//   - *Pending[T]: a handle with the same key
func Derive[T any](p *Pending[T], fn func(*T) *T) *Pending[T] {
	if v, ok := p.Value(); ok {
		return Resolved(p.key, fn(v))
	}

	d := newPending[T](p.key)
	go func() {
		d.resolve(fn(p.Wait()))
	}()
	return d
}

// Key returns the resolved resource key the Pending belongs to.
//
// Returns:
//   - string: the resource key
func (p *Pending[T]) Key() string {
	return p.key
}

// Wait blocks until the load resolves and returns its result. The result is nil when the load failed and
// the owner configured no fallback.
//
// Returns:
//   - *T: the loaded resource, the fallback, or nil
func (p *Pending[T]) Wait() *T {
	<-p.done
	return p.value
}

// Done returns a channel closed when the load resolves.
//
// Returns:
//   - <-chan struct{}: the completion channel
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Ready reports whether the load has resolved, without blocking.
//
// Returns:
//   - bool: true once resolved
func (p *Pending[T]) Ready() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Value returns the result without blocking.
//
// Returns:
//   - *T: the result, nil while unresolved
//   - bool: true once resolved
func (p *Pending[T]) Value() (*T, bool) {
	if !p.Ready() {
		return nil, false
	}
	return p.value, true
}

// resolve publishes v and releases every waiter. Later calls are ignored.
func (p *Pending[T]) resolve(v *T) {
	p.once.Do(func() {
		p.value = v
		close(p.done)
	})
}
