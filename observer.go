// Package observer is a local publish/subscribe dispatcher. Its
// distinguishing capability is that two or more observers can be bound
// together so that events raised on one are re-raised on the other, in a
// configurable direction, without ever causing an infinite relay loop:
// every emit passes through a bounded recency cache keyed on the event's
// unique id, so an event echoed back by a bound peer is recognized and
// dropped.
package observer

import (
	"sync"

	"github.com/google/uuid"
)

// Observer composes a listener registry, a recency cache of event ids and
// a relay binding table. Delivery is synchronous and reentrant: listeners
// run inline on the emitting call stack and may themselves emit, register
// or unbind.
type Observer struct {
	id  uuid.UUID
	log Logger

	registry *registry

	cacheLock sync.Mutex
	cache     *idCache

	bindLock sync.Mutex
	bindings map[*Observer]*binding
}

type (
	// Option configures an Observer at construction.
	Option func(*Observer)
)

// WithLogger sets the logger used for debug output. Defaults to a silent
// logger.
func WithLogger(log Logger) Option {
	return func(o *Observer) {
		o.log = log
	}
}

// WithIDCacheLimit sets the initial id-cache capacity. Non-positive means
// unbounded.
func WithIDCacheLimit(limit int) Option {
	return func(o *Observer) {
		o.cache = newIDCache(limit)
	}
}

// New creates an Observer with an empty registry, no bindings and an id
// cache bounded at DefaultIDCacheLimit.
func New(opts ...Option) *Observer {
	o := &Observer{
		id:       uuid.New(),
		log:      noopLogger{},
		registry: newRegistry(),
		cache:    newIDCache(DefaultIDCacheLimit),
		bindings: make(map[*Observer]*binding),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.WithField("observer", o.id.String())
	return o
}

// ID returns the observer's own identity.
func (o *Observer) ID() uuid.UUID {
	return o.id
}

// Emit delivers ev to every listener registered for its type and reports
// whether at least one listener ran. An event whose id was already
// processed is dropped without dispatch, without a wrapper notification
// and without relaying; this is what keeps bound observers from relaying
// in cycles. Each delivered event additionally raises an EmitEvent under
// TypeEmit wrapping it.
func (o *Observer) Emit(ev Event) bool {
	if ev == nil {
		return false
	}

	o.cacheLock.Lock()
	if o.cache.contains(ev.ID()) {
		o.cacheLock.Unlock()
		o.log.Debugf("suppressed duplicate %s", ev)
		return false
	}
	o.cache.insert(ev.ID())
	o.cacheLock.Unlock()

	delivered := o.registry.dispatch(ev.Type().Key(), ev)

	// Wrapper events are not wrapped again; the notification stage would
	// otherwise never terminate.
	if _, isWrapper := ev.(*EmitEvent); !isWrapper {
		o.Emit(NewEmitEvent(ev))
	}

	return delivered
}

// On registers fn for events matching target, which is either a Type
// descriptor or a live Event instance.
func (o *Observer) On(target any, fn Listener) error {
	return o.register(target, fn, false, false)
}

// Once registers fn to fire at most once for target, after which the
// registration is dropped.
func (o *Observer) Once(target any, fn Listener) error {
	return o.register(target, fn, true, false)
}

// PrependListener registers fn ahead of every listener currently held for
// target.
func (o *Observer) PrependListener(target any, fn Listener) error {
	return o.register(target, fn, false, true)
}

// PrependOnceListener registers fn ahead of every listener currently held
// for target, firing at most once.
func (o *Observer) PrependOnceListener(target any, fn Listener) error {
	return o.register(target, fn, true, true)
}

func (o *Observer) register(target any, fn Listener, once, prepend bool) error {
	if fn == nil {
		return wrapErrRegistration(ErrNilListener, target)
	}
	key, err := typeKeyOf(target)
	if err != nil {
		return wrapErrRegistration(err, target)
	}
	o.registry.add(key, fn, once, prepend)
	return nil
}

// Off removes the first registration for target whose callback is fn.
// No-op when fn is not registered.
func (o *Observer) Off(target any, fn Listener) error {
	if fn == nil {
		return nil
	}
	key, err := typeKeyOf(target)
	if err != nil {
		return err
	}
	o.registry.remove(key, fn)
	return nil
}

// RemoveListener is an alias for Off.
func (o *Observer) RemoveListener(target any, fn Listener) error {
	return o.Off(target, fn)
}

// RemoveAllListeners clears every registration for the given targets, or
// for every type when no target is given.
func (o *Observer) RemoveAllListeners(targets ...any) error {
	if len(targets) == 0 {
		o.registry.removeAll("")
		return nil
	}
	for _, target := range targets {
		key, err := typeKeyOf(target)
		if err != nil {
			return err
		}
		o.registry.removeAll(key)
	}
	return nil
}

// HasListener reports whether fn is currently registered for target.
func (o *Observer) HasListener(target any, fn Listener) (bool, error) {
	key, err := typeKeyOf(target)
	if err != nil {
		return false, err
	}
	return fn != nil && o.registry.has(key, fn), nil
}

// ListenerCount returns the number of listeners registered for target.
func (o *Observer) ListenerCount(target any) (int, error) {
	key, err := typeKeyOf(target)
	if err != nil {
		return 0, err
	}
	return o.registry.count(key), nil
}

// IDCacheLimit returns the configured id-cache capacity, 0 meaning
// unbounded.
func (o *Observer) IDCacheLimit() int {
	o.cacheLock.Lock()
	defer o.cacheLock.Unlock()

	return o.cache.getLimit()
}

// SetIDCacheLimit changes the id-cache capacity. Non-positive removes the
// bound; shrinking below the current size evicts oldest ids immediately.
func (o *Observer) SetIDCacheLimit(limit int) {
	o.cacheLock.Lock()
	defer o.cacheLock.Unlock()

	o.cache.setLimit(limit)
}

// IDCacheSize returns the number of ids currently held.
func (o *Observer) IDCacheSize() int {
	o.cacheLock.Lock()
	defer o.cacheLock.Unlock()

	return o.cache.size()
}

// ClearIDCache forgets every cached id. Previously emitted events become
// deliverable again.
func (o *Observer) ClearIDCache() {
	o.cacheLock.Lock()
	defer o.cacheLock.Unlock()

	o.cache.clear()
}
