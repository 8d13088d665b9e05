package observer

import (
	"reflect"
	"sync"
	"sync/atomic"
)

type (
	// registration is one listener entry for a dispatch key. The tag is the
	// listener's function pointer, used for removal-by-callback. The removed
	// flag keeps a registration from firing after an earlier listener in the
	// same dispatch pass removed it.
	registration struct {
		fn      Listener
		tag     uintptr
		once    bool
		removed atomic.Bool
	}

	// registry maps dispatch keys to ordered listener registrations. It is
	// safe for concurrent use; the lock is never held while a listener runs,
	// so listeners may freely mutate the registry reentrantly.
	registry struct {
		lock      sync.Mutex
		listeners map[string][]*registration
	}
)

func listenerTag(fn Listener) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

func newRegistry() *registry {
	return &registry{
		listeners: make(map[string][]*registration),
	}
}

// add registers fn under key and returns the registration handle.
// Prepended registrations are inserted before every current entry for the
// key; everything else keeps insertion order.
func (r *registry) add(key string, fn Listener, once, prepend bool) *registration {
	reg := &registration{
		fn:   fn,
		tag:  listenerTag(fn),
		once: once,
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if prepend {
		r.listeners[key] = append([]*registration{reg}, r.listeners[key]...)
	} else {
		r.listeners[key] = append(r.listeners[key], reg)
	}
	return reg
}

// remove drops the first registration under key whose callback matches fn.
// Callbacks match by function pointer, so distinct closures built from the
// same func literal are indistinguishable here; internal callers that need
// exact identity go through removeReg instead. No-op when absent.
func (r *registry) remove(key string, fn Listener) {
	tag := listenerTag(fn)

	r.lock.Lock()
	defer r.lock.Unlock()

	regs := r.listeners[key]
	for i, reg := range regs {
		if reg.tag == tag {
			reg.removed.Store(true)
			r.listeners[key] = append(regs[:i:i], regs[i+1:]...)
			if len(r.listeners[key]) == 0 {
				delete(r.listeners, key)
			}
			return
		}
	}
}

// removeAll clears every registration for key, or for every key when key
// is empty.
func (r *registry) removeAll(key string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if key == "" {
		for _, regs := range r.listeners {
			markRemoved(regs)
		}
		r.listeners = make(map[string][]*registration)
		return
	}

	markRemoved(r.listeners[key])
	delete(r.listeners, key)
}

func markRemoved(regs []*registration) {
	for _, reg := range regs {
		reg.removed.Store(true)
	}
}

// has reports whether fn is currently registered under key.
func (r *registry) has(key string, fn Listener) bool {
	tag := listenerTag(fn)

	r.lock.Lock()
	defer r.lock.Unlock()

	for _, reg := range r.listeners[key] {
		if reg.tag == tag {
			return true
		}
	}
	return false
}

// count returns the number of registrations currently held for key.
func (r *registry) count(key string) int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return len(r.listeners[key])
}

// dispatch invokes, in order, every registration held for key at call time
// and reports whether at least one listener ran. Once-registrations are
// removed before their callback is invoked, so a reentrant dispatch for the
// same key cannot fire them twice. Listeners added during the pass are not
// invoked in it.
func (r *registry) dispatch(key string, ev Event) bool {
	r.lock.Lock()
	regs := r.listeners[key]
	snapshot := make([]*registration, len(regs))
	copy(snapshot, regs)
	r.lock.Unlock()

	delivered := false
	for _, reg := range snapshot {
		if reg.removed.Load() {
			continue
		}
		if reg.once {
			if !r.retire(key, reg) {
				continue
			}
		}
		delivered = true
		reg.fn(ev)
	}
	return delivered
}

// retire removes a once-registration from the live table, reporting false
// when another dispatch pass already claimed it.
func (r *registry) retire(key string, reg *registration) bool {
	if reg.removed.Swap(true) {
		return false
	}
	r.removeReg(key, reg)
	return true
}

// removeReg drops a specific registration handle. Unlike remove it never
// confuses two registrations sharing a function pointer, which is what
// relay closures built from one func literal do.
func (r *registry) removeReg(key string, reg *registration) {
	reg.removed.Store(true)

	r.lock.Lock()
	defer r.lock.Unlock()

	regs := r.listeners[key]
	for i, held := range regs {
		if held == reg {
			r.listeners[key] = append(regs[:i:i], regs[i+1:]...)
			if len(r.listeners[key]) == 0 {
				delete(r.listeners, key)
			}
			break
		}
	}
}
