package observer

import (
	"sync"
	"testing"
)

func TestRegistrySingleListener(t *testing.T) {
	reg := newRegistry()
	typ := NewType("event")
	var results []any

	// Registers a single listener for the "event" type.
	reg.add(typ.Key(), func(ev Event) {
		results = append(results, ev.Payload())
	}, false, false)

	reg.dispatch(typ.Key(), NewEvent(typ, 42))

	if len(results) != 1 || results[0] != 42 {
		t.Errorf("Expected to receive [42], but got %v", results)
	}
}

func TestRegistryDispatchOrder(t *testing.T) {
	reg := newRegistry()
	typ := NewType("event")
	var order []string

	reg.add(typ.Key(), func(Event) { order = append(order, "first") }, false, false)
	reg.add(typ.Key(), func(Event) { order = append(order, "second") }, false, false)
	// Prepended listeners run before everything registered earlier.
	reg.add(typ.Key(), func(Event) { order = append(order, "prepended") }, false, true)

	reg.dispatch(typ.Key(), NewEvent(typ, nil))

	want := []string{"prepended", "first", "second"}
	if len(order) != len(want) {
		t.Fatalf("Expected %d callbacks, but got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Expected order %v, but got %v", want, order)
			break
		}
	}
}

func TestRegistryNoListeners(t *testing.T) {
	reg := newRegistry()
	typ := NewType("event")

	// Dispatching with no listeners must not fail and reports no delivery.
	if reg.dispatch(typ.Key(), NewEvent(typ, nil)) {
		t.Error("Expected no delivery for an unknown key")
	}
}

func TestRegistryDispatchReportsDelivery(t *testing.T) {
	reg := newRegistry()
	typ := NewType("event")

	reg.add(typ.Key(), func(Event) {}, false, false)

	if !reg.dispatch(typ.Key(), NewEvent(typ, nil)) {
		t.Error("Expected delivery to be reported")
	}
}

func TestRegistryOnce(t *testing.T) {
	reg := newRegistry()
	typ := NewType("event")
	calls := 0

	reg.add(typ.Key(), func(Event) { calls++ }, true, false)

	reg.dispatch(typ.Key(), NewEvent(typ, nil))
	reg.dispatch(typ.Key(), NewEvent(typ, nil))

	if calls != 1 {
		t.Errorf("Expected once-listener to fire once, but fired %d times", calls)
	}
	if reg.count(typ.Key()) != 0 {
		t.Errorf("Expected once-listener to be retired, %d remain", reg.count(typ.Key()))
	}
}

func TestRegistryOnceReentrant(t *testing.T) {
	reg := newRegistry()
	typ := NewType("event")
	calls := 0

	// A once-listener that reenters dispatch for its own key must still
	// fire exactly once.
	reg.add(typ.Key(), func(Event) {
		calls++
		reg.dispatch(typ.Key(), NewEvent(typ, nil))
	}, true, false)

	reg.dispatch(typ.Key(), NewEvent(typ, nil))

	if calls != 1 {
		t.Errorf("Expected 1 call, but got %d", calls)
	}
}

func TestRegistryRemoveFirstMatch(t *testing.T) {
	reg := newRegistry()
	typ := NewType("event")
	calls := 0
	fn := func(Event) { calls++ }

	reg.add(typ.Key(), fn, false, false)
	reg.add(typ.Key(), fn, false, false)
	reg.remove(typ.Key(), fn)

	reg.dispatch(typ.Key(), NewEvent(typ, nil))

	if calls != 1 {
		t.Errorf("Expected the second registration to survive, got %d calls", calls)
	}
}

func TestRegistryRemoveAbsent(t *testing.T) {
	reg := newRegistry()
	typ := NewType("event")

	// Removing a listener that was never registered is a no-op.
	reg.remove(typ.Key(), func(Event) {})
}

func TestRegistryRemovalDuringDispatch(t *testing.T) {
	reg := newRegistry()
	typ := NewType("event")
	secondCalled := false

	var second Listener = func(Event) { secondCalled = true }
	reg.add(typ.Key(), func(Event) {
		reg.remove(typ.Key(), second)
	}, false, false)
	reg.add(typ.Key(), second, false, false)

	reg.dispatch(typ.Key(), NewEvent(typ, nil))

	if secondCalled {
		t.Error("Expected listener removed by an earlier callback not to fire")
	}
}

func TestRegistryAddDuringDispatch(t *testing.T) {
	reg := newRegistry()
	typ := NewType("event")
	addedCalled := 0

	reg.add(typ.Key(), func(Event) {
		reg.add(typ.Key(), func(Event) { addedCalled++ }, false, false)
	}, false, false)

	// The listener registered mid-pass does not run in that pass.
	reg.dispatch(typ.Key(), NewEvent(typ, nil))
	if addedCalled != 0 {
		t.Errorf("Expected no call in the registering pass, got %d", addedCalled)
	}

	reg.dispatch(typ.Key(), NewEvent(typ, nil))
	if addedCalled != 1 {
		t.Errorf("Expected 1 call in the following pass, got %d", addedCalled)
	}
}

func TestRegistryRemoveAll(t *testing.T) {
	reg := newRegistry()
	a, b := NewType("a"), NewType("b")

	reg.add(a.Key(), func(Event) {}, false, false)
	reg.add(b.Key(), func(Event) {}, false, false)

	reg.removeAll(a.Key())
	if reg.count(a.Key()) != 0 || reg.count(b.Key()) != 1 {
		t.Error("Expected only listeners for the given key to be cleared")
	}

	reg.removeAll("")
	if reg.count(b.Key()) != 0 {
		t.Error("Expected every key to be cleared")
	}
}

func TestRegistryConcurrent(t *testing.T) {
	reg := newRegistry()
	typ := NewType("event")
	var mu sync.Mutex
	var results []int
	var wg sync.WaitGroup

	// Concurrently registers 10 listeners.
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg.add(typ.Key(), func(ev Event) {
				mu.Lock()
				results = append(results, ev.Payload().(int)+i)
				mu.Unlock()
			}, false, false)
		}(i)
	}
	wg.Wait()

	// Concurrent dispatch: 10 events are dispatched.
	for j := 0; j < 10; j++ {
		wg.Add(1)
		go func(j int) {
			defer wg.Done()
			reg.dispatch(typ.Key(), NewEvent(typ, j))
		}(j)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	// Expect 10 (listeners) * 10 (dispatches) = 100 callbacks.
	if len(results) != 100 {
		t.Errorf("Expected 100 callbacks, but got %d", len(results))
	}
}
