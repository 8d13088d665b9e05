package observer

import (
	"sync"

	"github.com/stretchr/testify/mock"
)

// recordListener collects every event it is invoked with, in order.
type recordListener struct {
	mu     sync.Mutex
	events []Event
}

func newRecordListener() *recordListener {
	return &recordListener{}
}

func (r *recordListener) Listen(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, ev)
}

func (r *recordListener) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recordListener) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.events)
}

type mockListener struct {
	mock.Mock
}

func (m *mockListener) Listen(ev Event) {
	m.Called(ev)
}
