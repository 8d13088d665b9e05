package observer

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Type identifies a class of events. Every instance created from the same
// Type shares its key, which is what listeners are registered under.
// Declare one Type per event variant, typically at package level:
//
//	var UserCreated = observer.NewType("user.created")
//
// The zero Type is invalid and never matches anything.
type Type struct {
	name string
	key  string
}

// NewType creates a new event Type with the given display name. The
// dispatch key is derived from the name plus a random suffix, so two
// independently declared types never share a key even when their names
// collide.
func NewType(name string) Type {
	return Type{
		name: name,
		key:  name + "#" + uuid.NewString(),
	}
}

// Name returns the human-readable name of the type. Not required unique.
func (t Type) Name() string {
	return t.name
}

// Key returns the dispatch key. Stable for the lifetime of the process and
// identical for every event carrying this Type.
func (t Type) Key() string {
	return t.key
}

func (t Type) IsZero() bool {
	return t.key == ""
}

func (t Type) String() string {
	return fmt.Sprintf("Type{name=%s}", t.name)
}

type (
	// Event is an immutable, identity-bearing message. Every event carries
	// a globally unique id assigned once at construction; the id identifies
	// one emission occurrence, while Type identifies the class of events it
	// belongs to.
	Event interface {
		// ID returns the unique identity of this event instance.
		ID() uuid.UUID
		// Type returns the event's class descriptor.
		Type() Type
		// EventName returns the display name of the event's type.
		EventName() string
		// Payload returns the data carried by the event.
		Payload() any

		String() string
	}

	// Listener is a callback invoked synchronously with each delivered event.
	Listener func(Event)
)

type baseEvent struct {
	id      uuid.UUID
	typ     Type
	payload any
}

func (e baseEvent) ID() uuid.UUID {
	return e.id
}

func (e baseEvent) Type() Type {
	return e.typ
}

func (e baseEvent) EventName() string {
	return e.typ.Name()
}

func (e baseEvent) Payload() any {
	return e.payload
}

func (e baseEvent) String() string {
	return fmt.Sprintf("Event{type=%s,id=%s}", e.typ.Name(), e.id)
}

// NewEvent creates an event of the given type carrying payload. The event
// is assigned a fresh globally unique id and is immutable afterwards.
func NewEvent(typ Type, payload any) Event {
	return baseEvent{
		id:      uuid.New(),
		typ:     typ,
		payload: payload,
	}
}

// TypeEmit is the type of the wrapper event raised automatically every time
// an observer delivers an event. Relay bindings listen on it.
var TypeEmit = NewType("observer.emit")

// EmitEvent is the automatic notification raised for every delivered event.
// Its payload is the event that was just emitted. Its own id is fresh per
// construction, independent of the wrapped event's id.
type EmitEvent struct {
	baseEvent
}

// NewEmitEvent wraps an emitted event in its notification event.
func NewEmitEvent(emitted Event) *EmitEvent {
	return &EmitEvent{
		baseEvent: baseEvent{
			id:      uuid.New(),
			typ:     TypeEmit,
			payload: emitted,
		},
	}
}

// Emitted returns the event whose emission this notification reports.
func (e *EmitEvent) Emitted() Event {
	emitted, _ := e.payload.(Event)
	return emitted
}

func (e *EmitEvent) String() string {
	return fmt.Sprintf("EmitEvent{id=%s,emitted=%s}", e.id, e.payload)
}

// typeKeyOf resolves a registration target to a dispatch key. A target is
// either a Type descriptor or a live Event; both forms resolve to the same
// key for the same variant.
func typeKeyOf(target any) (string, error) {
	switch t := target.(type) {
	case Type:
		if t.IsZero() {
			return "", errors.Wrap(ErrInvalidEventTarget, "zero Type")
		}
		return t.Key(), nil
	case Event:
		if t == nil || t.Type().IsZero() {
			return "", errors.Wrap(ErrInvalidEventTarget, "nil event")
		}
		return t.Type().Key(), nil
	default:
		return "", errors.Wrapf(ErrInvalidEventTarget, "%T", target)
	}
}
