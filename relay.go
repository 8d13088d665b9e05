package observer

// Direction configures which way events flow between two bound observers.
// Directions are flags: DirectionBoth is DirectionTo combined with
// DirectionFrom.
type Direction uint8

const (
	// DirectionNone records a binding without installing any relay.
	DirectionNone Direction = 0
	// DirectionTo relays events emitted on the binding observer to the peer.
	DirectionTo Direction = 1 << 0
	// DirectionFrom relays events emitted on the peer back to the binding
	// observer.
	DirectionFrom Direction = 1 << 1
	// DirectionBoth relays in both directions. This is the common case.
	DirectionBoth = DirectionTo | DirectionFrom
)

func (d Direction) Is(other Direction) bool {
	return d == other
}

// HasTo reports whether the direction includes the observer-to-peer flow.
func (d Direction) HasTo() bool {
	return d&DirectionTo != 0
}

// HasFrom reports whether the direction includes the peer-to-observer flow.
func (d Direction) HasFrom() bool {
	return d&DirectionFrom != 0
}

func (d Direction) String() string {
	switch d {
	case DirectionNone:
		return "none"
	case DirectionTo:
		return "to"
	case DirectionFrom:
		return "from"
	case DirectionBoth:
		return "both"
	default:
		return "invalid"
	}
}

// binding records one relay relationship from the owning observer to a
// peer: the configured direction plus the handles of the relay listeners
// installed on each side's emit-notification type, kept so Unbind can tear
// them down.
type binding struct {
	direction Direction
	toPeer    *registration
	fromPeer  *registration
}

// relayListener builds the closure installed on source's emit notifications
// that re-raises the wrapped event on target. The target's id cache
// recognizes echoes by the wrapped event's unchanged id, so cyclic binding
// topologies terminate after at most one hop per pair.
func relayListener(source, target *Observer) Listener {
	return func(ev Event) {
		emitEvent, ok := ev.(*EmitEvent)
		if !ok {
			return
		}
		emitted := emitEvent.Emitted()
		if emitted == nil {
			return
		}
		source.log.Debugf("relaying %s to observer %s", emitted, target.id)
		target.Emit(emitted)
	}
}

// Bind wires peer to o so that events flow between them in the given
// direction. An existing binding to the same peer is fully torn down
// first; binding replaces, it never stacks. Use DirectionBoth when in
// doubt.
func (o *Observer) Bind(peer *Observer, direction Direction) error {
	if peer == nil {
		return ErrNilObserver
	}

	o.bindLock.Lock()
	defer o.bindLock.Unlock()

	o.unbindLocked(peer)

	b := &binding{direction: direction}
	if direction.HasTo() {
		b.toPeer = o.registry.add(TypeEmit.Key(), relayListener(o, peer), false, false)
	}
	if direction.HasFrom() {
		b.fromPeer = peer.registry.add(TypeEmit.Key(), relayListener(peer, o), false, false)
	}
	o.bindings[peer] = b

	o.log.Debugf("bound to observer %s direction=%s", peer.id, direction)
	return nil
}

// Unbind removes the relay listeners installed for peer and forgets the
// binding. No-op when peer was never bound. A relay already in flight may
// complete its current hop but will not relay again.
func (o *Observer) Unbind(peer *Observer) {
	if peer == nil {
		return
	}

	o.bindLock.Lock()
	defer o.bindLock.Unlock()

	o.unbindLocked(peer)
}

func (o *Observer) unbindLocked(peer *Observer) {
	b, ok := o.bindings[peer]
	if !ok {
		return
	}
	if b.toPeer != nil {
		o.registry.removeReg(TypeEmit.Key(), b.toPeer)
	}
	if b.fromPeer != nil {
		peer.registry.removeReg(TypeEmit.Key(), b.fromPeer)
	}
	delete(o.bindings, peer)

	o.log.Debugf("unbound from observer %s", peer.id)
}

// Binding returns the direction recorded for peer. The second return is
// false when no binding to peer exists.
func (o *Observer) Binding(peer *Observer) (Direction, bool) {
	o.bindLock.Lock()
	defer o.bindLock.Unlock()

	b, ok := o.bindings[peer]
	if !ok {
		return DirectionNone, false
	}
	return b.direction, true
}
