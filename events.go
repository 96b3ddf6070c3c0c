package feather2d

const (
	TRIGGER_ENTER EventType = iota
	COLLISION_ENTER
	TRIGGER_STAY
	COLLISION_STAY
	TRIGGER_EXIT
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// ContactPair names the shapes and bodies of a contact event
type ContactPair struct {
	ShapeA, ShapeB *Shape
	BodyA, BodyB   *Body
}

func makeContactPair(c *Contact) ContactPair {
	return ContactPair{
		ShapeA: c.shapeA,
		ShapeB: c.shapeB,
		BodyA:  c.shapeA.body,
		BodyB:  c.shapeB.body,
	}
}

// Trigger events, for contacts involving a sensor
type TriggerEnterEvent struct{ ContactPair }

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

type TriggerStayEvent struct{ ContactPair }

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

type TriggerExitEvent struct{ ContactPair }

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

// Collision events, for solid contacts
type CollisionEnterEvent struct{ ContactPair }

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct{ ContactPair }

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct{ ContactPair }

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// Sleep/Wake events
type SleepEvent struct {
	Body *Body
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body *Body
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// EventListener - callback for events
type EventListener func(event Event)

// Events buffers what happens during a step and dispatches it once the world is
// unlocked, so listeners may create and destroy bodies.
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	sleepStates map[*Body]bool
}

func NewEvents() Events {
	return Events{
		listeners:   make(map[EventType][]EventListener),
		buffer:      make([]Event, 0, 256),
		sleepStates: make(map[*Body]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// wants reports whether anyone listens to the event type. Nothing is buffered otherwise.
func (e *Events) wants(eventType EventType) bool {
	return len(e.listeners[eventType]) > 0
}

// recordContact turns the touching state of a contact before and after its update
// into an Enter, Stay or Exit event
func (e *Events) recordContact(c *Contact, wasTouching bool) {
	switch {
	case !wasTouching && c.touching:
		if c.nonSolid {
			e.emit(TRIGGER_ENTER, func() Event { return TriggerEnterEvent{makeContactPair(c)} })
		} else {
			e.emit(COLLISION_ENTER, func() Event { return CollisionEnterEvent{makeContactPair(c)} })
		}
	case wasTouching && c.touching:
		if c.nonSolid {
			e.emit(TRIGGER_STAY, func() Event { return TriggerStayEvent{makeContactPair(c)} })
		} else {
			e.emit(COLLISION_STAY, func() Event { return CollisionStayEvent{makeContactPair(c)} })
		}
	case wasTouching && !c.touching:
		e.recordExit(c)
	}
}

// recordExit is called when a touching contact stops touching or is destroyed
func (e *Events) recordExit(c *Contact) {
	if c.nonSolid {
		e.emit(TRIGGER_EXIT, func() Event { return TriggerExitEvent{makeContactPair(c)} })
	} else {
		e.emit(COLLISION_EXIT, func() Event { return CollisionExitEvent{makeContactPair(c)} })
	}
}

func (e *Events) emit(eventType EventType, build func() Event) {
	if !e.wants(eventType) {
		return
	}
	e.buffer = append(e.buffer, build())
}

// processSleepEvents compares the sleeping state of every body with the one seen at the
// previous step. A body seen for the first time only records its state.
func (e *Events) processSleepEvents(bodyList *Body) {
	if !e.wants(ON_SLEEP) && !e.wants(ON_WAKE) {
		return
	}

	for body := bodyList; body != nil; body = body.next {
		if body.IsStatic() {
			continue
		}

		trackedState, exists := e.sleepStates[body]
		if !exists {
			e.sleepStates[body] = body.sleeping
			continue
		}

		if !trackedState && body.sleeping {
			e.emit(ON_SLEEP, func() Event { return SleepEvent{Body: body} })
			e.sleepStates[body] = true
		} else if trackedState && !body.sleeping {
			e.emit(ON_WAKE, func() Event { return WakeEvent{Body: body} })
			e.sleepStates[body] = false
		}
	}
}

// forget drops the tracked state of a destroyed body
func (e *Events) forget(body *Body) {
	delete(e.sleepStates, body)
}

// flush sends all buffered events and clears the buffer. Events emitted by the
// listeners themselves wait for the next flush.
func (e *Events) flush() {
	pending := len(e.buffer)
	for i := 0; i < pending; i++ {
		event := e.buffer[i]
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}

	n := copy(e.buffer, e.buffer[pending:])
	clear(e.buffer[n:])
	e.buffer = e.buffer[:n]
}
