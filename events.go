package quadsim

import (
	"github.com/akmonengine/quadsim/actor"
	"github.com/akmonengine/quadsim/constraint"
)

const (
	GROUND_ENTER EventType = iota
	GROUND_STAY
	GROUND_EXIT
	PAUSE
	RESUME
	STEP
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Ground contact events
type GroundEnterEvent struct {
	Body *actor.RigidBody
}

func (e GroundEnterEvent) Type() EventType { return GROUND_ENTER }

type GroundStayEvent struct {
	Body *actor.RigidBody
}

func (e GroundStayEvent) Type() EventType { return GROUND_STAY }

type GroundExitEvent struct {
	Body *actor.RigidBody
}

func (e GroundExitEvent) Type() EventType { return GROUND_EXIT }

// Scheduler state events. Step is the number of fixed steps run so far.
type PauseEvent struct {
	Step uint64
}

func (e PauseEvent) Type() EventType { return PAUSE }

type ResumeEvent struct {
	Step uint64
}

func (e ResumeEvent) Type() EventType { return RESUME }

// StepEvent is sent by the scheduler right after each fixed step.
type StepEvent struct {
	Step uint64
}

func (e StepEvent) Type() EventType { return STEP }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Ground tracking for Enter/Stay/Exit detection
	previousGrounded map[*actor.RigidBody]bool
	currentGrounded  map[*actor.RigidBody]bool
}

func NewEvents() Events {
	return Events{
		listeners:        make(map[EventType][]EventListener),
		buffer:           make([]Event, 0, 64),
		previousGrounded: make(map[*actor.RigidBody]bool),
		currentGrounded:  make(map[*actor.RigidBody]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		*e = NewEvents()
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordGroundContacts is called during substeps; a body touching the ground in any
// substep counts as grounded for the whole step.
func (e *Events) recordGroundContacts(contacts []*constraint.GroundContact) {
	if e.currentGrounded == nil {
		*e = NewEvents()
	}
	for _, c := range contacts {
		e.currentGrounded[c.Body] = true
	}
}

// processGroundEvents compares current and previous grounded bodies to detect Enter/Stay/Exit.
// bodies fixes the emission order.
func (e *Events) processGroundEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		current, previous := e.currentGrounded[body], e.previousGrounded[body]

		switch {
		case current && previous:
			e.buffer = append(e.buffer, GroundStayEvent{Body: body})
		case current:
			e.buffer = append(e.buffer, GroundEnterEvent{Body: body})
		case previous:
			e.buffer = append(e.buffer, GroundExitEvent{Body: body})
		}
	}

	// Swap for next step and clear current
	e.previousGrounded, e.currentGrounded = e.currentGrounded, e.previousGrounded
	clear(e.currentGrounded)
}

// forget drops the tracking of a removed body, without emitting an exit event.
func (e *Events) forget(body *actor.RigidBody) {
	delete(e.previousGrounded, body)
	delete(e.currentGrounded, body)
}

// dispatch sends an event immediately, outside of the step buffer.
func (e *Events) dispatch(event Event) {
	for _, listener := range e.listeners[event.Type()] {
		listener(event)
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush(bodies []*actor.RigidBody) {
	if e.currentGrounded == nil {
		*e = NewEvents()
	}
	e.processGroundEvents(bodies)

	for _, event := range e.buffer {
		e.dispatch(event)
	}
	e.buffer = e.buffer[:0]
}
