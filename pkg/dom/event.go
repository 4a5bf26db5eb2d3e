package dom

import (
	"context"
	"slices"
)

// Phase is the dispatch phase of an event.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseCapture
	PhaseTarget
	PhaseBubble
)

// Responder is registered by a listener during synchronous dispatch and
// awaited afterwards by asynchronous dispatchers.
type Responder func(ctx context.Context) (any, error)

// EventInit configures a new Event.
type EventInit struct {
	Bubbles    bool
	Cancelable bool
	Composed   bool
	Detail     any
}

// Event is dispatched along a composed path from its target to the
// document root.
type Event struct {
	typ  string
	init EventInit

	target        *Node
	currentTarget *Node
	path          []*Node
	phase         Phase

	stopped          bool
	stoppedImmediate bool
	defaultPrevented bool
	dispatching      bool

	responders []Responder
	stopWatch  []*func(immediate bool)
}

// NewEvent creates an event of the given type.
func NewEvent(typ string, init EventInit) *Event {
	return &Event{typ: typ, init: init}
}

// NewCustomEvent creates a bubbling, cancelable event carrying detail.
func NewCustomEvent(typ string, detail any) *Event {
	return NewEvent(typ, EventInit{Bubbles: true, Cancelable: true, Composed: true, Detail: detail})
}

func (e *Event) Type() string           { return e.typ }
func (e *Event) Bubbles() bool          { return e.init.Bubbles }
func (e *Event) Cancelable() bool       { return e.init.Cancelable }
func (e *Event) Composed() bool         { return e.init.Composed }
func (e *Event) Detail() any            { return e.init.Detail }
func (e *Event) Target() *Node          { return e.target }
func (e *Event) CurrentTarget() *Node   { return e.currentTarget }
func (e *Event) Phase() Phase           { return e.phase }
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// ComposedPath returns the propagation path, innermost target first.
func (e *Event) ComposedPath() []*Node { return slices.Clone(e.path) }

// StopPropagation prevents dispatch to further nodes on the path.
func (e *Event) StopPropagation() {
	e.stopped = true
	e.notifyStop(false)
}

// StopImmediatePropagation also prevents the remaining listeners of the
// current node from running.
func (e *Event) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedImmediate = true
	e.notifyStop(true)
}

// WatchStop registers fn to be called each time StopPropagation or
// StopImmediatePropagation is called, after the event state is updated.
// The returned func unregisters it.
func (e *Event) WatchStop(fn func(immediate bool)) (unwatch func()) {
	p := &fn
	e.stopWatch = append(e.stopWatch, p)
	return func() {
		e.stopWatch = slices.DeleteFunc(e.stopWatch, func(q *func(bool)) bool { return q == p })
	}
}

func (e *Event) notifyStop(immediate bool) {
	for _, fn := range slices.Clone(e.stopWatch) {
		(*fn)(immediate)
	}
}

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool { return e.stopped }

// ImmediatePropagationStopped reports whether StopImmediatePropagation was called.
func (e *Event) ImmediatePropagationStopped() bool { return e.stoppedImmediate }

// PreventDefault cancels a cancelable event.
func (e *Event) PreventDefault() {
	if e.init.Cancelable {
		e.defaultPrevented = true
	}
}

// RespondWith registers a responder. It is only honored while the event is
// being dispatched.
func (e *Event) RespondWith(r Responder) {
	if e.dispatching && r != nil {
		e.responders = append(e.responders, r)
	}
}

// Responders returns the responders registered during dispatch.
func (e *Event) Responders() []Responder { return slices.Clone(e.responders) }

// Listener is an event callback registered on a node. Listeners are
// identified by pointer.
type Listener struct {
	Fn      func(*Event)
	Capture bool
	Once    bool
}

// NewListener wraps fn in a Listener.
func NewListener(fn func(*Event)) *Listener {
	return &Listener{Fn: fn}
}

// ForCapture marks the listener for the capture phase.
func (l *Listener) ForCapture() *Listener {
	l.Capture = true
	return l
}

// TriggerOnce removes the listener after its first call.
func (l *Listener) TriggerOnce() *Listener {
	l.Once = true
	return l
}

// AddEventListener registers l for events of type typ. Adding the same
// listener twice has no effect.
func (n *Node) AddEventListener(typ string, l *Listener) {
	if l == nil || l.Fn == nil {
		return
	}
	if n.listeners == nil {
		n.listeners = make(map[string][]*Listener)
	}
	if slices.Contains(n.listeners[typ], l) {
		return
	}
	n.listeners[typ] = append(n.listeners[typ], l)
}

// RemoveEventListener unregisters l.
func (n *Node) RemoveEventListener(typ string, l *Listener) {
	list := n.listeners[typ]
	i := slices.Index(list, l)
	if i < 0 {
		return
	}
	list = slices.Delete(slices.Clone(list), i, i+1)
	if len(list) == 0 {
		delete(n.listeners, typ)
		return
	}
	n.listeners[typ] = list
}

// ListenerCount returns the number of listeners registered for typ.
func (n *Node) ListenerCount(typ string) int {
	return len(n.listeners[typ])
}

// DispatchEvent dispatches e with n as target and reports whether the
// default action was not prevented.
func (n *Node) DispatchEvent(e *Event) bool {
	e.target = n
	e.path = e.path[:0]
	for p := n; p != nil; p = p.Parent() {
		e.path = append(e.path, p)
	}
	e.stopped = false
	e.stoppedImmediate = false
	e.dispatching = true
	defer func() {
		e.dispatching = false
		e.currentTarget = nil
		e.phase = PhaseNone
	}()

	for i := len(e.path) - 1; i > 0 && !e.stopped; i-- {
		e.path[i].invoke(e, PhaseCapture)
	}
	if !e.stopped {
		n.invoke(e, PhaseTarget)
	}
	if e.init.Bubbles {
		for i := 1; i < len(e.path) && !e.stopped; i++ {
			e.path[i].invoke(e, PhaseBubble)
		}
	}
	return !e.defaultPrevented
}

func (n *Node) invoke(e *Event, phase Phase) {
	list := slices.Clone(n.listeners[e.typ])
	if len(list) == 0 {
		return
	}
	e.phase = phase
	e.currentTarget = n
	for _, l := range list {
		if phase == PhaseCapture && !l.Capture {
			continue
		}
		if phase == PhaseBubble && l.Capture {
			continue
		}
		if !slices.Contains(n.listeners[e.typ], l) {
			continue
		}
		if l.Once {
			n.RemoveEventListener(e.typ, l)
		}
		l.Fn(e)
		if e.stoppedImmediate {
			return
		}
	}
}
