// Package delegate multiplexes many logical (selector, handler) pairs onto a
// single real listener per node and event type.
//
// Matched handlers run closest to the event source first. A handler that
// returns false, or calls StopPropagation on the event, stops dispatch to
// handlers bound to other match targets; handlers pending for the target
// that just ran still fire. StopImmediatePropagation aborts the remaining
// handlers.
package delegate

import (
	"cmp"
	"slices"

	"github.com/go-drift/lumen/pkg/dom"
	"github.com/go-drift/lumen/pkg/errors"
)

// Handler receives the event and the node its selector matched. Returning
// false acts as a local stop. Handlers are identified by pointer.
type Handler struct {
	Fn func(e *dom.Event, target *dom.Node) bool
}

// NewHandler wraps fn.
func NewHandler(fn func(e *dom.Event, target *dom.Node) bool) *Handler {
	return &Handler{Fn: fn}
}

// Options configures a delegation.
type Options struct {
	// Capture installs the real listener for the capture phase.
	Capture bool
}

// Delegation describes one registered descriptor.
type Delegation struct {
	Event    string
	Selector string
	Capture  bool
}

type key struct {
	event   string
	capture bool
}

type descriptor struct {
	selector string
	handler  *Handler
}

type list struct {
	node        *dom.Node
	event       string
	listener    *dom.Listener
	descriptors []descriptor
}

// listsKey attaches the delegation lists of a node to the node itself.
type listsKey struct{}

func listsOf(node *dom.Node) map[key]*list {
	m, _ := node.Attached(listsKey{}).(map[key]*list)
	return m
}

// Delegate registers handler for event on node. An empty selector matches
// node itself.
func Delegate(node *dom.Node, event, selector string, handler *Handler, opts Options) error {
	if err := validate(node, event, selector, handler); err != nil {
		return err
	}
	byKey := listsOf(node)
	if byKey == nil {
		byKey = make(map[key]*list)
		node.Attach(listsKey{}, byKey)
	}
	k := key{event: event, capture: opts.Capture}
	l := byKey[k]
	install := l == nil
	if install {
		l = &list{node: node, event: event}
		l.listener = dom.NewListener(l.dispatch)
		if opts.Capture {
			l.listener.ForCapture()
		}
		byKey[k] = l
	}
	l.descriptors = append(l.descriptors, descriptor{selector: selector, handler: handler})

	if install {
		node.AddEventListener(event, l.listener)
		logger := node.Document().Logger()
		logger.Debug().Str("node", node.String()).Str("event", event).Bool("capture", opts.Capture).Msg("delegation listener installed")
	}
	return nil
}

// Undelegate removes the descriptor registered with the same selector and
// handler. The real listener is removed once no descriptor is left. It
// reports whether a descriptor was removed.
func Undelegate(node *dom.Node, event, selector string, handler *Handler, opts Options) bool {
	if node == nil {
		return false
	}
	byKey := listsOf(node)
	k := key{event: event, capture: opts.Capture}
	l := byKey[k]
	if l == nil {
		return false
	}
	i := slices.IndexFunc(l.descriptors, func(d descriptor) bool {
		return d.selector == selector && d.handler == handler
	})
	if i < 0 {
		return false
	}
	l.descriptors = slices.Delete(slices.Clone(l.descriptors), i, i+1)
	empty := len(l.descriptors) == 0
	if empty {
		delete(byKey, k)
		if len(byKey) == 0 {
			node.Attach(listsKey{}, nil)
		}
	}

	if empty {
		node.RemoveEventListener(event, l.listener)
		logger := node.Document().Logger()
		logger.Debug().Str("node", node.String()).Str("event", event).Msg("delegation listener removed")
	}
	return true
}

// Delegations returns a snapshot of the descriptors registered on node,
// ordered by event type, then capture, then registration.
func Delegations(node *dom.Node) []Delegation {
	if node == nil {
		return nil
	}
	var out []Delegation
	for k, l := range listsOf(node) {
		for _, d := range l.descriptors {
			out = append(out, Delegation{Event: k.event, Selector: d.selector, Capture: k.capture})
		}
	}
	slices.SortStableFunc(out, func(a, b Delegation) int {
		if c := cmp.Compare(a.Event, b.Event); c != 0 {
			return c
		}
		switch {
		case a.Capture == b.Capture:
			return 0
		case a.Capture:
			return -1
		}
		return 1
	})
	return out
}

func validate(node *dom.Node, event, selector string, handler *Handler) error {
	const op = "delegate.Delegate"
	fail := func(name string, value any, reason string) error {
		return errors.New(op, errors.KindDelegate, &errors.TypeError{Name: name, Value: value, Reason: reason})
	}
	switch {
	case node == nil:
		return fail("node", nil, "expected an element")
	case !node.IsElement() && node.Type() != dom.DocumentNode:
		return fail("node", node.String(), "expected an element")
	case event == "":
		return fail("event", event, "expected an event name")
	case handler == nil || handler.Fn == nil:
		return fail("handler", nil, "expected a handler")
	}
	if selector != "" {
		if err := dom.ValidSelector(selector); err != nil {
			return fail("selector", selector, err.Error())
		}
	}
	return nil
}

type match struct {
	target  *dom.Node
	depth   int
	handler *Handler
}

// dispatch runs once per real event.
func (l *list) dispatch(e *dom.Event) {
	var stopped, immediate bool
	unwatch := e.WatchStop(func(imm bool) {
		stopped = true
		immediate = immediate || imm
	})
	defer unwatch()

	descriptors := slices.Clone(l.descriptors)

	path := e.ComposedPath()
	bound := slices.Index(path, l.node)
	if bound < 0 {
		return
	}

	matches := make([]match, 0, len(descriptors))
	for _, d := range descriptors {
		if d.selector == "" {
			matches = append(matches, match{target: l.node, depth: bound, handler: d.handler})
			continue
		}
		for i := 0; i <= bound; i++ {
			if path[i].Matches(d.selector) {
				matches = append(matches, match{target: path[i], depth: i, handler: d.handler})
				break
			}
		}
	}
	slices.SortStableFunc(matches, func(a, b match) int {
		return cmp.Compare(a.depth, b.depth)
	})

	var last *dom.Node
	for _, m := range matches {
		if immediate {
			return
		}
		if stopped && m.target != last {
			continue
		}
		last = m.target
		if !m.handler.Fn(e, m.target) {
			stopped = true
		}
	}
}
