package component

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/go-drift/lumen/pkg/delegate"
	"github.com/go-drift/lumen/pkg/dom"
	"github.com/go-drift/lumen/pkg/errors"
)

// DelegateEventListener delegates event on the host element to handler.
func (c *Instance) DelegateEventListener(event, selector string, handler *delegate.Handler, opts delegate.Options) error {
	return delegate.Delegate(c.node, event, selector, handler, opts)
}

// UndelegateEventListener removes a delegation added with
// DelegateEventListener.
func (c *Instance) UndelegateEventListener(event, selector string, handler *delegate.Handler, opts delegate.Options) bool {
	return delegate.Undelegate(c.node, event, selector, handler, opts)
}

// Delegations returns the delegations registered on the host element.
func (c *Instance) Delegations() []delegate.Delegation {
	return delegate.Delegations(c.node)
}

// DispatchEvent dispatches e from the host element and reports whether its
// default action was not prevented.
func (c *Instance) DispatchEvent(e *dom.Event) bool {
	return c.node.DispatchEvent(e)
}

// DispatchAsyncEvent dispatches e synchronously, then waits for every
// responder registered with RespondWith during dispatch. Results are
// returned in registration order. A canceled event with no responder fails
// with ErrEventCanceled. A panicking responder fails the dispatch.
func (c *Instance) DispatchAsyncEvent(ctx context.Context, e *dom.Event) ([]any, error) {
	const op = "component.DispatchAsyncEvent"
	notPrevented := c.node.DispatchEvent(e)
	responders := e.Responders()
	if !notPrevented && len(responders) == 0 {
		return nil, &errors.LumenError{Op: op, Kind: errors.KindAsync, Node: c.node.String(), Err: errors.ErrEventCanceled}
	}

	results := make([]any, len(responders))
	g, gctx := errgroup.WithContext(ctx)
	for i, respond := range responders {
		g.Go(func() error {
			return errors.Guard(op, func() error {
				v, err := respond(gctx)
				if err != nil {
					return err
				}
				results[i] = v
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &errors.LumenError{Op: op, Kind: errors.KindAsync, Node: c.node.String(), Err: err}
	}
	return results, nil
}
