// Package dom provides the host element tree the lumen runtime runs on.
//
// A Document wraps a tree of golang.org/x/net/html nodes and adds what a
// browser host would: attribute and class-list mutation with change
// notification, native child mutation primitives, connected/disconnected
// callbacks for custom elements, event dispatch along a composed path
// (capture, target, bubble), and CSS selector matching.
//
// # Interception
//
// A node may carry an [Interceptor]. While the interceptor reports that it is
// active, the public child mutation methods (AppendChild, InsertBefore, ...)
// are routed to it instead of the tree. The unintercepted primitives are
// always reachable through [Node.Native]; renderers use them so they can
// write the real subtree of a component without recursing into it.
//
// # Concurrency
//
// A Document is not safe for concurrent use. All mutation, dispatch and
// callbacks run synchronously on the caller's goroutine.
package dom
