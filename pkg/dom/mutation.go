package dom

import (
	"github.com/go-drift/lumen/pkg/errors"
	"golang.org/x/net/html"
)

// Interceptor takes over the child mutation methods of a node while
// Intercepting reports true.
type Interceptor interface {
	Intercepting() bool
	AppendChild(child *Node) error
	InsertBefore(child, ref *Node) error
	ReplaceChild(newChild, oldChild *Node) error
	RemoveChild(child *Node) error
	Append(nodes ...*Node) error
	Prepend(nodes ...*Node) error
}

// Adjacent positions for InsertAdjacentElement.
const (
	BeforeBegin = "beforebegin"
	AfterBegin  = "afterbegin"
	BeforeEnd   = "beforeend"
	AfterEnd    = "afterend"
)

func (n *Node) active() Interceptor {
	if n.interceptor != nil && n.interceptor.Intercepting() {
		return n.interceptor
	}
	return nil
}

// AppendChild appends child to n.
func (n *Node) AppendChild(child *Node) error {
	if i := n.active(); i != nil {
		return i.AppendChild(child)
	}
	return n.Native().AppendChild(child)
}

// InsertBefore inserts child before ref. A nil ref appends.
func (n *Node) InsertBefore(child, ref *Node) error {
	if i := n.active(); i != nil {
		return i.InsertBefore(child, ref)
	}
	return n.Native().InsertBefore(child, ref)
}

// ReplaceChild replaces oldChild with newChild.
func (n *Node) ReplaceChild(newChild, oldChild *Node) error {
	if i := n.active(); i != nil {
		return i.ReplaceChild(newChild, oldChild)
	}
	return n.Native().ReplaceChild(newChild, oldChild)
}

// RemoveChild removes child from n.
func (n *Node) RemoveChild(child *Node) error {
	if i := n.active(); i != nil {
		return i.RemoveChild(child)
	}
	return n.Native().RemoveChild(child)
}

// Append appends nodes in order.
func (n *Node) Append(nodes ...*Node) error {
	if i := n.active(); i != nil {
		return i.Append(nodes...)
	}
	return n.Native().Append(nodes...)
}

// Prepend inserts nodes, in order, before the first child.
func (n *Node) Prepend(nodes ...*Node) error {
	if i := n.active(); i != nil {
		return i.Prepend(nodes...)
	}
	return n.Native().Prepend(nodes...)
}

// Remove detaches n from its parent, going through the parent's interceptor.
func (n *Node) Remove() error {
	p := n.Parent()
	if p == nil {
		return nil
	}
	return p.RemoveChild(n)
}

// InsertAdjacentElement inserts el relative to n.
func (n *Node) InsertAdjacentElement(position string, el *Node) error {
	if !el.IsElement() {
		return errors.New("dom.InsertAdjacentElement", errors.KindType,
			&errors.TypeError{Name: "element", Value: el.String(), Reason: "expected an element"})
	}
	switch position {
	case AfterBegin:
		return n.Prepend(el)
	case BeforeEnd:
		return n.Append(el)
	case BeforeBegin, AfterEnd:
		p := n.Parent()
		if p == nil {
			return errors.New("dom.InsertAdjacentElement", errors.KindHierarchy, errors.ErrHierarchy)
		}
		ref := n
		if position == AfterEnd {
			ref = n.NextSibling()
		}
		return p.InsertBefore(el, ref)
	default:
		return errors.New("dom.InsertAdjacentElement", errors.KindType,
			&errors.TypeError{Name: "position", Value: position, Reason: "expected beforebegin, afterbegin, beforeend or afterend"})
	}
}

// Native exposes the unintercepted mutation primitives of n.
func (n *Node) Native() Native { return Native{n: n} }

// Native performs child mutations directly on the host tree. Custom element
// connected and disconnected callbacks still run.
type Native struct {
	n *Node
}

// AppendChild appends child to the real children.
func (m Native) AppendChild(child *Node) error {
	return m.InsertBefore(child, nil)
}

// InsertBefore inserts child before ref in the real children.
func (m Native) InsertBefore(child, ref *Node) error {
	const op = "dom.InsertBefore"
	parent := m.n
	if child == nil {
		return errors.New(op, errors.KindType, &errors.TypeError{Name: "child", Value: nil, Reason: "expected a node"})
	}
	if ref != nil && ref.h.Parent != parent.h {
		return &errors.LumenError{Op: op, Kind: errors.KindHierarchy, Node: ref.String(), Err: errors.ErrNotFound}
	}
	if child.fragment {
		for _, c := range child.ChildNodes() {
			if err := m.InsertBefore(c, ref); err != nil {
				return err
			}
		}
		return nil
	}
	if child.Contains(parent) || child.h.Type == html.DocumentNode {
		return &errors.LumenError{Op: op, Kind: errors.KindHierarchy, Node: child.String(), Err: errors.ErrHierarchy}
	}
	if child == ref {
		ref = ref.NextSibling()
	}
	if old := child.Parent(); old != nil {
		if err := old.Native().RemoveChild(child); err != nil {
			return err
		}
	}
	if ref == nil {
		parent.h.AppendChild(child.h)
	} else {
		parent.h.InsertBefore(child.h, ref.h)
	}
	if child.IsConnected() {
		child.notifyConnected()
	}
	return nil
}

// ReplaceChild replaces oldChild with newChild in the real children.
func (m Native) ReplaceChild(newChild, oldChild *Node) error {
	if oldChild == nil || oldChild.h.Parent != m.n.h {
		return errors.New("dom.ReplaceChild", errors.KindHierarchy, errors.ErrNotFound)
	}
	if newChild == oldChild {
		return nil
	}
	ref := oldChild.NextSibling()
	if ref == newChild {
		ref = newChild.NextSibling()
	}
	if err := m.RemoveChild(oldChild); err != nil {
		return err
	}
	return m.InsertBefore(newChild, ref)
}

// RemoveChild removes child from the real children.
func (m Native) RemoveChild(child *Node) error {
	if child == nil || child.h.Parent != m.n.h {
		return errors.New("dom.RemoveChild", errors.KindHierarchy, errors.ErrNotFound)
	}
	connected := child.IsConnected()
	var affected []*Node
	if connected {
		affected = child.customElements()
	}
	m.n.h.RemoveChild(child.h)
	for _, ce := range affected {
		if !ce.IsConnected() {
			ce.behavior.DisconnectedCallback()
		}
	}
	return nil
}

// Append appends nodes in order.
func (m Native) Append(nodes ...*Node) error {
	for _, c := range nodes {
		if err := m.AppendChild(c); err != nil {
			return err
		}
	}
	return nil
}

// Prepend inserts nodes, in order, before the first real child.
func (m Native) Prepend(nodes ...*Node) error {
	ref := m.n.FirstChild()
	for _, c := range nodes {
		if c == ref {
			ref = ref.NextSibling()
			continue
		}
		if err := m.InsertBefore(c, ref); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceChildren removes all real children and appends nodes.
func (m Native) ReplaceChildren(nodes ...*Node) error {
	for _, c := range m.n.ChildNodes() {
		if err := m.RemoveChild(c); err != nil {
			return err
		}
	}
	return m.Append(nodes...)
}

// customElements returns n and its descendants that carry a behavior, in
// tree order.
func (n *Node) customElements() []*Node {
	var out []*Node
	var walk func(*html.Node)
	walk = func(h *html.Node) {
		if w, ok := n.doc.nodes[h]; ok && w.behavior != nil {
			out = append(out, w)
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n.h)
	return out
}

// notifyConnected runs connected callbacks for n's subtree. Elements moved
// out of the document by an earlier callback are skipped.
func (n *Node) notifyConnected() {
	for _, ce := range n.customElements() {
		if ce.IsConnected() {
			ce.behavior.ConnectedCallback()
		}
	}
}
