// Package render is the default renderer for component instances.
//
// A Template lists the nodes a host element should contain. Nodes created
// for the template (detached and unowned when the Template is built) may be
// patched in place on later renders. Every other node, such as a
// component's light children, is placed by identity. Slot placeholders are
// expanded to the nodes filled into them, or to their own children when
// nothing was filled.
package render

import (
	"bytes"
	"html/template"

	"github.com/go-drift/lumen/pkg/dom"
)

// Template is the desired content of a host element.
type Template struct {
	nodes []*dom.Node
	fresh map[*dom.Node]bool
	slots map[*dom.Node][]*dom.Node
}

// New creates a template rendering nodes in order.
func New(nodes ...*dom.Node) *Template {
	t := &Template{
		nodes: nodes,
		fresh: make(map[*dom.Node]bool),
		slots: make(map[*dom.Node][]*dom.Node),
	}
	var mark func(n *dom.Node)
	mark = func(n *dom.Node) {
		t.fresh[n] = true
		for _, c := range n.ChildNodes() {
			mark(c)
		}
	}
	for _, n := range nodes {
		if n.Parent() == nil && n.Owner() == nil {
			mark(n)
		}
	}
	return t
}

// Nodes returns the top-level template nodes.
func (t *Template) Nodes() []*dom.Node {
	return t.nodes
}

// Fill replaces placeholder with nodes when rendered.
func (t *Template) Fill(placeholder *dom.Node, nodes []*dom.Node) {
	t.slots[placeholder] = nodes
}

// expand resolves slot placeholders in nodes.
func (t *Template) expand(nodes []*dom.Node) []*dom.Node {
	if t == nil {
		return nil
	}
	out := make([]*dom.Node, 0, len(nodes))
	for _, n := range nodes {
		filled, ok := t.slots[n]
		switch {
		case !ok:
			out = append(out, n)
		case len(filled) > 0:
			out = append(out, filled...)
		default:
			out = append(out, t.expand(n.ChildNodes())...)
		}
	}
	return out
}

// morphable reports whether the live node cur can be patched to look like
// the template node w instead of being replaced by it.
func (t *Template) morphable(cur, w *dom.Node) bool {
	if t == nil || !t.fresh[w] {
		return false
	}
	if cur.Owner() != nil || cur.Behavior() != nil || w.Behavior() != nil {
		return false
	}
	if cur.Type() != w.Type() {
		return false
	}
	switch cur.Type() {
	case dom.ElementNode:
		return cur.TagName() == w.TagName()
	case dom.TextNode, dom.CommentNode:
		return true
	}
	return false
}

// HTML builds templates from html/template source. A <slot> element is a
// placeholder for the nodes assigned to the slot named by its name
// attribute; the default slot has no name.
type HTML struct {
	tpl *template.Template
}

// ParseHTML parses src.
func ParseHTML(name, src string) (*HTML, error) {
	tpl, err := template.New(name).Option("missingkey=zero").Parse(src)
	if err != nil {
		return nil, err
	}
	return &HTML{tpl: tpl}, nil
}

// Execute runs the template with data, parses the output in doc and fills
// each slot with slots(name).
func (h *HTML) Execute(doc *dom.Document, data any, slots func(name string) []*dom.Node) (*Template, error) {
	var buf bytes.Buffer
	if err := h.tpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	nodes, err := doc.ParseFragment(buf.String(), "div")
	if err != nil {
		return nil, err
	}
	t := New(nodes...)
	if slots == nil {
		return t, nil
	}
	var walk func(n *dom.Node)
	walk = func(n *dom.Node) {
		if n.IsElement() && n.TagName() == "slot" {
			name, _ := n.GetAttribute("name")
			t.Fill(n, slots(name))
		}
		for _, c := range n.ChildNodes() {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return t, nil
}
