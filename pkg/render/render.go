package render

import (
	"slices"

	"github.com/go-drift/lumen/pkg/dom"
	"github.com/go-drift/lumen/pkg/errors"
)

// Context is the per-instance diff state kept between renders.
type Context struct {
	host     *dom.Node
	rendered []*dom.Node
	renders  int
}

// NewContext creates an empty context for host.
func NewContext(host *dom.Node) *Context {
	return &Context{host: host}
}

// Host returns the element rendered into.
func (c *Context) Host() *dom.Node { return c.host }

// Rendered returns the top-level nodes of the last render.
func (c *Context) Rendered() []*dom.Node { return slices.Clone(c.rendered) }

// Renders returns the number of renders since the context was created or
// last reset.
func (c *Context) Renders() int { return c.renders }

// Reset empties the context so the next render starts from scratch.
func (c *Context) Reset() {
	c.rendered = nil
	c.renders = 0
}

// Reconciler renders templates using the native mutation primitives of the
// host tree, so component interception never sees its writes.
type Reconciler struct{}

// Render makes ctx's host contain exactly the nodes of tpl. A nil tpl
// empties the host. The first render after a reset inserts the template
// without patching any existing node.
func (r Reconciler) Render(ctx *Context, tpl *Template) error {
	var want []*dom.Node
	if tpl != nil {
		want = tpl.expand(tpl.nodes)
	}
	if err := r.patch(ctx.host, want, tpl, ctx.renders > 0); err != nil {
		return errors.New("render.Render", errors.KindRender, err)
	}
	logger := ctx.host.Document().Logger()
	logger.Debug().Str("host", ctx.host.String()).Int("nodes", len(want)).Int("render", ctx.renders+1).Msg("rendered")
	if tpl == nil {
		ctx.rendered = nil
		return nil
	}
	ctx.rendered = want
	ctx.renders++
	return nil
}

func (r Reconciler) patch(parent *dom.Node, want []*dom.Node, tpl *Template, incremental bool) error {
	m := parent.Native()
	var prev *dom.Node
	next := func() *dom.Node {
		if prev == nil {
			return parent.FirstChild()
		}
		return prev.NextSibling()
	}
	for _, w := range want {
		cur := next()
		switch {
		case cur == w:
		case incremental && cur != nil && tpl.morphable(cur, w):
			if err := r.morph(cur, w, tpl); err != nil {
				return err
			}
			w = cur
		default:
			if err := m.InsertBefore(w, cur); err != nil {
				return err
			}
			if tpl != nil && tpl.fresh[w] && w.IsElement() {
				if err := r.patch(w, tpl.expand(w.ChildNodes()), tpl, false); err != nil {
					return err
				}
			}
		}
		prev = w
	}
	for cur := next(); cur != nil; cur = next() {
		if err := m.RemoveChild(cur); err != nil {
			return err
		}
	}
	return nil
}

// morph patches cur in place to match the template node w.
func (r Reconciler) morph(cur, w *dom.Node, tpl *Template) error {
	if !cur.IsElement() {
		if cur.Data() != w.Data() {
			cur.SetData(w.Data())
		}
		return nil
	}
	for _, a := range cur.Attributes() {
		if !w.HasAttribute(a.Key) {
			cur.RemoveAttribute(a.Key)
		}
	}
	for _, a := range w.Attributes() {
		if v, ok := cur.GetAttribute(a.Key); !ok || v != a.Val {
			cur.SetAttribute(a.Key, a.Val)
		}
	}
	return r.patch(cur, tpl.expand(w.ChildNodes()), tpl, true)
}
