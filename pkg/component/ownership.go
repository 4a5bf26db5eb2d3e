package component

import (
	"slices"

	"github.com/go-drift/lumen/pkg/dom"
	"github.com/go-drift/lumen/pkg/errors"
)

// SlotChildNodes returns the logical children of c in order.
func (c *Instance) SlotChildNodes() []*dom.Node {
	return slices.Clone(c.slotChildNodes)
}

// ChildNodesBySlot returns the element children assigned to the named slot.
// The default slot, "", also receives non-element nodes and nodes not owned
// by any instance.
func (c *Instance) ChildNodesBySlot(name string) []*dom.Node {
	var out []*dom.Node
	for _, n := range c.slotChildNodes {
		owner := n.Owner()
		if owner != nil && owner != dom.Owner(c) {
			continue
		}
		if name == "" {
			slot, _ := n.GetAttribute("slot")
			if !n.IsElement() || owner == nil || slot == "" {
				out = append(out, n)
			}
			continue
		}
		if !n.IsElement() || owner == nil {
			continue
		}
		if slot, ok := n.GetAttribute("slot"); ok && slot == name {
			out = append(out, n)
		}
	}
	return out
}

// adoptNode makes c the owner of n. Non-element nodes also get an Anchor.
func (c *Instance) adoptNode(n *dom.Node) error {
	if n.Owner() != nil {
		return &errors.LumenError{Op: "component.adoptNode", Kind: errors.KindOwnership, Node: n.String(), Err: errors.ErrAlreadyOwned}
	}
	n.SetOwner(c)
	if !n.IsElement() {
		c.anchors[n] = &Anchor{inst: c, node: n}
	}
	return nil
}

// releaseNode clears the ownership of n if c owns it.
func (c *Instance) releaseNode(n *dom.Node) {
	if n.Owner() != dom.Owner(c) {
		return
	}
	n.SetOwner(nil)
	delete(c.anchors, n)
}

// captureChildren moves the real children into the logical child list.
func (c *Instance) captureChildren() {
	m := c.node.Native()
	for _, n := range c.node.ChildNodes() {
		if err := m.RemoveChild(n); err != nil {
			errors.Report(&errors.LumenError{Op: "component.captureChildren", Kind: errors.KindHierarchy, Node: n.String(), Err: err})
			continue
		}
		if slices.Contains(c.slotChildNodes, n) {
			continue
		}
		if err := c.adoptNode(n); err != nil {
			errors.Report(&errors.LumenError{Op: "component.captureChildren", Kind: errors.KindOwnership, Node: n.String(), Err: err})
			continue
		}
		c.slotChildNodes = append(c.slotChildNodes, n)
	}
}

// restoreChildren releases the logical children and appends them back as
// real children.
func (c *Instance) restoreChildren() {
	nodes := c.slotChildNodes
	c.slotChildNodes = nil
	m := c.node.Native()
	for _, n := range nodes {
		c.releaseNode(n)
		if err := m.AppendChild(n); err != nil {
			errors.Report(&errors.LumenError{Op: "component.restoreChildren", Kind: errors.KindHierarchy, Node: n.String(), Err: err})
		}
	}
}

// Intercepting reports whether child mutations of the host node operate on
// the logical child list.
func (c *Instance) Intercepting() bool {
	return c.connected && !c.rendering
}

func (c *Instance) indexOf(n *dom.Node) int {
	return slices.Index(c.slotChildNodes, n)
}

// insertAt inserts nodes into the logical child list at index, adopting
// them, and requests one update.
func (c *Instance) insertAt(op string, index int, nodes []*dom.Node) error {
	incoming, err := c.checkInsert(op, nodes)
	if err != nil {
		return err
	}
	for _, n := range incoming {
		if i := c.indexOf(n); i >= 0 {
			c.slotChildNodes = slices.Delete(c.slotChildNodes, i, i+1)
			if i < index {
				index--
			}
			c.releaseNode(n)
		} else if p := n.Parent(); p != nil {
			if err := p.Native().RemoveChild(n); err != nil {
				return err
			}
		}
		if err := c.adoptNode(n); err != nil {
			return err
		}
		c.slotChildNodes = slices.Insert(c.slotChildNodes, index, n)
		index++
	}
	c.RequestUpdate()
	return nil
}

// checkInsert expands fragments in nodes and reports the first node that
// cannot become a logical child of c.
func (c *Instance) checkInsert(op string, nodes []*dom.Node) ([]*dom.Node, error) {
	var incoming []*dom.Node
	for _, n := range nodes {
		if n == nil {
			return nil, errors.New(op, errors.KindType, &errors.TypeError{Name: "node", Value: nil, Reason: "expected a node"})
		}
		if n.Type() == dom.FragmentNode {
			incoming = append(incoming, n.ChildNodes()...)
			continue
		}
		incoming = append(incoming, n)
	}
	for _, n := range incoming {
		if owner := n.Owner(); owner != nil && owner != dom.Owner(c) {
			return nil, &errors.LumenError{Op: op, Kind: errors.KindOwnership, Node: n.String(), Err: errors.ErrAlreadyOwned}
		}
		if n.Contains(c.node) || n.Type() == dom.DocumentNode {
			return nil, &errors.LumenError{Op: op, Kind: errors.KindHierarchy, Node: n.String(), Err: errors.ErrHierarchy}
		}
	}
	return incoming, nil
}

// AppendChild appends child to the logical children while intercepting,
// and to the real children otherwise.
func (c *Instance) AppendChild(child *dom.Node) error {
	if !c.Intercepting() {
		return c.node.Native().AppendChild(child)
	}
	return c.insertAt("component.AppendChild", len(c.slotChildNodes), []*dom.Node{child})
}

// Append appends nodes in order.
func (c *Instance) Append(nodes ...*dom.Node) error {
	if !c.Intercepting() {
		return c.node.Native().Append(nodes...)
	}
	return c.insertAt("component.Append", len(c.slotChildNodes), nodes)
}

// Prepend inserts nodes, in order, before the first child.
func (c *Instance) Prepend(nodes ...*dom.Node) error {
	if !c.Intercepting() {
		return c.node.Native().Prepend(nodes...)
	}
	return c.insertAt("component.Prepend", 0, nodes)
}

// InsertBefore inserts child before ref. A nil ref appends.
func (c *Instance) InsertBefore(child, ref *dom.Node) error {
	const op = "component.InsertBefore"
	if !c.Intercepting() {
		return c.node.Native().InsertBefore(child, ref)
	}
	if ref == nil {
		return c.insertAt(op, len(c.slotChildNodes), []*dom.Node{child})
	}
	i := c.indexOf(ref)
	if i < 0 {
		return &errors.LumenError{Op: op, Kind: errors.KindHierarchy, Node: ref.String(), Err: errors.ErrNotFound}
	}
	if child == ref {
		return nil
	}
	return c.insertAt(op, i, []*dom.Node{child})
}

// ReplaceChild replaces oldChild with newChild.
func (c *Instance) ReplaceChild(newChild, oldChild *dom.Node) error {
	const op = "component.ReplaceChild"
	if !c.Intercepting() {
		return c.node.Native().ReplaceChild(newChild, oldChild)
	}
	i := c.indexOf(oldChild)
	if i < 0 {
		return &errors.LumenError{Op: op, Kind: errors.KindHierarchy, Node: oldChild.String(), Err: errors.ErrNotFound}
	}
	if newChild == oldChild {
		return nil
	}
	if _, err := c.checkInsert(op, []*dom.Node{newChild}); err != nil {
		return err
	}
	c.CollectUpdatesStart()
	defer c.CollectUpdatesEnd()
	c.slotChildNodes = slices.Delete(c.slotChildNodes, i, i+1)
	c.releaseNode(oldChild)
	if err := c.insertAt(op, i, []*dom.Node{newChild}); err != nil {
		if c.adoptNode(oldChild) == nil {
			c.slotChildNodes = slices.Insert(c.slotChildNodes, min(i, len(c.slotChildNodes)), oldChild)
		}
		return err
	}
	return nil
}

// RemoveChild removes child from the logical children. Real children that
// are not logical children, such as render output, are removed natively.
func (c *Instance) RemoveChild(child *dom.Node) error {
	if !c.Intercepting() {
		return c.node.Native().RemoveChild(child)
	}
	i := c.indexOf(child)
	if i < 0 {
		if child != nil && child.Parent() == c.node {
			return c.node.Native().RemoveChild(child)
		}
		return errors.New("component.RemoveChild", errors.KindHierarchy, errors.ErrNotFound)
	}
	c.slotChildNodes = slices.Delete(c.slotChildNodes, i, i+1)
	c.releaseNode(child)
	c.RequestUpdate()
	return nil
}

// InsertAdjacentElement inserts el relative to the host element.
func (c *Instance) InsertAdjacentElement(position string, el *dom.Node) error {
	return c.node.InsertAdjacentElement(position, el)
}

// Anchor returns the virtual anchor of an owned non-element node, or nil.
func (c *Instance) Anchor(n *dom.Node) *Anchor {
	return c.anchors[n]
}

// Anchor is a non-element logical child, such as a comment marking a
// position. Its traversal and insertion methods work on the logical child
// list of its owner, wherever the renderer placed the node.
type Anchor struct {
	inst *Instance
	node *dom.Node
}

// Node returns the anchored node.
func (a *Anchor) Node() *dom.Node { return a.node }

func (a *Anchor) owned() bool {
	return a.node.Owner() == dom.Owner(a.inst)
}

// ParentNode returns the owner's host element while owned.
func (a *Anchor) ParentNode() *dom.Node {
	if !a.owned() {
		return a.node.Parent()
	}
	return a.inst.node
}

// NextSibling returns the next logical sibling.
func (a *Anchor) NextSibling() *dom.Node {
	if !a.owned() {
		return a.node.NextSibling()
	}
	i := a.inst.indexOf(a.node)
	if i < 0 || i+1 >= len(a.inst.slotChildNodes) {
		return nil
	}
	return a.inst.slotChildNodes[i+1]
}

// PreviousSibling returns the previous logical sibling.
func (a *Anchor) PreviousSibling() *dom.Node {
	if !a.owned() {
		return a.node.PrevSibling()
	}
	i := a.inst.indexOf(a.node)
	if i <= 0 {
		return nil
	}
	return a.inst.slotChildNodes[i-1]
}

// Before inserts nodes before the anchor.
func (a *Anchor) Before(nodes ...*dom.Node) error {
	if !a.owned() {
		return a.native(a.node, nodes)
	}
	return a.inst.insertAt("component.Anchor.Before", a.inst.indexOf(a.node), nodes)
}

// After inserts nodes after the anchor.
func (a *Anchor) After(nodes ...*dom.Node) error {
	if !a.owned() {
		return a.native(a.node.NextSibling(), nodes)
	}
	return a.inst.insertAt("component.Anchor.After", a.inst.indexOf(a.node)+1, nodes)
}

// Remove removes the anchor from its owner's logical children.
func (a *Anchor) Remove() error {
	if !a.owned() {
		return a.node.Remove()
	}
	return a.inst.RemoveChild(a.node)
}

func (a *Anchor) native(ref *dom.Node, nodes []*dom.Node) error {
	p := a.node.Parent()
	if p == nil {
		return errors.New("component.Anchor", errors.KindHierarchy, errors.ErrHierarchy)
	}
	for _, n := range nodes {
		if err := p.InsertBefore(n, ref); err != nil {
			return err
		}
	}
	return nil
}
