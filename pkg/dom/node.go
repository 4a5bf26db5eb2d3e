package dom

import (
	"bytes"
	"slices"
	"strings"

	"github.com/yosssi/gohtml"
	"golang.org/x/net/html"
)

// NodeType identifies the kind of a Node.
type NodeType int

const (
	ElementNode NodeType = iota + 1
	TextNode
	CommentNode
	DocumentNode
	FragmentNode
	OtherNode
)

// Owner is the component currently responsible for a node's position in a
// light tree.
type Owner interface {
	OwnerElement() *Node
}

// CustomElement receives the host lifecycle callbacks of an upgraded element.
type CustomElement interface {
	ConnectedCallback()
	DisconnectedCallback()
	// AttributeChangedCallback is called for names in ObservedAttributes.
	// present is false when the attribute was removed.
	AttributeChangedCallback(name, oldValue, newValue string, present bool)
	ObservedAttributes() []string
}

// Node is a host tree node.
type Node struct {
	doc      *Document
	h        *html.Node
	fragment bool

	owner       Owner
	behavior    CustomElement
	interceptor Interceptor
	listeners   map[string][]*Listener
	attached    map[any]any
}

// Document returns the document that created n.
func (n *Node) Document() *Document { return n.doc }

// HTML returns the underlying html node.
func (n *Node) HTML() *html.Node { return n.h }

// Type returns the node type.
func (n *Node) Type() NodeType {
	if n.fragment {
		return FragmentNode
	}
	switch n.h.Type {
	case html.ElementNode:
		return ElementNode
	case html.TextNode:
		return TextNode
	case html.CommentNode:
		return CommentNode
	case html.DocumentNode:
		return DocumentNode
	default:
		return OtherNode
	}
}

// IsElement reports whether n is an element.
func (n *Node) IsElement() bool { return n != nil && n.h.Type == html.ElementNode }

// TagName returns the lower-case tag name of an element, or "".
func (n *Node) TagName() string {
	if !n.IsElement() {
		return ""
	}
	return n.h.Data
}

// Data returns the text of a text or comment node.
func (n *Node) Data() string {
	if n.h.Type == html.TextNode || n.h.Type == html.CommentNode {
		return n.h.Data
	}
	return ""
}

// SetData replaces the text of a text or comment node.
func (n *Node) SetData(s string) {
	if n.h.Type == html.TextNode || n.h.Type == html.CommentNode {
		n.h.Data = s
	}
}

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	if n.h.Type == html.TextNode || n.h.Type == html.CommentNode {
		return n.h.Data
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(h *html.Node) {
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
			walk(c)
		}
	}
	walk(n.h)
	return sb.String()
}

// Parent returns the real parent node, or nil.
func (n *Node) Parent() *Node { return n.doc.wrap(n.h.Parent) }

// FirstChild returns the first real child, or nil.
func (n *Node) FirstChild() *Node { return n.doc.wrap(n.h.FirstChild) }

// LastChild returns the last real child, or nil.
func (n *Node) LastChild() *Node { return n.doc.wrap(n.h.LastChild) }

// NextSibling returns the next real sibling, or nil.
func (n *Node) NextSibling() *Node { return n.doc.wrap(n.h.NextSibling) }

// PrevSibling returns the previous real sibling, or nil.
func (n *Node) PrevSibling() *Node { return n.doc.wrap(n.h.PrevSibling) }

// ChildNodes returns a snapshot of the real children.
func (n *Node) ChildNodes() []*Node {
	var out []*Node
	for c := n.h.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, n.doc.wrap(c))
	}
	return out
}

// Children returns a snapshot of the real element children.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.h.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, n.doc.wrap(c))
		}
	}
	return out
}

// Contains reports whether other is n or a descendant of n.
func (n *Node) Contains(other *Node) bool {
	for h := other.h; h != nil; h = h.Parent {
		if h == n.h {
			return true
		}
	}
	return false
}

// IsConnected reports whether n is attached to its document's root.
func (n *Node) IsConnected() bool {
	h := n.h
	for h.Parent != nil {
		h = h.Parent
	}
	return h == n.doc.root.h
}

func (n *Node) find(pred func(*html.Node) bool) *Node {
	var walk func(*html.Node) *html.Node
	walk = func(h *html.Node) *html.Node {
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if pred(c) {
				return c
			}
			if found := walk(c); found != nil {
				return found
			}
		}
		return nil
	}
	return n.doc.wrap(walk(n.h))
}

// Owner returns the light-tree owner of n, or nil.
func (n *Node) Owner() Owner { return n.owner }

// SetOwner records o as the owner of n. Pass nil to clear it.
func (n *Node) SetOwner(o Owner) { n.owner = o }

// Behavior returns the custom element attached to n, or nil.
func (n *Node) Behavior() CustomElement { return n.behavior }

// SetBehavior attaches the lifecycle callbacks of an upgraded element.
func (n *Node) SetBehavior(ce CustomElement) { n.behavior = ce }

// SetInterceptor installs the child mutation interceptor of n.
func (n *Node) SetInterceptor(i Interceptor) { n.interceptor = i }

// Attached returns the value attached to n under key, or nil. Attached
// values live and die with the node.
func (n *Node) Attached(key any) any { return n.attached[key] }

// Attach stores v on n under key. A nil v removes the entry.
func (n *Node) Attach(key, v any) {
	if v == nil {
		delete(n.attached, key)
		return
	}
	if n.attached == nil {
		n.attached = make(map[any]any)
	}
	n.attached[key] = v
}

// String describes n for error messages.
func (n *Node) String() string {
	switch n.Type() {
	case ElementNode:
		return "<" + n.h.Data + ">"
	case TextNode:
		return "#text"
	case CommentNode:
		return "#comment"
	case FragmentNode:
		return "#document-fragment"
	case DocumentNode:
		return "#document"
	default:
		return "#node"
	}
}

// OuterHTML renders n and its real subtree.
func (n *Node) OuterHTML() string {
	var buf bytes.Buffer
	if n.h.Type == html.DocumentNode {
		for c := n.h.FirstChild; c != nil; c = c.NextSibling {
			_ = html.Render(&buf, c)
		}
		return buf.String()
	}
	_ = html.Render(&buf, n.h)
	return buf.String()
}

// InnerHTML renders the real children of n.
func (n *Node) InnerHTML() string {
	var buf bytes.Buffer
	for c := n.h.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// PrettyHTML renders n indented for reading.
func (n *Node) PrettyHTML() string {
	return gohtml.Format(n.OuterHTML())
}

func attr(h *html.Node, name string) (string, bool) {
	for _, a := range h.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// GetAttribute returns the value of an attribute and whether it is present.
func (n *Node) GetAttribute(name string) (string, bool) {
	return attr(n.h, strings.ToLower(name))
}

// HasAttribute reports whether the attribute is present.
func (n *Node) HasAttribute(name string) bool {
	_, ok := n.GetAttribute(name)
	return ok
}

// Attributes returns a copy of the attribute list.
func (n *Node) Attributes() []html.Attribute {
	return slices.Clone(n.h.Attr)
}

// SetAttribute sets an attribute on an element.
func (n *Node) SetAttribute(name, value string) {
	if !n.IsElement() {
		return
	}
	name = strings.ToLower(name)
	old, had := attr(n.h, name)
	if had {
		for i := range n.h.Attr {
			if n.h.Attr[i].Namespace == "" && n.h.Attr[i].Key == name {
				n.h.Attr[i].Val = value
				break
			}
		}
	} else {
		n.h.Attr = append(n.h.Attr, html.Attribute{Key: name, Val: value})
	}
	n.attributeChanged(name, old, value, true)
}

// RemoveAttribute removes an attribute if present.
func (n *Node) RemoveAttribute(name string) {
	name = strings.ToLower(name)
	old, had := attr(n.h, name)
	if !had {
		return
	}
	n.h.Attr = slices.DeleteFunc(n.h.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == name
	})
	n.attributeChanged(name, old, "", false)
}

// ToggleAttribute sets or removes a boolean attribute.
func (n *Node) ToggleAttribute(name string, on bool) {
	if on {
		if !n.HasAttribute(name) {
			n.SetAttribute(name, "")
		}
		return
	}
	n.RemoveAttribute(name)
}

func (n *Node) attributeChanged(name, old, value string, present bool) {
	if n.behavior == nil {
		return
	}
	if !slices.Contains(n.behavior.ObservedAttributes(), name) {
		return
	}
	n.behavior.AttributeChangedCallback(name, old, value, present)
}

// ClassList returns the class tokens of n.
func (n *Node) ClassList() []string {
	v, _ := n.GetAttribute("class")
	return strings.Fields(v)
}

// HasClass reports whether n has the class token.
func (n *Node) HasClass(token string) bool {
	return slices.Contains(n.ClassList(), token)
}

// AddClass adds class tokens that are not present yet.
func (n *Node) AddClass(tokens ...string) {
	list := n.ClassList()
	changed := false
	for _, t := range tokens {
		if t != "" && !slices.Contains(list, t) {
			list = append(list, t)
			changed = true
		}
	}
	if changed {
		n.SetAttribute("class", strings.Join(list, " "))
	}
}

// RemoveClass removes class tokens.
func (n *Node) RemoveClass(tokens ...string) {
	list := n.ClassList()
	out := slices.DeleteFunc(slices.Clone(list), func(t string) bool {
		return slices.Contains(tokens, t)
	})
	if len(out) != len(list) {
		n.SetAttribute("class", strings.Join(out, " "))
	}
}

// ToggleClass adds or removes a class token and reports whether it is set.
func (n *Node) ToggleClass(token string) bool {
	if n.HasClass(token) {
		n.RemoveClass(token)
		return false
	}
	n.AddClass(token)
	return true
}
