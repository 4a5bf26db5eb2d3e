package testing

import (
	"fmt"
	"strings"

	"github.com/go-drift/lumen/pkg/component"
	"github.com/go-drift/lumen/pkg/dom"
)

// Finder locates nodes in the mounted tree.
type Finder interface {
	// Evaluate returns all matching nodes under root (depth-first
	// pre-order). root itself is never matched.
	Evaluate(root *dom.Node) []*dom.Node
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	nodes  []*dom.Node
	finder Finder
}

func (r FinderResult) describe() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *dom.Node {
	if len(r.nodes) == 0 {
		panic(fmt.Sprintf("Finder found no nodes: %s", r.describe()))
	}
	return r.nodes[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *dom.Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *dom.Node {
	if index < 0 || index >= len(r.nodes) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.nodes), r.describe()))
	}
	return r.nodes[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*dom.Node {
	return r.nodes
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.nodes)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.nodes) > 0
}

// Instance returns the component attached to the first match, or nil.
// Panics if no matches.
func (r FinderResult) Instance() *component.Instance {
	c, _ := r.First().Behavior().(*component.Instance)
	return c
}

// selectorFinder matches elements against a CSS selector.
type selectorFinder struct {
	selector string
}

func (f *selectorFinder) Evaluate(root *dom.Node) []*dom.Node {
	return root.QuerySelectorAll(f.selector)
}

func (f *selectorFinder) Description() string {
	return fmt.Sprintf("BySelector(%q)", f.selector)
}

// BySelector returns a finder that matches elements against a CSS
// selector. An invalid selector matches nothing.
func BySelector(selector string) Finder {
	return &selectorFinder{selector: selector}
}

// ByID returns a finder that matches the element with the given id.
func ByID(id string) Finder {
	return &predicateFinder{
		fn: func(n *dom.Node) bool {
			v, ok := n.GetAttribute("id")
			return ok && v == id
		},
		desc: fmt.Sprintf("ByID(%q)", id),
	}
}

// ByComponent returns a finder that matches hosts of the named component.
func ByComponent(name string) Finder {
	return &predicateFinder{
		fn: func(n *dom.Node) bool {
			c, ok := n.Behavior().(*component.Instance)
			return ok && c.Definition().Name == name
		},
		desc: fmt.Sprintf("ByComponent(%q)", name),
	}
}

// textFinder matches the innermost elements whose trimmed text content
// equals text.
type textFinder struct {
	text string
}

func (f *textFinder) Evaluate(root *dom.Node) []*dom.Node {
	return collectMatches(root, func(n *dom.Node) bool {
		if !n.IsElement() || strings.TrimSpace(n.TextContent()) != f.text {
			return false
		}
		for _, c := range n.Children() {
			if strings.TrimSpace(c.TextContent()) == f.text {
				return false
			}
		}
		return true
	})
}

func (f *textFinder) Description() string {
	return fmt.Sprintf("ByText(%q)", f.text)
}

// ByText returns a finder that matches the innermost elements whose text
// content, with surrounding space trimmed, equals text.
func ByText(text string) Finder {
	return &textFinder{text: text}
}

// ByTextContaining returns a finder that matches elements with a text
// child containing substring.
func ByTextContaining(substring string) Finder {
	return &predicateFinder{
		fn: func(n *dom.Node) bool {
			if !n.IsElement() {
				return false
			}
			for _, c := range n.ChildNodes() {
				if c.Type() == dom.TextNode && strings.Contains(c.Data(), substring) {
					return true
				}
			}
			return false
		},
		desc: fmt.Sprintf("ByTextContaining(%q)", substring),
	}
}

// predicateFinder matches nodes satisfying a predicate.
type predicateFinder struct {
	fn   func(*dom.Node) bool
	desc string
}

func (f *predicateFinder) Evaluate(root *dom.Node) []*dom.Node {
	return collectMatches(root, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate returns a finder that matches nodes satisfying fn.
func ByPredicate(fn func(*dom.Node) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds nodes matching 'matching' that are descendants
// of nodes matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root *dom.Node) []*dom.Node {
	var results []*dom.Node
	seen := make(map[*dom.Node]bool)
	for _, ancestor := range f.of.Evaluate(root) {
		for _, match := range f.matching.Evaluate(ancestor) {
			if !seen[match] {
				seen[match] = true
				results = append(results, match)
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches nodes satisfying 'matching'
// that are descendants of nodes matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// ancestorFinder finds nodes matching 'matching' that are ancestors of
// nodes matching 'of'.
type ancestorFinder struct {
	of       Finder
	matching Finder
}

func (f *ancestorFinder) Evaluate(root *dom.Node) []*dom.Node {
	descendants := f.of.Evaluate(root)
	if len(descendants) == 0 {
		return nil
	}
	var results []*dom.Node
	for _, candidate := range f.matching.Evaluate(root) {
		for _, d := range descendants {
			if candidate != d && candidate.Contains(d) {
				results = append(results, candidate)
				break
			}
		}
	}
	return results
}

func (f *ancestorFinder) Description() string {
	return fmt.Sprintf("Ancestor(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Ancestor returns a finder that matches nodes satisfying 'matching' that
// are ancestors of nodes matching 'of'.
func Ancestor(of, matching Finder) Finder {
	return &ancestorFinder{of: of, matching: matching}
}

// collectMatches performs a depth-first pre-order traversal below root,
// collecting nodes that satisfy the predicate.
func collectMatches(root *dom.Node, predicate func(*dom.Node) bool) []*dom.Node {
	var results []*dom.Node
	var walk func(*dom.Node)
	walk = func(n *dom.Node) {
		for _, c := range n.ChildNodes() {
			if predicate(c) {
				results = append(results, c)
			}
			walk(c)
		}
	}
	walk(root)
	return results
}
