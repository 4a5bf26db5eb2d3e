package dom

// Matches reports whether n is an element matching the CSS selector.
// Invalid selectors never match; validate them with ValidSelector.
func (n *Node) Matches(selector string) bool {
	if !n.IsElement() {
		return false
	}
	sel, err := n.doc.selector(selector)
	if err != nil {
		return false
	}
	return sel.Match(n.h)
}

// Closest returns the nearest inclusive ancestor matching selector, or nil.
func (n *Node) Closest(selector string) *Node {
	for p := n; p != nil; p = p.Parent() {
		if p.Matches(selector) {
			return p
		}
	}
	return nil
}

// QuerySelector returns the first descendant element matching selector.
func (n *Node) QuerySelector(selector string) *Node {
	all := n.QuerySelectorAll(selector)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// QuerySelectorAll returns the descendant elements matching selector in
// tree order.
func (n *Node) QuerySelectorAll(selector string) []*Node {
	sel, err := n.doc.selector(selector)
	if err != nil {
		return nil
	}
	var out []*Node
	for _, h := range sel.MatchAll(n.h) {
		if h == n.h {
			continue
		}
		out = append(out, n.doc.wrap(h))
	}
	return out
}
