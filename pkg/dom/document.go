package dom

import (
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document owns a host tree and the Node wrappers of its html nodes.
type Document struct {
	root      *Node
	nodes     map[*html.Node]*Node
	selectors map[string]cascadia.Selector
	logger    zerolog.Logger
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used for debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Document) {
		d.logger = l
	}
}

func newDocument(h *html.Node, opts []Option) *Document {
	d := &Document{
		nodes:     make(map[*html.Node]*Node),
		selectors: make(map[string]cascadia.Selector),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.root = d.wrap(h)
	return d
}

// NewDocument creates an empty document with html, head and body elements.
func NewDocument(opts ...Option) *Document {
	h := &html.Node{Type: html.DocumentNode}
	htmlEl := &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
	htmlEl.AppendChild(&html.Node{Type: html.ElementNode, Data: "head", DataAtom: atom.Head})
	htmlEl.AppendChild(&html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	h.AppendChild(htmlEl)
	return newDocument(h, opts)
}

// Parse reads an HTML document.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	h, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return newDocument(h, opts), nil
}

// Root returns the document node.
func (d *Document) Root() *Node {
	return d.root
}

// Logger returns the document logger.
func (d *Document) Logger() zerolog.Logger {
	return d.logger
}

// Body returns the body element, or nil if the document has none.
func (d *Document) Body() *Node {
	return d.root.find(func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
}

// GetElementByID returns the first connected element with the given id.
func (d *Document) GetElementByID(id string) *Node {
	return d.root.find(func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		v, ok := attr(n, "id")
		return ok && v == id
	})
}

// CreateElement creates a detached element.
func (d *Document) CreateElement(tag string) *Node {
	tag = strings.ToLower(tag)
	return d.wrap(&html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))})
}

// CreateTextNode creates a detached text node.
func (d *Document) CreateTextNode(text string) *Node {
	return d.wrap(&html.Node{Type: html.TextNode, Data: text})
}

// CreateComment creates a detached comment node.
func (d *Document) CreateComment(text string) *Node {
	return d.wrap(&html.Node{Type: html.CommentNode, Data: text})
}

// CreateDocumentFragment creates an empty fragment. Inserting a fragment
// moves its children instead of the fragment itself.
func (d *Document) CreateDocumentFragment() *Node {
	n := d.wrap(&html.Node{Type: html.DocumentNode})
	n.fragment = true
	return n
}

// ParseFragment parses src as the content of an element with the given tag
// and returns the resulting detached nodes.
func (d *Document) ParseFragment(src string, contextTag string) ([]*Node, error) {
	if contextTag == "" {
		contextTag = "body"
	}
	context := &html.Node{Type: html.ElementNode, Data: contextTag, DataAtom: atom.Lookup([]byte(contextTag))}
	hs, err := html.ParseFragment(strings.NewReader(src), context)
	if err != nil {
		return nil, err
	}
	nodes := make([]*Node, 0, len(hs))
	for _, h := range hs {
		nodes = append(nodes, d.wrap(h))
	}
	return nodes, nil
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root.h)
}

// wrap returns the Node for h, creating it on first use.
func (d *Document) wrap(h *html.Node) *Node {
	if h == nil {
		return nil
	}
	if n, ok := d.nodes[h]; ok {
		return n
	}
	n := &Node{doc: d, h: h}
	d.nodes[h] = n
	return n
}

// selector returns the compiled selector for s, caching it.
func (d *Document) selector(s string) (cascadia.Selector, error) {
	if sel, ok := d.selectors[s]; ok {
		return sel, nil
	}
	sel, err := cascadia.Compile(s)
	if err != nil {
		return nil, err
	}
	d.selectors[s] = sel
	return sel, nil
}

// ValidSelector reports whether s parses as a CSS selector.
func ValidSelector(s string) error {
	_, err := cascadia.Compile(s)
	return err
}
