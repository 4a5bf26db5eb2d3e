package testing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-drift/lumen/pkg/component"
	"github.com/go-drift/lumen/pkg/dom"
)

// MountID is the id of the element components are mounted under.
const MountID = "lumen-test-root"

// ErrNoMatch is returned when an interaction finds no target node.
var ErrNoMatch = errors.New("finder matched no node")

// ComponentTester mounts components into an isolated document and drives
// them the way a host page would: markup is upgraded in tree order and
// input is delivered as DOM events.
type ComponentTester struct {
	doc      *dom.Document
	registry *component.Registry
	root     *dom.Node
	mounted  []*component.Instance
}

// NewComponentTester creates a tester with defs defined on a fresh
// registry. Call Cleanup() when done, or use NewComponentTesterWithT()
// instead.
func NewComponentTester(defs ...*component.Definition) (*ComponentTester, error) {
	doc := dom.NewDocument()
	t := &ComponentTester{
		doc:      doc,
		registry: component.NewRegistry(),
		root:     doc.CreateElement("div"),
	}
	t.root.SetAttribute("id", MountID)
	if err := doc.Body().AppendChild(t.root); err != nil {
		return nil, err
	}
	for _, def := range defs {
		if err := t.registry.Define(def); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// NewComponentTesterWithT creates a tester that auto-cleans up via
// t.Cleanup(). This is the recommended constructor for tests.
func NewComponentTesterWithT(t testing.TB, defs ...*component.Definition) *ComponentTester {
	t.Helper()
	tester, err := NewComponentTester(defs...)
	if err != nil {
		t.Fatalf("NewComponentTester: %v", err)
	}
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup disconnects every mounted component.
func (t *ComponentTester) Cleanup() {
	t.unmount()
}

func (t *ComponentTester) unmount() {
	for _, n := range t.root.ChildNodes() {
		_ = t.root.RemoveChild(n)
	}
	t.mounted = nil
}

// Document returns the test document.
func (t *ComponentTester) Document() *dom.Document { return t.doc }

// Registry returns the registry the tester upgrades with.
func (t *ComponentTester) Registry() *component.Registry { return t.registry }

// Root returns the mount element.
func (t *ComponentTester) Root() *dom.Node { return t.root }

// Mount replaces the mounted tree with markup and upgrades it. It returns
// the instances created, in tree order.
func (t *ComponentTester) Mount(markup string) ([]*component.Instance, error) {
	t.unmount()
	nodes, err := t.doc.ParseFragment(markup, "div")
	if err != nil {
		return nil, err
	}
	if err := t.root.Append(nodes...); err != nil {
		return nil, err
	}
	t.mounted, err = t.registry.Upgrade(t.root)
	return t.mounted, err
}

// Create creates the component name with presets and appends it to the
// mount element.
func (t *ComponentTester) Create(name string, presets map[string]any) (*component.Instance, error) {
	c, err := t.registry.Create(t.doc, name, presets)
	if err != nil {
		return nil, err
	}
	if err := t.root.AppendChild(c.Node()); err != nil {
		return nil, err
	}
	t.mounted = append(t.mounted, c)
	return c, nil
}

// Mounted returns the instances created by Mount and Create.
func (t *ComponentTester) Mounted() []*component.Instance {
	return t.mounted
}

// Find evaluates a finder against the mounted tree.
func (t *ComponentTester) Find(finder Finder) FinderResult {
	return FinderResult{
		nodes:  finder.Evaluate(t.root),
		finder: finder,
	}
}

// Dispatch dispatches e from the first node matched by finder and reports
// whether its default action was not prevented.
func (t *ComponentTester) Dispatch(finder Finder, e *dom.Event) (bool, error) {
	n := t.Find(finder).FirstOrNil()
	if n == nil {
		return false, fmt.Errorf("%w: %s", ErrNoMatch, finder.Description())
	}
	return n.DispatchEvent(e), nil
}

// Click dispatches a bubbling, cancelable click on the first node matched
// by finder.
func (t *ComponentTester) Click(finder Finder) error {
	_, err := t.Dispatch(finder, dom.NewEvent("click", dom.EventInit{Bubbles: true, Cancelable: true, Composed: true}))
	return err
}

// HTML returns the markup of the mounted tree.
func (t *ComponentTester) HTML() string {
	return t.root.InnerHTML()
}

// PrettyHTML returns the indented markup of the mounted tree.
func (t *ComponentTester) PrettyHTML() string {
	return t.root.PrettyHTML()
}
