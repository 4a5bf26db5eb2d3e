package component

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/go-drift/lumen/pkg/dom"
	"github.com/go-drift/lumen/pkg/errors"
	"github.com/go-drift/lumen/pkg/property"
	"github.com/go-drift/lumen/pkg/render"
)

// Renderer reconciles a template into the host element of ctx.
type Renderer interface {
	Render(ctx *render.Context, tpl *render.Template) error
}

// Registry holds the defined element types.
type Registry struct {
	mu       sync.RWMutex
	defs     map[string]*Definition
	declared map[*Definition]bool
	props    *property.Registry
	renderer Renderer
	logger   zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the debug logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithRenderer replaces the default render.Reconciler.
func WithRenderer(renderer Renderer) Option {
	return func(r *Registry) {
		r.renderer = renderer
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		defs:     make(map[string]*Definition),
		declared: make(map[*Definition]bool),
		props:    property.NewRegistry(),
		renderer: render.Reconciler{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Define registers def. Its property declarations, and those of its
// parents, are merged and frozen.
func (r *Registry) Define(def *Definition) error {
	const op = "component.Define"
	if def == nil || !ValidName(def.Name) {
		name := ""
		if def != nil {
			name = def.Name
		}
		return errors.New(op, errors.KindType,
			&errors.TypeError{Name: "name", Value: name, Reason: "expected a lowercase name containing a dash"})
	}
	if def.Extends != "" {
		if _, ok := ExtendsTag(def.Extends); !ok {
			return errors.New(op, errors.KindType,
				&errors.TypeError{Name: "extends", Value: def.Extends, Reason: "not an extendable built-in element"})
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[def.Name]; ok {
		return errors.New(op, errors.KindLifecycle, fmt.Errorf("%w: %s", errors.ErrAlreadyDefined, def.Name))
	}
	for _, d := range slices.Backward(def.chain()) {
		if err := r.declare(d); err != nil {
			return err
		}
	}
	props := r.props.Properties(def)
	r.defs[def.Name] = def
	r.logger.Debug().
		Str("name", def.Name).
		Str("extends", def.Extends).
		Strs("observed", property.ObservedAttributes(props)).
		Msg("component defined")
	return nil
}

// declare registers the declarations of d once. Callers hold r.mu.
func (r *Registry) declare(d *Definition) error {
	if r.declared[d] {
		return nil
	}
	for _, name := range slices.Sorted(maps.Keys(d.Properties)) {
		if err := r.props.Define(d, name, d.Properties[name]); err != nil {
			return err
		}
	}
	if d.Parent != nil {
		r.props.Inherit(d, d.Parent)
	}
	r.declared[d] = true
	return nil
}

// Lookup returns the definition registered under name, or nil.
func (r *Registry) Lookup(name string) *Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defs[name]
}

// Names returns the defined element names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.defs))
}

// Properties returns the merged declarations of def.
func (r *Registry) Properties(def *Definition) map[string]*property.Declaration {
	return r.props.Properties(def)
}

// Create creates a detached element for the definition registered under
// name and returns its initialized instance.
func (r *Registry) Create(doc *dom.Document, name string, presets map[string]any) (*Instance, error) {
	def := r.Lookup(name)
	if def == nil {
		return nil, errors.New("component.Create", errors.KindLifecycle, fmt.Errorf("%w: %s", errors.ErrUnknownComponent, name))
	}
	if doc == nil {
		return nil, errors.New("component.Create", errors.KindLifecycle, errors.ErrNoHost)
	}
	c, err := r.Construct(def, doc.CreateElement(def.Tag()), presets)
	if err != nil {
		return nil, err
	}
	if err := c.Initialize(); err != nil {
		return nil, err
	}
	return c, nil
}

// Upgrade attaches instances to root and every descendant element whose
// tag, or is attribute for customized built-ins, names a definition.
// Connected elements receive their connected callback.
func (r *Registry) Upgrade(root *dom.Node) ([]*Instance, error) {
	if root == nil {
		return nil, errors.New("component.Upgrade", errors.KindLifecycle, errors.ErrNoHost)
	}
	var candidates []*dom.Node
	var walk func(n *dom.Node)
	walk = func(n *dom.Node) {
		if n.IsElement() && n.Behavior() == nil && r.match(n) != nil {
			candidates = append(candidates, n)
		}
		for _, c := range n.ChildNodes() {
			walk(c)
		}
	}
	walk(root)

	var out []*Instance
	for _, n := range candidates {
		if n.Behavior() != nil {
			continue
		}
		c, err := r.Construct(r.match(n), n, nil)
		if err != nil {
			return out, err
		}
		if err := c.Initialize(); err != nil {
			return out, err
		}
		out = append(out, c)
		r.logger.Debug().Str("name", c.def.Name).Str("node", n.String()).Msg("component upgraded")
		if n.IsConnected() {
			c.ConnectedCallback()
		}
	}
	return out, nil
}

// match returns the definition n should be upgraded to, or nil.
func (r *Registry) match(n *dom.Node) *Definition {
	if is, ok := n.GetAttribute("is"); ok {
		def := r.Lookup(is)
		if def != nil && def.Extends != "" && def.Tag() == n.TagName() {
			return def
		}
		return nil
	}
	def := r.Lookup(n.TagName())
	if def != nil && def.Extends == "" {
		return def
	}
	return nil
}

// Construct attaches a new instance of def to node. presets are replayed
// through the property setters at initialization, after the values of
// observed attributes already present on node.
func (r *Registry) Construct(def *Definition, node *dom.Node, presets map[string]any) (*Instance, error) {
	const op = "component.Construct"
	if node == nil || node.Document() == nil {
		return nil, errors.New(op, errors.KindLifecycle, errors.ErrNoHost)
	}
	if !node.IsElement() {
		return nil, errors.New(op, errors.KindType,
			&errors.TypeError{Name: "node", Value: node.String(), Reason: "expected an element"})
	}
	if node.Behavior() != nil {
		return nil, &errors.LumenError{Op: op, Kind: errors.KindLifecycle, Node: node.String(), Err: errors.ErrAlreadyInitialized}
	}
	if def == nil || r.Lookup(def.Name) != def {
		return nil, errors.New(op, errors.KindLifecycle, errors.ErrUnknownComponent)
	}
	return newInstance(r, def, node, presets), nil
}
