package component

import (
	"maps"
	"slices"

	"github.com/go-drift/lumen/pkg/delegate"
	"github.com/go-drift/lumen/pkg/dom"
	"github.com/go-drift/lumen/pkg/errors"
	"github.com/go-drift/lumen/pkg/property"
	"github.com/go-drift/lumen/pkg/render"
)

// Instance is a component attached to a host element.
//
// An Instance is constructed, initialized exactly once, then connected and
// disconnected any number of times. It is not safe for concurrent use.
type Instance struct {
	registry *Registry
	def      *Definition
	node     *dom.Node
	store    *property.Store
	observed []string
	attrs    map[string]string

	initialized   bool
	connected     bool
	connectedOnce bool
	rendering     bool
	batch         int
	pending       bool
	// lastChanged is the property currently syncing with its attribute.
	lastChanged string

	slotChildNodes []*dom.Node
	anchors        map[*dom.Node]*Anchor
	ctx            *render.Context
	overrides      map[string]any
	// fromAttribute marks overrides read from attributes before Initialize.
	fromAttribute map[string]bool
	handlers      []*delegate.Handler
}

func newInstance(r *Registry, def *Definition, node *dom.Node, presets map[string]any) *Instance {
	props := r.Properties(def)
	c := &Instance{
		registry:  r,
		def:       def,
		node:      node,
		observed:  property.ObservedAttributes(props),
		attrs:     property.AttributeIndex(props),
		anchors:   make(map[*dom.Node]*Anchor),
		ctx:       render.NewContext(node),
		overrides: make(map[string]any),

		fromAttribute: make(map[string]bool),
	}
	c.store = property.NewStore(c, props)

	for attr, name := range c.attrs {
		if raw, ok := node.GetAttribute(attr); ok {
			c.overrides[name] = property.FromAttribute(props[name], raw, true)
			c.fromAttribute[name] = true
		}
	}
	for name, v := range presets {
		c.overrides[name] = v
		delete(c.fromAttribute, name)
	}

	node.SetBehavior(c)
	node.SetInterceptor(c)
	return c
}

// Node returns the host element.
func (c *Instance) Node() *dom.Node { return c.node }

// Definition returns the definition c was created from.
func (c *Instance) Definition() *Definition { return c.def }

// Initialized reports whether Initialize has run.
func (c *Instance) Initialized() bool { return c.initialized }

// Connected reports whether c is connected.
func (c *Instance) Connected() bool { return c.connected }

// Rendering reports whether a render pass is in progress.
func (c *Instance) Rendering() bool { return c.rendering }

// Context returns the persistent render context.
func (c *Instance) Context() *render.Context { return c.ctx }

// OwnerElement returns the host element; it makes c a dom.Owner.
func (c *Instance) OwnerElement() *dom.Node { return c.node }

// Initialize installs declared listeners, applies initial values, then
// replays the values captured before initialization through the property
// setters. Every capture is replayed; failures are joined into the returned
// error and leave the failing properties at their initial values.
func (c *Instance) Initialize() error {
	const op = "component.Initialize"
	if c.initialized {
		return &errors.LumenError{Op: op, Kind: errors.KindLifecycle, Node: c.node.String(), Err: errors.ErrAlreadyInitialized}
	}
	for _, l := range c.def.listeners() {
		h := l.handler(c)
		if err := delegate.Delegate(c.node, l.Event, l.Selector, h, delegate.Options{Capture: l.Capture}); err != nil {
			return err
		}
		c.handlers = append(c.handlers, h)
	}
	c.store.Init()
	c.initialized = true

	overrides := c.overrides
	c.overrides = nil
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(overrides)) {
		d := c.store.Declaration(name)
		if d == nil {
			errs = append(errs, errors.New(op, errors.KindType,
				&errors.TypeError{Name: name, Value: overrides[name], Reason: "undeclared property"}))
			continue
		}
		if !d.RoundTrips() {
			continue
		}
		if err := c.replay(name, overrides[name]); err != nil {
			errs = append(errs, err)
		}
	}
	c.fromAttribute = nil
	return errors.Join(errs...)
}

// replay sets an override. Values read from attributes are not reflected
// back.
func (c *Instance) replay(name string, value any) error {
	if c.fromAttribute[name] {
		prev := c.lastChanged
		c.lastChanged = name
		defer func() { c.lastChanged = prev }()
	}
	return c.store.Set(name, value)
}

// Get returns the value of a property. Before Initialize it returns the
// latest captured write, if any.
func (c *Instance) Get(name string) any {
	if v, ok := c.overrides[name]; ok {
		return v
	}
	return c.store.Get(name)
}

// Set writes a property. Before Initialize the value is captured and
// replayed by Initialize, replacing any earlier capture.
func (c *Instance) Set(name string, value any) error {
	if !c.initialized {
		if c.store.Declaration(name) == nil {
			return errors.New("property.Set", errors.KindType,
				&errors.TypeError{Name: name, Value: value, Reason: "undeclared property"})
		}
		c.overrides[name] = value
		delete(c.fromAttribute, name)
		return nil
	}
	return c.store.Set(name, value)
}

// Values returns the current value of every declared property.
func (c *Instance) Values() map[string]any {
	out := make(map[string]any)
	for name := range c.store.Declarations() {
		out[name] = c.Get(name)
	}
	return out
}

// Properties returns the merged property declarations.
func (c *Instance) Properties() map[string]*property.Declaration {
	return c.store.Declarations()
}

// Observe registers fn for changes of name, or of every property when name
// is empty.
func (c *Instance) Observe(name string, fn property.ObserverFunc) *property.Observer {
	return c.store.Observe(name, fn)
}

// Unobserve removes an observer registered with Observe.
func (c *Instance) Unobserve(o *property.Observer) bool {
	return c.store.Unobserve(o)
}

// ObservedAttributes returns the attribute names bound to properties.
func (c *Instance) ObservedAttributes() []string { return c.observed }

// PropertyChanged reflects a changed property to its bound attribute.
func (c *Instance) PropertyChanged(name string, oldValue, newValue any) {
	d := c.store.Declaration(name)
	if d.Reflected() && c.lastChanged != name {
		c.reflect(d, newValue)
	}
	if hook := c.def.changedHook(); hook != nil {
		hook(c, name, oldValue, newValue)
	}
}

// StateChanged runs the change hook for state properties.
func (c *Instance) StateChanged(name string, oldValue, newValue any) {
	if hook := c.def.changedHook(); hook != nil {
		hook(c, name, oldValue, newValue)
	}
}

// reflect writes the attribute of d only when its value differs.
func (c *Instance) reflect(d *property.Declaration, value any) {
	prev := c.lastChanged
	c.lastChanged = d.Name
	defer func() { c.lastChanged = prev }()

	r := property.ToAttribute(d, value)
	cur, present := c.node.GetAttribute(d.Attribute)
	switch r.Op {
	case property.ReflectRemove:
		if present {
			c.node.RemoveAttribute(d.Attribute)
		}
	case property.ReflectSet:
		if !present || cur != r.Value {
			c.node.SetAttribute(d.Attribute, r.Value)
		}
	}
}

// DispatchChange dispatches a property change event from the host.
func (c *Instance) DispatchChange(event string, change property.Change) {
	c.node.DispatchEvent(dom.NewCustomEvent(event, change))
}

// ShouldUpdate reports whether a property change should request an update.
func (c *Instance) ShouldUpdate(name string, oldValue, newValue any) bool {
	if hook := c.def.shouldUpdateHook(); hook != nil {
		return hook(c, name, oldValue, newValue)
	}
	return true
}

// AttributeChangedCallback assigns the bound property from the attribute,
// unless the property itself is writing the attribute.
func (c *Instance) AttributeChangedCallback(name, oldValue, newValue string, present bool) {
	prop, ok := c.attrs[name]
	if !ok || c.lastChanged == prop {
		return
	}
	d := c.store.Declaration(prop)
	value := property.FromAttribute(d, newValue, present)
	if !c.initialized {
		c.overrides[prop] = value
		c.fromAttribute[prop] = true
		return
	}

	prev := c.lastChanged
	c.lastChanged = prop
	defer func() { c.lastChanged = prev }()
	if err := c.store.Set(prop, value); err != nil {
		errors.Report(&errors.LumenError{
			Op:   "component.AttributeChangedCallback",
			Kind: errors.KindType,
			Node: c.node.String(),
			Err:  err,
		})
	}
}

// ConnectedCallback takes ownership of the current light children and
// requests an update. The first connection also stamps the element.
func (c *Instance) ConnectedCallback() {
	if !c.initialized {
		if err := c.Initialize(); err != nil {
			errors.Report(&errors.LumenError{Op: "component.ConnectedCallback", Kind: errors.KindLifecycle, Node: c.node.String(), Err: err})
			if !c.initialized {
				return
			}
		}
	}
	if !c.connectedOnce {
		c.connectedOnce = true
		if c.def.Extends != "" {
			c.node.SetAttribute("is", c.def.Name)
		}
		c.node.AddClass(c.def.Name)
	}
	c.captureChildren()
	c.connected = true
	c.registry.logger.Debug().Str("name", c.def.Name).Int("children", len(c.slotChildNodes)).Msg("component connected")
	if hook := c.def.connectedHook(); hook != nil {
		hook(c)
	}
	c.RequestUpdate()
}

// DisconnectedCallback empties the render output, resets the render context
// and puts the light children back as real children.
func (c *Instance) DisconnectedCallback() {
	c.connected = false
	if err := c.registry.renderer.Render(c.ctx, nil); err != nil {
		errors.Report(&errors.LumenError{Op: "component.DisconnectedCallback", Kind: errors.KindRender, Node: c.node.String(), Err: err})
	}
	c.ctx.Reset()
	c.restoreChildren()
	c.registry.logger.Debug().Str("name", c.def.Name).Msg("component disconnected")
	if hook := c.def.disconnectedHook(); hook != nil {
		hook(c)
	}
}
