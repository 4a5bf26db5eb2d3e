package component

import (
	"maps"
	"slices"

	"github.com/go-drift/lumen/pkg/errors"
	"github.com/go-drift/lumen/pkg/render"
)

// RequestUpdate renders c unless it is disconnected or updates are being
// collected, in which case it reports false. A request made while
// collecting is remembered and served when collection ends.
func (c *Instance) RequestUpdate() bool {
	if !c.connected {
		return false
	}
	if c.batch > 0 {
		c.pending = true
		return false
	}
	if err := c.ForceUpdate(); err != nil {
		errors.Report(&errors.LumenError{Op: "component.RequestUpdate", Kind: errors.KindRender, Node: c.node.String(), Err: err})
	}
	return true
}

// ForceUpdate renders c now.
func (c *Instance) ForceUpdate() error {
	c.batch++
	c.rendering = true
	err := c.render()
	c.rendering = false
	c.CollectUpdatesEnd()
	if err != nil {
		return err
	}
	if hook := c.def.updatedHook(); hook != nil {
		hook(c)
	}
	return nil
}

func (c *Instance) render() error {
	var tpl *render.Template
	if fn := c.def.renderFunc(); fn != nil {
		var err error
		if tpl, err = fn(c); err != nil {
			return &errors.LumenError{Op: "component.Render", Kind: errors.KindRender, Node: c.node.String(), Err: err}
		}
	} else {
		tpl = render.New(c.SlotChildNodes()...)
	}
	return c.registry.renderer.Render(c.ctx, tpl)
}

// CollectUpdatesStart defers update requests until the matching
// CollectUpdatesEnd.
func (c *Instance) CollectUpdatesStart() {
	c.batch++
}

// CollectUpdatesEnd closes one CollectUpdatesStart. When the last one
// closes and an update was requested meanwhile, it requests it once and
// reports whether it rendered.
func (c *Instance) CollectUpdatesEnd() bool {
	if c.batch > 0 {
		c.batch--
	}
	if c.batch == 0 && c.pending {
		c.pending = false
		return c.RequestUpdate()
	}
	return false
}

// Assign sets several properties, in name order, with at most one render.
// It stops at the first failing property.
func (c *Instance) Assign(values map[string]any) error {
	c.CollectUpdatesStart()
	defer c.CollectUpdatesEnd()
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if err := c.Set(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}
