package cmd

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/go-drift/lumen/cmd/lumen/internal/config"
	"github.com/go-drift/lumen/pkg/component"
	"github.com/go-drift/lumen/pkg/dom"
	"github.com/go-drift/lumen/pkg/errors"
	"github.com/go-drift/lumen/pkg/property"
	"github.com/go-drift/lumen/pkg/render"
)

var typesByName = map[string]reflect.Type{
	"array":   property.Array,
	"boolean": property.Boolean,
	"number":  property.Number,
	"object":  property.Object,
	"string":  property.String,
}

// buildDefinitions turns manifest components into definitions, linking
// inherited parents. Order follows the manifest.
func buildDefinitions(components []config.ComponentConfig) ([]*component.Definition, error) {
	byName := make(map[string]*component.Definition, len(components))
	defs := make([]*component.Definition, 0, len(components))
	for _, c := range components {
		def, err := buildDefinition(c)
		if err != nil {
			return nil, err
		}
		byName[c.Name] = def
		defs = append(defs, def)
	}
	for _, c := range components {
		if c.Inherits == "" {
			continue
		}
		parent, ok := byName[c.Inherits]
		if !ok {
			return nil, fmt.Errorf("%s: inherits unknown component %q", c.Name, c.Inherits)
		}
		byName[c.Name].Parent = parent
	}
	for _, def := range defs {
		if cyclic(def) {
			return nil, fmt.Errorf("%s: inheritance cycle", def.Name)
		}
	}
	return defs, nil
}

func cyclic(def *component.Definition) bool {
	seen := map[*component.Definition]bool{}
	for d := def; d != nil; d = d.Parent {
		if seen[d] {
			return true
		}
		seen[d] = true
	}
	return false
}

func buildDefinition(c config.ComponentConfig) (*component.Definition, error) {
	def := &component.Definition{
		Name:       c.Name,
		Extends:    c.Extends,
		Properties: make(map[string]property.Declaration, len(c.Properties)),
	}
	for _, name := range slices.Sorted(maps.Keys(c.Properties)) {
		p := c.Properties[name]
		d := property.Declaration{
			Attribute: p.Attribute,
			Default:   p.Default,
			Event:     p.Event,
			State:     p.State,
			NoUpdate:  p.NoUpdate,
		}
		for _, typ := range p.Type {
			t, ok := typesByName[typ]
			if !ok {
				return nil, fmt.Errorf("%s.%s: unknown type %q", c.Name, name, typ)
			}
			d.Types = append(d.Types, t)
		}
		def.Properties[name] = d
	}
	for _, l := range c.Listeners {
		def.Listeners = append(def.Listeners, listener(l))
	}
	if c.Template != "" {
		tpl, err := render.ParseHTML(c.Name, c.Template)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		def.Render = func(inst *component.Instance) (*render.Template, error) {
			return tpl.Execute(inst.Node().Document(), inst.Values(), inst.ChildNodesBySlot)
		}
	}
	return def, nil
}

// listener builds the handler running the actions of l: toggle, then set,
// then emit. A stop listener returns false.
func listener(l config.ListenerConfig) component.Listener {
	return component.Listener{
		Event:    l.Event,
		Selector: l.Selector,
		Capture:  l.Capture,
		Handle: func(c *component.Instance, e *dom.Event, target *dom.Node) bool {
			if l.Toggle != "" {
				on, _ := c.Get(l.Toggle).(bool)
				if err := c.Set(l.Toggle, !on); err != nil {
					errors.Report(&errors.LumenError{Op: "cmd.listener", Kind: errors.KindType, Node: target.String(), Err: err})
				}
			}
			if len(l.Set) > 0 {
				if err := c.Assign(l.Set); err != nil {
					errors.Report(&errors.LumenError{Op: "cmd.listener", Kind: errors.KindType, Node: target.String(), Err: err})
				}
			}
			if l.Emit != "" {
				c.DispatchEvent(dom.NewEvent(l.Emit, dom.EventInit{Bubbles: true, Composed: true, Detail: e.Type()}))
			}
			return !l.Stop
		},
	}
}
