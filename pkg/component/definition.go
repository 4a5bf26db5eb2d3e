// Package component ties properties, delegation, light-tree ownership and
// rendering together into custom element instances.
//
// A Definition describes an element type. A Registry turns definitions into
// Instances, either explicitly with Create or by upgrading parsed markup.
// Each Instance is the custom element behavior, mutation interceptor and
// light-tree owner of its host node:
//
//	reg := component.NewRegistry()
//	_ = reg.Define(&component.Definition{
//		Name: "x-counter",
//		Properties: map[string]property.Declaration{
//			"count": {Types: []reflect.Type{property.Number}, Attribute: "count", Default: 0.0},
//		},
//	})
//	c, _ := reg.Create(doc, "x-counter", nil)
//	_ = doc.Body().AppendChild(c.Node())
//
// While an instance is connected and not rendering, child mutations on its
// host node only update the instance's logical child list and request an
// update. The renderer then places those children with native mutations.
package component

import (
	"strings"

	"github.com/go-drift/lumen/pkg/delegate"
	"github.com/go-drift/lumen/pkg/dom"
	"github.com/go-drift/lumen/pkg/property"
	"github.com/go-drift/lumen/pkg/render"
)

// RenderFunc returns the template for the current state of c. A nil
// template renders nothing.
type RenderFunc func(c *Instance) (*render.Template, error)

// Listener is a delegated listener installed on every instance at
// initialization.
type Listener struct {
	Event    string
	Selector string
	Capture  bool
	Handle   func(c *Instance, e *dom.Event, target *dom.Node) bool
}

// Definition describes a custom element type. It must not be modified after
// it is passed to Registry.Define.
type Definition struct {
	// Name is the custom element name. It must start with a lowercase
	// letter and contain a dash.
	Name string
	// Extends names the built-in element a customized built-in extends,
	// either as a tag ("button") or an interface name ("HTMLButtonElement").
	Extends string
	// Parent is the definition properties, listeners and hooks are
	// inherited from. It does not need to be registered.
	Parent *Definition

	Properties map[string]property.Declaration
	Listeners  []Listener

	// Render defaults to rendering the light children in order.
	Render RenderFunc

	Connected    func(c *Instance)
	Disconnected func(c *Instance)
	Updated      func(c *Instance)
	Changed      func(c *Instance, name string, oldValue, newValue any)
	ShouldUpdate func(c *Instance, name string, oldValue, newValue any) bool
}

// chain returns d and its ancestors, nearest first.
func (d *Definition) chain() []*Definition {
	var out []*Definition
	seen := make(map[*Definition]bool)
	for x := d; x != nil && !seen[x]; x = x.Parent {
		seen[x] = true
		out = append(out, x)
	}
	return out
}

func (d *Definition) renderFunc() RenderFunc {
	for _, x := range d.chain() {
		if x.Render != nil {
			return x.Render
		}
	}
	return nil
}

func (d *Definition) connectedHook() func(*Instance) {
	for _, x := range d.chain() {
		if x.Connected != nil {
			return x.Connected
		}
	}
	return nil
}

func (d *Definition) disconnectedHook() func(*Instance) {
	for _, x := range d.chain() {
		if x.Disconnected != nil {
			return x.Disconnected
		}
	}
	return nil
}

func (d *Definition) updatedHook() func(*Instance) {
	for _, x := range d.chain() {
		if x.Updated != nil {
			return x.Updated
		}
	}
	return nil
}

func (d *Definition) changedHook() func(*Instance, string, any, any) {
	for _, x := range d.chain() {
		if x.Changed != nil {
			return x.Changed
		}
	}
	return nil
}

func (d *Definition) shouldUpdateHook() func(*Instance, string, any, any) bool {
	for _, x := range d.chain() {
		if x.ShouldUpdate != nil {
			return x.ShouldUpdate
		}
	}
	return nil
}

// listeners returns the declared listeners, ancestors first.
func (d *Definition) listeners() []Listener {
	chain := d.chain()
	var out []Listener
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].Listeners...)
	}
	return out
}

// Tag returns the tag name of elements of this definition.
func (d *Definition) Tag() string {
	if d.Extends == "" {
		return d.Name
	}
	tag, _ := ExtendsTag(d.Extends)
	return tag
}

// handler adapts l to the delegation multiplexer for instance c.
func (l Listener) handler(c *Instance) *delegate.Handler {
	return delegate.NewHandler(func(e *dom.Event, target *dom.Node) bool {
		return l.Handle(c, e, target)
	})
}

// builtins maps the interface name of each extendable built-in element to
// its tag.
var builtins = map[string]string{
	"HTMLAnchorElement":    "a",
	"HTMLAreaElement":      "area",
	"HTMLAudioElement":     "audio",
	"HTMLButtonElement":    "button",
	"HTMLCanvasElement":    "canvas",
	"HTMLDListElement":     "dl",
	"HTMLDetailsElement":   "details",
	"HTMLDialogElement":    "dialog",
	"HTMLDivElement":       "div",
	"HTMLFieldSetElement":  "fieldset",
	"HTMLFormElement":      "form",
	"HTMLHeadingElement":   "h1",
	"HTMLImageElement":     "img",
	"HTMLInputElement":     "input",
	"HTMLLIElement":        "li",
	"HTMLLabelElement":     "label",
	"HTMLLinkElement":      "link",
	"HTMLMenuElement":      "menu",
	"HTMLMeterElement":     "meter",
	"HTMLOListElement":     "ol",
	"HTMLOptionElement":    "option",
	"HTMLOutputElement":    "output",
	"HTMLParagraphElement": "p",
	"HTMLPreElement":       "pre",
	"HTMLProgressElement":  "progress",
	"HTMLSelectElement":    "select",
	"HTMLSpanElement":      "span",
	"HTMLTableElement":     "table",
	"HTMLTextAreaElement":  "textarea",
	"HTMLUListElement":     "ul",
	"HTMLVideoElement":     "video",
}

// builtinTags is the set of tags that may be extended.
var builtinTags = func() map[string]bool {
	tags := make(map[string]bool, len(builtins))
	for _, tag := range builtins {
		tags[tag] = true
	}
	return tags
}()

// ExtendsTag resolves an Extends value, interface name or tag, to the tag
// of the extended built-in element.
func ExtendsTag(extends string) (string, bool) {
	if tag, ok := builtins[extends]; ok {
		return tag, true
	}
	tag := strings.ToLower(extends)
	return tag, builtinTags[tag]
}

// ValidName reports whether name is a valid custom element name.
func ValidName(name string) bool {
	if name == "" || name[0] < 'a' || name[0] > 'z' || !strings.Contains(name, "-") {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
		default:
			return false
		}
	}
	return true
}
