package testing

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/go-drift/lumen/pkg/component"
	"github.com/go-drift/lumen/pkg/dom"
	"github.com/go-drift/lumen/pkg/property"
	"github.com/go-drift/lumen/pkg/render"
)

const toggleTemplate = `<button type="button">{{.label}}</button><span class="state">{{if .on}}on{{else}}off{{end}}</span><slot></slot>`

// newToggle returns a definition for x-toggle: a button flipping the
// reflected "on" property.
func newToggle(t testing.TB) *component.Definition {
	t.Helper()
	tpl, err := render.ParseHTML("x-toggle", toggleTemplate)
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	return &component.Definition{
		Name: "x-toggle",
		Properties: map[string]property.Declaration{
			"label": {Types: []reflect.Type{property.String}, Attribute: "label", Default: "Toggle"},
			"on":    {Types: []reflect.Type{property.Boolean}, Attribute: "on"},
		},
		Listeners: []component.Listener{{
			Event:    "click",
			Selector: "button",
			Handle: func(c *component.Instance, _ *dom.Event, _ *dom.Node) bool {
				on, _ := c.Get("on").(bool)
				_ = c.Set("on", !on)
				return true
			},
		}},
		Render: func(c *component.Instance) (*render.Template, error) {
			return tpl.Execute(c.Node().Document(), c.Values(), c.ChildNodesBySlot)
		},
	}
}

func TestNewComponentTester_Defaults(t *testing.T) {
	tester := NewComponentTesterWithT(t, newToggle(t))

	if id, _ := tester.Root().GetAttribute("id"); id != MountID {
		t.Errorf("expected mount id %q, got %q", MountID, id)
	}
	if !tester.Root().IsConnected() {
		t.Error("expected the mount element to be connected")
	}
	if tester.Registry().Lookup("x-toggle") == nil {
		t.Error("expected x-toggle to be defined")
	}
}

func TestNewComponentTester_InvalidDefinition(t *testing.T) {
	if _, err := NewComponentTester(&component.Definition{Name: "toggle"}); err == nil {
		t.Error("expected an invalid name to fail")
	}
}

func TestMount_UpgradesAndRenders(t *testing.T) {
	tester := NewComponentTesterWithT(t, newToggle(t))

	instances, err := tester.Mount(`<x-toggle label="Power"></x-toggle><p>plain</p>`)
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(instances))
	}
	want := `<x-toggle label="Power" class="x-toggle"><button type="button">Power</button><span class="state">off</span></x-toggle><p>plain</p>`
	if got := tester.HTML(); got != want {
		t.Errorf("HTML() = %q, want %q", got, want)
	}
}

func TestMount_Remount(t *testing.T) {
	tester := NewComponentTesterWithT(t, newToggle(t))

	first, _ := tester.Mount(`<x-toggle></x-toggle>`)
	second, _ := tester.Mount(`<x-toggle></x-toggle>`)

	if first[0] == second[0] {
		t.Error("expected a new instance after remount")
	}
	if first[0].Connected() {
		t.Error("expected the first instance to be disconnected")
	}
	if len(tester.Mounted()) != 1 {
		t.Errorf("expected 1 mounted instance, got %d", len(tester.Mounted()))
	}
}

func TestClick_TogglesState(t *testing.T) {
	tester := NewComponentTesterWithT(t, newToggle(t))
	tester.Mount(`<x-toggle label="Power"></x-toggle>`)
	toggle := tester.Find(ByComponent("x-toggle")).Instance()

	if err := tester.Click(BySelector("x-toggle button")); err != nil {
		t.Fatal(err)
	}
	if toggle.Get("on") != true {
		t.Errorf("expected on after click, got %v", toggle.Get("on"))
	}
	if !toggle.Node().HasAttribute("on") {
		t.Error("expected the on attribute to be reflected")
	}
	if !tester.Find(ByText("on")).Exists() {
		t.Errorf("expected state text 'on', got %s", tester.HTML())
	}

	tester.Click(BySelector("x-toggle button"))
	if toggle.Get("on") != false {
		t.Errorf("expected off after second click, got %v", toggle.Get("on"))
	}
}

func TestClick_NoMatch(t *testing.T) {
	tester := NewComponentTesterWithT(t, newToggle(t))
	tester.Mount(`<p>nothing here</p>`)

	err := tester.Click(BySelector("button"))
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
	if !strings.Contains(err.Error(), `BySelector("button")`) {
		t.Errorf("expected the finder in the error, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	tester := NewComponentTesterWithT(t, newToggle(t))

	c, err := tester.Create("x-toggle", map[string]any{"label": "Made"})
	if err != nil {
		t.Fatal(err)
	}
	if !c.Connected() {
		t.Error("expected the created instance to be connected")
	}
	if !strings.Contains(tester.HTML(), `<button type="button">Made</button>`) {
		t.Errorf("unexpected HTML %s", tester.HTML())
	}
	if len(tester.Mounted()) != 1 {
		t.Errorf("expected 1 mounted instance, got %d", len(tester.Mounted()))
	}
}

func TestCleanup_Disconnects(t *testing.T) {
	tester, err := NewComponentTester(newToggle(t))
	if err != nil {
		t.Fatal(err)
	}
	instances, _ := tester.Mount(`<x-toggle></x-toggle>`)
	tester.Cleanup()

	if instances[0].Connected() {
		t.Error("expected Cleanup to disconnect mounted components")
	}
	if tester.HTML() != "" {
		t.Errorf("expected an empty mount, got %q", tester.HTML())
	}
}
