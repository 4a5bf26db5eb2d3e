package cmd

import (
	"strings"
	"testing"

	"github.com/go-drift/lumen/cmd/lumen/internal/config"
	"github.com/go-drift/lumen/pkg/dom"
	lumentest "github.com/go-drift/lumen/pkg/testing"
)

func cardComponents() []config.ComponentConfig {
	return []config.ComponentConfig{{
		Name:     "ui-card",
		Template: `<header><slot name="title"></slot></header><main>{{.label}}<slot></slot></main>`,
		Properties: map[string]config.PropertyConfig{
			"label": {Type: config.TypeList{"string"}, Attribute: "label", Default: "Card"},
			"open":  {Type: config.TypeList{"boolean"}, Attribute: "open"},
		},
		Listeners: []config.ListenerConfig{
			{Event: "click", Selector: "header", Toggle: "open", Emit: "cardtoggle"},
			{Event: "click", Selector: "main", Set: map[string]any{"label": "Clicked"}, Stop: true},
		},
	}, {
		Name:     "ui-fancy",
		Inherits: "ui-card",
	}}
}

func TestBuildDefinitions(t *testing.T) {
	defs, err := buildDefinitions(cardComponents())
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[1].Parent != defs[0] {
		t.Error("expected ui-fancy to inherit ui-card")
	}

	tester := lumentest.NewComponentTesterWithT(t, defs...)
	if _, err := tester.Mount(`<ui-fancy id="f" label="Hi"><h1 slot="title">T</h1></ui-fancy>`); err != nil {
		t.Fatal(err)
	}
	want := `<header><h1 slot="title">T</h1></header><main>Hi</main>`
	if got := tester.Find(lumentest.ByID("f")).First().InnerHTML(); got != want {
		t.Errorf("InnerHTML() = %q, want %q", got, want)
	}

	toggles := 0
	tester.Root().AddEventListener("cardtoggle", dom.NewListener(func(*dom.Event) { toggles++ }))
	fancy := tester.Find(lumentest.ByComponent("ui-fancy")).Instance()

	if err := tester.Click(lumentest.ByText("T")); err != nil {
		t.Fatal(err)
	}
	if fancy.Get("open") != true {
		t.Errorf("open = %v, want true", fancy.Get("open"))
	}
	if toggles != 1 {
		t.Errorf("cardtoggle events = %d, want 1", toggles)
	}

	if err := tester.Click(lumentest.BySelector("main")); err != nil {
		t.Fatal(err)
	}
	if got := fancy.Get("label"); got != "Clicked" {
		t.Errorf("label = %v, want Clicked", got)
	}
	if fancy.Get("open") != true {
		t.Error("clicking main must not toggle open")
	}
}

func TestBuildDefinitionsErrors(t *testing.T) {
	tests := []struct {
		name       string
		components []config.ComponentConfig
		wantErr    string
	}{
		{
			name: "unknown type",
			components: []config.ComponentConfig{{Name: "ui-a", Properties: map[string]config.PropertyConfig{
				"d": {Type: config.TypeList{"date"}},
			}}},
			wantErr: "unknown type",
		},
		{
			name:       "bad template",
			components: []config.ComponentConfig{{Name: "ui-a", Template: "{{.label"}},
			wantErr:    "ui-a",
		},
		{
			name:       "unknown parent",
			components: []config.ComponentConfig{{Name: "ui-a", Inherits: "ui-b"}},
			wantErr:    "inherits unknown",
		},
		{
			name: "cycle",
			components: []config.ComponentConfig{
				{Name: "ui-a", Inherits: "ui-b"},
				{Name: "ui-b", Inherits: "ui-a"},
			},
			wantErr: "inheritance cycle",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildDefinitions(tt.components)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
