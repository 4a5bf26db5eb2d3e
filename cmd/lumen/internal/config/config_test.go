package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func writeProject(t *testing.T, goMod, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	if goMod != "" {
		if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(goMod), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if manifest != "" {
		if err := os.WriteFile(filepath.Join(dir, FileName), []byte(manifest), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestResolveDefaults(t *testing.T) {
	tests := []struct {
		name       string
		goMod      string
		wantPrefix string
	}{
		{"module path", "module github.com/acme/Widgets\n\ngo 1.24\n", "widgets"},
		{"major version", "module github.com/acme/ui/v2\n\ngo 1.24\n", "ui"},
		{"leading digit", "module example.com/3d\n", "x3d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeProject(t, tt.goMod, "")
			cfg, err := Resolve(dir)
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Prefix != tt.wantPrefix {
				t.Errorf("Prefix = %q, want %q", cfg.Prefix, tt.wantPrefix)
			}
			if cfg.LogLevel != zerolog.InfoLevel {
				t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
			}
			if len(cfg.Components) != 0 {
				t.Errorf("Components = %v, want none", cfg.Components)
			}
		})
	}
}

func TestResolveWithoutGoMod(t *testing.T) {
	dir := writeProject(t, "", "components:\n  - name: card\n")
	cfg, err := Resolve(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ModulePath != "" {
		t.Errorf("ModulePath = %q, want empty", cfg.ModulePath)
	}
	want := sanitizePrefix(filepath.Base(dir)) + "-card"
	if got := cfg.Components[0].Name; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
}

const manifest = `
prefix: ui
log:
  level: debug
components:
  - name: card
    template: |
      <header><slot name="title"></slot></header><main>{{.label}}<slot></slot></main>
    properties:
      label: {type: string, attribute: label, default: Card, event: labelchange}
      open:  {type: [boolean], attribute: open}
      count: {type: [number, string], attribute: count}
    listeners:
      - {event: click, selector: header, toggle: open}
  - name: fancy
    inherits: card
  - name: x-button
    extends: HTMLButtonElement
`

func TestResolveManifest(t *testing.T) {
	dir := writeProject(t, "module example.com/app\n", manifest)
	cfg, err := Resolve(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prefix != "ui" {
		t.Errorf("Prefix = %q, want ui", cfg.Prefix)
	}
	if cfg.LogLevel != zerolog.DebugLevel {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}

	var names []string
	for _, c := range cfg.Components {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"ui-card", "ui-fancy", "x-button"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	card := cfg.Components[0]
	if diff := cmp.Diff(TypeList{"string"}, card.Properties["label"].Type); diff != "" {
		t.Errorf("scalar type mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(TypeList{"number", "string"}, card.Properties["count"].Type); diff != "" {
		t.Errorf("type list mismatch (-want +got):\n%s", diff)
	}
	if card.Properties["label"].Default != "Card" {
		t.Errorf("label default = %v, want Card", card.Properties["label"].Default)
	}
	if card.Listeners[0].Toggle != "open" {
		t.Errorf("listener toggle = %q, want open", card.Listeners[0].Toggle)
	}
	if got := cfg.Components[1].Inherits; got != "ui-card" {
		t.Errorf("Inherits = %q, want ui-card", got)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantErr  string
	}{
		{"bad yaml", "components: [", "failed to parse"},
		{"bad level", "log: {level: loud}", "log.level"},
		{"bad prefix", "prefix: Ui", "prefix"},
		{"bad name", "components: [{name: Card-x}]", "invalid name"},
		{"duplicate", "components: [{name: card}, {name: ui-card}]", "declared twice"},
		{"bad extends", "components: [{name: card, extends: marquee-ish}]", "cannot extend"},
		{"bad type", "components: [{name: card, properties: {a: {type: date}}}]", "unknown type"},
		{"listener without event", "components: [{name: card, listeners: [{selector: a}]}]", "event is required"},
		{"toggle undeclared", "components: [{name: card, listeners: [{event: click, toggle: open}]}]", "undeclared property"},
		{"unknown parent", "components: [{name: card, inherits: base}]", "inherits unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeProject(t, "module example.com/ui\n", tt.manifest)
			_, err := Resolve(dir)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolveBadGoMod(t *testing.T) {
	dir := writeProject(t, "go 1.24\n", "")
	if _, err := Resolve(dir); err == nil {
		t.Error("expected a go.mod without a module line to fail")
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := writeProject(t, "", "prefix: ui\n")
	nested := filepath.Join(root, "pages", "docs")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	got, err := FindProjectRoot()
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.EvalSymlinks(root)
	if got, _ = filepath.EvalSymlinks(got); got != want {
		t.Errorf("FindProjectRoot() = %q, want %q", got, want)
	}
}
