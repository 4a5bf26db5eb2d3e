package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-drift/lumen/cmd/lumen/internal/config"
	"github.com/go-drift/lumen/pkg/dom"
)

func init() {
	RegisterCommand(&Command{
		Name:  "docs",
		Short: "Generate Markdown reference pages for the components",
		Long: `Write one Markdown page per component declared in lumen.yaml, listing
its properties, slots and listeners. Pages carry Docusaurus front matter
ordered like the manifest, and the directory gets a _category_.json.

Without -o the pages are printed to stdout.`,
		Usage: "lumen docs [-o dir]",
		Run:   runDocs,
	})
}

func runDocs(args []string) error {
	var dir string
	switch {
	case len(args) == 0:
	case len(args) == 2 && (args[0] == "-o" || args[0] == "--output"):
		dir = args[1]
	default:
		return fmt.Errorf("usage: lumen docs [-o dir]")
	}
	cfg, _, err := loadProject()
	if err != nil {
		return err
	}
	if dir == "" {
		for i, c := range cfg.Components {
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			if err := writeComponentDoc(stdout, c, i+1); err != nil {
				return err
			}
		}
		return nil
	}
	return writeDocsDir(dir, cfg.Components)
}

const docsCategory = `{
  "label": "Components",
  "position": 50,
  "link": {
    "type": "generated-index",
    "description": "Components declared in lumen.yaml."
  }
}
`

func writeDocsDir(dir string, components []config.ComponentConfig) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "_category_.json"), []byte(docsCategory), 0o644); err != nil {
		return err
	}
	for i, c := range components {
		var b strings.Builder
		if err := writeComponentDoc(&b, c, i+1); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, c.Name+".md"), []byte(b.String()), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// writeComponentDoc writes the reference page of c.
func writeComponentDoc(w io.Writer, c config.ComponentConfig, position int) error {
	var b strings.Builder
	fmt.Fprintf(&b, "---\nid: %s\ntitle: %s\nsidebar_position: %d\n---\n", c.Name, c.Name, position)

	var facts []string
	if c.Extends != "" {
		facts = append(facts, fmt.Sprintf("Customizes the built-in `<%s>`: use `<%s is=\"%s\">`.", c.Extends, c.Extends, c.Name))
	}
	if c.Inherits != "" {
		facts = append(facts, fmt.Sprintf("Inherits from [`%s`](%s.md).", c.Inherits, c.Inherits))
	}
	if len(facts) > 0 {
		b.WriteString("\n" + strings.Join(facts, " ") + "\n")
	}

	if len(c.Properties) > 0 {
		b.WriteString("\n## Properties\n\n| Name | Type | Attribute | Default | Event |\n|---|---|---|---|---|\n")
		for _, name := range slices.Sorted(maps.Keys(c.Properties)) {
			p := c.Properties[name]
			attr := code(p.Attribute)
			if p.State {
				attr = "(state)"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				name, strings.Join(p.Type, " \\| "), attr, formatDefault(p.Default), code(p.Event))
		}
	}

	slots, err := templateSlots(c.Template)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	if len(slots) > 0 {
		b.WriteString("\n## Slots\n\n")
		for _, s := range slots {
			if s == "" {
				b.WriteString("- default\n")
			} else {
				fmt.Fprintf(&b, "- `%s`\n", s)
			}
		}
	}

	if len(c.Listeners) > 0 {
		b.WriteString("\n## Listeners\n\n| Event | Selector | Phase | Actions |\n|---|---|---|---|\n")
		for _, l := range c.Listeners {
			phase := "bubble"
			if l.Capture {
				phase = "capture"
			}
			selector := code(l.Selector)
			if l.Selector == "" {
				selector = "(host)"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", l.Event, selector, phase, listenerActions(l))
		}
	}
	_, err = io.WriteString(w, b.String())
	return err
}

// templateSlots returns the slot names of a template in document order,
// "" standing for the default slot.
func templateSlots(tpl string) ([]string, error) {
	if tpl == "" {
		return nil, nil
	}
	nodes, err := dom.NewDocument().ParseFragment(tpl, "div")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, n := range nodes {
		slots := n.QuerySelectorAll("slot")
		if n.TagName() == "slot" {
			slots = append([]*dom.Node{n}, slots...)
		}
		for _, s := range slots {
			name, _ := s.GetAttribute("name")
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func listenerActions(l config.ListenerConfig) string {
	var actions []string
	if l.Toggle != "" {
		actions = append(actions, "toggle "+code(l.Toggle))
	}
	for _, name := range slices.Sorted(maps.Keys(l.Set)) {
		actions = append(actions, fmt.Sprintf("set %s = %s", code(name), formatDefault(l.Set[name])))
	}
	if l.Emit != "" {
		actions = append(actions, "emit "+code(l.Emit))
	}
	if l.Stop {
		actions = append(actions, "stop")
	}
	return strings.Join(actions, ", ")
}

func code(s string) string {
	if s == "" {
		return ""
	}
	return "`" + s + "`"
}

func formatDefault(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return code(fmt.Sprint(v))
	}
	return code(string(data))
}
