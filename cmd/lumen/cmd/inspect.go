package cmd

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/go-drift/lumen/pkg/component"
)

func init() {
	RegisterCommand(&Command{
		Name:  "inspect",
		Short: "Show the components of an upgraded page",
		Long: `Upgrade a page like render, then list every component instance with
its property values, observed attributes, slot assignment and delegated
listeners.`,
		Usage: "lumen inspect <file.html|->",
		Run:   runInspect,
	})
}

func runInspect(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("inspect takes exactly one input file")
	}
	cfg, logger, err := loadProject()
	if err != nil {
		return err
	}

	in := os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	_, instances, err := upgradePage(cfg, logger, in)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return writeInspection(stdout, instances)
}

// writeInspection writes a report of instances in tree order.
func writeInspection(w io.Writer, instances []*component.Instance) error {
	if len(instances) == 0 {
		_, err := fmt.Fprintln(w, "No components found.")
		return err
	}
	var b strings.Builder
	for i, c := range instances {
		if i > 0 {
			b.WriteByte('\n')
		}
		node := c.Node()
		fmt.Fprintf(&b, "%s", c.Definition().Name)
		if id, ok := node.GetAttribute("id"); ok {
			fmt.Fprintf(&b, " #%s", id)
		}
		state := "disconnected"
		if c.Connected() {
			state = "connected"
		}
		fmt.Fprintf(&b, " (%s, %d renders)\n", state, c.Context().Renders())

		values := c.Values()
		names := slices.Sorted(maps.Keys(values))
		width := 0
		for _, name := range names {
			width = max(width, len(name))
		}
		for _, name := range names {
			fmt.Fprintf(&b, "  %-*s = %#v\n", width, name, values[name])
		}

		if attrs := c.ObservedAttributes(); len(attrs) > 0 {
			fmt.Fprintf(&b, "  attributes: %s\n", strings.Join(attrs, " "))
		}

		slots := make(map[string]int)
		for _, n := range c.SlotChildNodes() {
			slot, _ := n.GetAttribute("slot")
			if !n.IsElement() {
				slot = ""
			}
			slots[slot]++
		}
		for _, slot := range slices.Sorted(maps.Keys(slots)) {
			label := slot
			if label == "" {
				label = "(default)"
			}
			fmt.Fprintf(&b, "  slot %s: %d node(s)\n", label, slots[slot])
		}

		for _, d := range c.Delegations() {
			phase := "bubble"
			if d.Capture {
				phase = "capture"
			}
			selector := d.Selector
			if selector == "" {
				selector = "(host)"
			}
			fmt.Fprintf(&b, "  on %s %s [%s]\n", d.Event, selector, phase)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
