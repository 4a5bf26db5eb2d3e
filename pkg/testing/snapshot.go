package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/lumen/pkg/component"
	"github.com/go-drift/lumen/pkg/dom"
)

// UpdateSnapshotsEnv is the environment variable that switches MatchesFile
// to rewriting golden files.
const UpdateSnapshotsEnv = "LUMEN_UPDATE_SNAPSHOTS"

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures the mounted tree and the state of its components.
type Snapshot struct {
	Tree       []*TreeNode      `json:"tree"`
	Components []ComponentState `json:"components,omitempty"`
}

// TreeNode is a node in the serialized tree.
type TreeNode struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Owner    string            `json:"owner,omitempty"`
	Children []*TreeNode       `json:"children,omitempty"`
}

// ComponentState is the serialized state of one mounted component.
type ComponentState struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"props,omitempty"`
	Slotted    []string       `json:"slotted,omitempty"`
	Renders    int            `json:"renders"`
}

// CaptureSnapshot captures the mounted tree. Components are listed in tree
// order.
func (t *ComponentTester) CaptureSnapshot() *Snapshot {
	s := &snapshotter{counts: make(map[string]int), ids: make(map[*dom.Node]string)}
	snap := &Snapshot{}
	for _, c := range t.root.ChildNodes() {
		snap.Tree = append(snap.Tree, s.capture(c))
	}
	for _, n := range s.order {
		c, ok := n.Behavior().(*component.Instance)
		if !ok {
			continue
		}
		state := ComponentState{
			ID:         s.ids[n],
			Name:       c.Definition().Name,
			Properties: serializeValues(c.Values()),
			Renders:    c.Context().Renders(),
		}
		for _, child := range c.SlotChildNodes() {
			state.Slotted = append(state.Slotted, s.id(child))
		}
		snap.Components = append(snap.Components, state)
	}
	return snap
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When LUMEN_UPDATE_SNAPSHOTS=1
// is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv(UpdateSnapshotsEnv) == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: %s=1 go test -run %s", path, UpdateSnapshotsEnv, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: %s=1 go test -run %s", path, diff, UpdateSnapshotsEnv, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a line diff between other, as expected, and this snapshot.
// Returns empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return cmp.Diff(strings.Split(string(b), "\n"), strings.Split(string(a), "\n"))
}

// snapshotter assigns stable IDs like "div#0", "#text#1".
type snapshotter struct {
	counts map[string]int
	ids    map[*dom.Node]string
	order  []*dom.Node
}

func (s *snapshotter) id(n *dom.Node) string {
	if id, ok := s.ids[n]; ok {
		return id
	}
	name := n.String()
	if n.IsElement() {
		name = n.TagName()
	}
	id := fmt.Sprintf("%s#%d", name, s.counts[name])
	s.counts[name]++
	s.ids[n] = id
	return id
}

func (s *snapshotter) capture(n *dom.Node) *TreeNode {
	node := &TreeNode{ID: s.id(n), Type: nodeTypeName(n.Type())}
	s.order = append(s.order, n)
	switch n.Type() {
	case dom.TextNode, dom.CommentNode:
		node.Text = n.Data()
	case dom.ElementNode:
		for _, a := range n.Attributes() {
			if node.Attrs == nil {
				node.Attrs = make(map[string]string)
			}
			node.Attrs[a.Key] = a.Val
		}
	}
	if o := n.Owner(); o != nil {
		node.Owner = s.id(o.OwnerElement())
	}
	for _, c := range n.ChildNodes() {
		node.Children = append(node.Children, s.capture(c))
	}
	return node
}

func nodeTypeName(t dom.NodeType) string {
	switch t {
	case dom.ElementNode:
		return "element"
	case dom.TextNode:
		return "text"
	case dom.CommentNode:
		return "comment"
	case dom.FragmentNode:
		return "fragment"
	case dom.DocumentNode:
		return "document"
	default:
		return "other"
	}
}

// serializeValues keeps JSON-representable property values and formats the
// rest.
func serializeValues(values map[string]any) map[string]any {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]any, len(values))
	for name, v := range values {
		out[name] = serializeValue(v)
	}
	return out
}

func serializeValue(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.String:
		return v
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = serializeValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Sprintf("%v", v)
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = serializeValue(iter.Value().Interface())
		}
		return out
	default:
		return fmt.Sprintf("%T", v)
	}
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
