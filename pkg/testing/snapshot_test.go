package testing

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCaptureSnapshotTree(t *testing.T) {
	tester := NewComponentTesterWithT(t, newToggle(t))
	tester.Mount(`<x-toggle label="Power"><em>e</em></x-toggle>`)

	snap := tester.CaptureSnapshot()
	if len(snap.Tree) != 1 {
		t.Fatalf("expected 1 root node, got %d", len(snap.Tree))
	}
	root := snap.Tree[0]
	if root.ID != "x-toggle#0" || root.Type != "element" {
		t.Errorf("unexpected root %s (%s)", root.ID, root.Type)
	}
	if root.Attrs["label"] != "Power" {
		t.Errorf("expected label attribute, got %v", root.Attrs)
	}
	if len(root.Children) != 3 {
		t.Fatalf("expected 3 rendered children, got %d", len(root.Children))
	}
	em := root.Children[2]
	if em.ID != "em#0" || em.Owner != "x-toggle#0" {
		t.Errorf("expected owned em#0, got %s owned by %q", em.ID, em.Owner)
	}
}

func TestCaptureSnapshotComponents(t *testing.T) {
	tester := NewComponentTesterWithT(t, newToggle(t))
	tester.Mount(`<x-toggle label="Power"><em>e</em></x-toggle>`)

	snap := tester.CaptureSnapshot()
	want := []ComponentState{{
		ID:         "x-toggle#0",
		Name:       "x-toggle",
		Properties: map[string]any{"label": "Power", "on": nil},
		Slotted:    []string{"em#0"},
		Renders:    1,
	}}
	if diff := cmp.Diff(want, snap.Components); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotDiff(t *testing.T) {
	tester := NewComponentTesterWithT(t, newToggle(t))
	tester.Mount(`<x-toggle></x-toggle>`)

	before := tester.CaptureSnapshot()
	if diff := before.Diff(tester.CaptureSnapshot()); diff != "" {
		t.Errorf("unchanged tree produced a diff:\n%s", diff)
	}

	if err := tester.Click(BySelector("button")); err != nil {
		t.Fatal(err)
	}
	diff := before.Diff(tester.CaptureSnapshot())
	if !strings.Contains(diff, "true") {
		t.Errorf("diff after toggling should show the new value, got:\n%s", diff)
	}
}

func TestSnapshotGoldenFile(t *testing.T) {
	t.Setenv(UpdateSnapshotsEnv, "")
	tester := NewComponentTesterWithT(t, newToggle(t))
	tester.Mount(`<x-toggle label="Saved"></x-toggle>`)
	saved := tester.CaptureSnapshot()

	path := filepath.Join(t.TempDir(), "testdata", "toggle.snapshot.json")
	if err := saved.UpdateFile(path); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}

	tester.Mount(`<x-toggle label="Edited"></x-toggle>`)
	edited := tester.CaptureSnapshot()

	tests := []struct {
		name       string
		snap       *Snapshot
		path       string
		wantFatals int
		wantErrors int
	}{
		{"match", saved, path, 0, 0},
		{"mismatch", edited, path, 0, 1},
		{"missing", saved, filepath.Join(t.TempDir(), "none.json"), 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{name: t.Name()}
			tt.snap.MatchesFile(r, tt.path)
			if r.fatals != tt.wantFatals || r.errors != tt.wantErrors {
				t.Errorf("fatals, errors = %d, %d, want %d, %d", r.fatals, r.errors, tt.wantFatals, tt.wantErrors)
			}
		})
	}
}

func TestSnapshotUpdateMode(t *testing.T) {
	tester := NewComponentTesterWithT(t, newToggle(t))
	tester.Mount(`<x-toggle></x-toggle>`)
	snap := tester.CaptureSnapshot()

	path := filepath.Join(t.TempDir(), "update.snapshot.json")
	t.Setenv(UpdateSnapshotsEnv, "1")
	r := &recorder{name: t.Name()}
	snap.MatchesFile(r, path)
	if r.fatals+r.errors != 0 {
		t.Errorf("update mode reported %d failures", r.fatals+r.errors)
	}

	loaded, err := loadSnapshot(path)
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	if diff := snap.Diff(loaded); diff != "" {
		t.Errorf("written snapshot differs:\n%s", diff)
	}
}

// recorder counts MatchesFile failures instead of failing the test.
type recorder struct {
	name           string
	fatals, errors int
}

func (r *recorder) Fatalf(string, ...any) { r.fatals++ }
func (r *recorder) Errorf(string, ...any) { r.errors++ }
func (r *recorder) Helper()               {}
func (r *recorder) Name() string          { return r.name }
