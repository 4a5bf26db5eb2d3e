// Package testing provides a component testing harness for Lumen.
//
// # Quick Start
//
// Create a tester with the definitions under test, mount markup, and make
// assertions:
//
//	func TestToggle(t *testing.T) {
//	    tester := lumentest.NewComponentTesterWithT(t, toggleDef)
//	    tester.Mount(`<x-toggle label="Power"></x-toggle>`)
//
//	    // Find nodes
//	    toggle := tester.Find(lumentest.ByComponent("x-toggle")).Instance()
//
//	    // Simulate input
//	    tester.Click(lumentest.BySelector("x-toggle button"))
//
//	    // Assert state
//	    if toggle.Get("on") != true {
//	        t.Error("expected the toggle to be on")
//	    }
//	}
//
// # Snapshot Testing
//
// Capture and compare the mounted tree, including component state:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/toggle.snapshot.json")
//
// Update snapshots with:
//
//	LUMEN_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import lumentest "github.com/go-drift/lumen/pkg/testing"
package testing
