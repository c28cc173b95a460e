/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package tracker

import (
	"errors"
	"testing"
)

func setOf(ids ...ModuleID) map[ModuleID]bool {
	out := make(map[ModuleID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func equalSets(a, b map[ModuleID]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// TestCycleConsolidation mirrors graph's S2 at runtime: a imports b,
// b imports c, c re-enters a while a is still on the stack. All three
// must end up sharing one object-identical closure handle.
func TestCycleConsolidation(t *testing.T) {
	host := NewReferenceHost()
	tr := New(host, Config{}, nil)
	host.Tracker = tr

	host.Register(&Module{ID: "cycles.a", File: "a.py", Imports: []ModuleID{"cycles.b"}})
	host.Register(&Module{ID: "cycles.b", File: "b.py", Imports: []ModuleID{"cycles.c"}})
	host.Register(&Module{ID: "cycles.c", File: "c.py", Imports: []ModuleID{"cycles.a"}})

	if err := host.Load("cycles.a"); err != nil {
		t.Fatalf("Load(cycles.a): %v", err)
	}

	ea, eb, ec := tr.tracked["cycles.a"], tr.tracked["cycles.b"], tr.tracked["cycles.c"]
	if ea == nil || eb == nil || ec == nil {
		t.Fatalf("missing tracked entries: a=%v b=%v c=%v", ea, eb, ec)
	}
	if ea.closure != eb.closure || eb.closure != ec.closure {
		t.Fatalf("cycle members do not share one closure handle: a=%p b=%p c=%p", ea.closure, eb.closure, ec.closure)
	}

	want := setOf("cycles.a", "cycles.b", "cycles.c")
	got, ok := tr.Tracked("cycles.a")
	if !ok {
		t.Fatalf("cycles.a not tracked")
	}
	if !equalSets(got, want) {
		t.Errorf("Tracked(cycles.a) = %v, want %v", got, want)
	}
}

// TestDynamicAnchorPerCaller covers three modules each calling
// by_caller.import_by_name with a distinct target. With the anchor
// configured, each caller's with_dynamic reflects only its own
// dynamically-loaded target.
func TestDynamicAnchorPerCaller(t *testing.T) {
	host := NewReferenceHost("import_by_name")
	anchor := AnchorKey{Module: "by_caller", Function: "import_by_name"}
	tr := New(host, Config{DynamicAnchors: map[AnchorKey]bool{anchor: true}}, nil)
	host.Tracker = tr

	host.Register(&Module{ID: "by_caller", File: "by_caller.py"})
	host.Register(&Module{ID: "target1", File: "target1.py"})
	host.Register(&Module{ID: "target2", File: "target2.py"})
	host.Register(&Module{ID: "target3", File: "target3.py"})

	host.Register(&Module{ID: "caller1", File: "caller1.py", Imports: []ModuleID{"by_caller"}, Run: func(h *ReferenceHost) error {
		return h.ImportByName("by_caller", "import_by_name", "target1")
	}})
	host.Register(&Module{ID: "caller2", File: "caller2.py", Imports: []ModuleID{"by_caller"}, Run: func(h *ReferenceHost) error {
		return h.ImportByName("by_caller", "import_by_name", "target2")
	}})
	host.Register(&Module{ID: "caller3", File: "caller3.py", Imports: []ModuleID{"by_caller"}, Run: func(h *ReferenceHost) error {
		return h.ImportByName("by_caller", "import_by_name", "target3")
	}})

	for _, caller := range []ModuleID{"caller1", "caller2", "caller3"} {
		if err := host.Load(caller); err != nil {
			t.Fatalf("Load(%s): %v", caller, err)
		}
	}

	cases := map[ModuleID]ModuleID{
		"caller1": "target1",
		"caller2": "target2",
		"caller3": "target3",
	}
	for caller, target := range cases {
		got := tr.WithDynamic(caller)
		if !got[target] {
			t.Errorf("WithDynamic(%s) = %v, want it to contain %s", caller, got, target)
		}
		for _, other := range cases {
			if other != target && got[other] {
				t.Errorf("WithDynamic(%s) = %v, leaked unrelated target %s", caller, got, other)
			}
		}
	}
}

// TestDynamicWithoutAnchorCollapses documents the failure mode the
// anchor exists to fix: with no dynamic_anchors configured, every
// caller's dynamic load is attributed to the same last-seen tracked
// frame (by_caller itself), so the callers' dynamic sets collapse
// together instead of staying distinct.
func TestDynamicWithoutAnchorCollapses(t *testing.T) {
	host := NewReferenceHost("import_by_name")
	tr := New(host, Config{}, nil)
	host.Tracker = tr

	host.Register(&Module{ID: "by_caller", File: "by_caller.py"})
	host.Register(&Module{ID: "target1", File: "target1.py"})
	host.Register(&Module{ID: "target2", File: "target2.py"})

	host.Register(&Module{ID: "caller1", File: "caller1.py", Imports: []ModuleID{"by_caller"}, Run: func(h *ReferenceHost) error {
		return h.ImportByName("by_caller", "import_by_name", "target1")
	}})
	host.Register(&Module{ID: "caller2", File: "caller2.py", Imports: []ModuleID{"by_caller"}, Run: func(h *ReferenceHost) error {
		return h.ImportByName("by_caller", "import_by_name", "target2")
	}})

	if err := host.Load("caller1"); err != nil {
		t.Fatalf("Load(caller1): %v", err)
	}
	if err := host.Load("caller2"); err != nil {
		t.Fatalf("Load(caller2): %v", err)
	}

	// Both calls attribute to by_caller (the last tracked-prefix frame
	// seen in each walk, since nothing stops it early), so by_caller's
	// own dynamic bucket mixes both targets together...
	if !tr.dynamicImports["by_caller"]["target1"] || !tr.dynamicImports["by_caller"]["target2"] {
		t.Fatalf("expected by_caller's dynamic bucket to mix both targets, got %v", tr.dynamicImports["by_caller"])
	}
	// ...and that leaks into each caller's own query: caller1 appears to
	// use target2 too, purely because caller2 shared the same anchor.
	got := tr.WithDynamic("caller1")
	if !got["target1"] || !got["target2"] {
		t.Fatalf("expected caller1's dynamic set to incorrectly include target2 without an anchor, got %v", got)
	}
}

// TestExitContextMismatch checks the diagnostic returned when
// exit_context's name does not match the top of stack.
func TestExitContextMismatch(t *testing.T) {
	host := NewReferenceHost()
	tr := New(host, Config{}, nil)
	host.Tracker = tr

	tr.EnterContext("tests.test_foo")

	err := tr.ExitContext("tests.test_bar")
	if !errors.Is(err, ErrContextMismatch) {
		t.Fatalf("ExitContext wrong name: got %v, want ErrContextMismatch", err)
	}

	if err := tr.ExitContext("tests.test_foo"); err != nil {
		t.Fatalf("ExitContext correct name: %v", err)
	}
}

// TestNestedLoadFailureRollback covers the nested-load-failure rule: a
// failed fresh load is discarded unless an enclosing cycle participant
// still shares its closure handle.
func TestNestedLoadFailureRollback(t *testing.T) {
	host := NewReferenceHost()
	tr := New(host, Config{}, nil)
	host.Tracker = tr

	host.Register(&Module{ID: "broken.leaf", File: "leaf.py", Fail: errors.New("boom")})
	host.Register(&Module{ID: "broken.parent", File: "parent.py", Imports: []ModuleID{"broken.leaf"}})

	err := host.Load("broken.parent")
	if err == nil {
		t.Fatalf("expected Load(broken.parent) to fail")
	}

	if _, ok := tr.Tracked("broken.leaf"); ok {
		t.Errorf("broken.leaf should have been rolled back, still tracked")
	}
	// broken.parent's own load also failed (its import propagated the
	// error), so it should be rolled back too.
	if _, ok := tr.Tracked("broken.parent"); ok {
		t.Errorf("broken.parent should have been rolled back, still tracked")
	}
	if len(tr.stack) != 0 {
		t.Errorf("expected empty stack after failed load, got %v", tr.stack)
	}
}

// TestFromImportBindingRecordsSubmodule covers the "from X import Y"
// repeat-use path: Y recorded as a submodule dependency of X via Host's
// IsSubmodule, without going through OnFindAndLoad again.
func TestFromImportBindingRecordsSubmodule(t *testing.T) {
	host := NewReferenceHost()
	tr := New(host, Config{}, nil)
	host.Tracker = tr

	host.Register(&Module{ID: "pkg", File: "pkg/__init__.py"})
	host.Register(&Module{ID: "pkg.util", File: "pkg/util.py"})

	if err := host.Load("pkg"); err != nil {
		t.Fatalf("Load(pkg): %v", err)
	}
	if err := host.Load("pkg.util"); err != nil {
		t.Fatalf("Load(pkg.util): %v", err)
	}

	tr.OnFromImportBinding("pkg", []string{"util"})

	got, ok := tr.Tracked("pkg")
	if !ok {
		t.Fatalf("pkg not tracked")
	}
	if !got["pkg.util"] {
		t.Errorf("Tracked(pkg) = %v, want it to contain pkg.util", got)
	}
}
