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

package graph

import (
	"testing"

	"prunegraph.dev/prune/internal/mapfs"
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

// TestBuildSimpleChain covers scenario S1: a from-import of a submodule
// from its own package, where the package itself has no __init__.py and
// must be synthesized as a virtual namespace node.
func TestBuildSimpleChain(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("simple/foo.py", "", 0644)
	mfs.AddFile("simple/bar.py", "from simple import foo\n", 0644)

	hook := &StaticHook{Global: []string{"simple"}, Roots: map[string]string{"simple": "simple"}}

	g, err := Build(mfs, hook, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	deps, ok := g.ModuleDependsOn("simple.bar", "")
	if !ok {
		t.Fatalf("simple.bar not found")
	}
	want := setOf("simple", "simple.foo")
	if !equalSets(deps, want) {
		t.Errorf("simple.bar deps = %v, want %v", deps, want)
	}

	affected := g.AffectedByModules([]ModuleID{"simple.foo"})
	wantAffected := setOf("simple.bar")
	if !equalSets(affected, wantAffected) {
		t.Errorf("affected_by(simple.foo) = %v, want %v", affected, wantAffected)
	}
}

// TestBuildCycleSharesClosure covers scenarios S2 and S6: a three-node
// import cycle shares one object-identical closure set, and growing the
// cycle via one extra dependency ("d") is visible through any member.
func TestBuildCycleSharesClosure(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("cycles/a.py", "import cycles.b\nimport cycles.d\n", 0644)
	mfs.AddFile("cycles/b.py", "import cycles.c\n", 0644)
	mfs.AddFile("cycles/c.py", "import cycles.a\n", 0644)
	mfs.AddFile("cycles/d.py", "", 0644)

	hook := &StaticHook{Global: []string{"cycles"}, Roots: map[string]string{"cycles": "cycles"}}

	g, err := Build(mfs, hook, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	na, ok := g.nodes[nodeKey{"cycles.a", ""}]
	if !ok {
		t.Fatalf("cycles.a not found")
	}
	nb, ok := g.nodes[nodeKey{"cycles.b", ""}]
	if !ok {
		t.Fatalf("cycles.b not found")
	}
	nc, ok := g.nodes[nodeKey{"cycles.c", ""}]
	if !ok {
		t.Fatalf("cycles.c not found")
	}

	g.ensureClosures()
	if na.closure != nb.closure || nb.closure != nc.closure {
		t.Fatalf("cycle members do not share one closure set: a=%p b=%p c=%p", na.closure, nb.closure, nc.closure)
	}

	want := setOf("cycles", "cycles.a", "cycles.b", "cycles.c", "cycles.d")
	for name, id := range map[string]ModuleID{"a": "cycles.a", "b": "cycles.b", "c": "cycles.c"} {
		closure, ok := g.Closure(id)
		if !ok {
			t.Fatalf("Closure(%s) not found", id)
		}
		if !equalSets(closure, want) {
			t.Errorf("Closure(%s) = %v, want %v", name, closure, want)
		}
	}
}

// TestFileDependsOnInterfaceOverride covers scenario S3: an .py/.pyi pair
// where the interface file's imports are authoritative and the shadowed
// implementation file reports absent.
func TestFileDependsOnInterfaceOverride(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("pyi/foo.py", "import pyi.bar\n", 0644)
	mfs.AddFile("pyi/foo.pyi", "import pyi.baz\n", 0644)
	mfs.AddFile("pyi/bar.py", "", 0644)
	mfs.AddFile("pyi/baz.py", "", 0644)

	hook := &StaticHook{Global: []string{"pyi"}, Roots: map[string]string{"pyi": "pyi"}}

	g, err := Build(mfs, hook, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, ok := g.FileDependsOn("pyi/foo.py"); ok {
		t.Errorf("expected pyi/foo.py to report absent (shadowed by .pyi)")
	}

	deps, ok := g.FileDependsOn("pyi/foo.pyi")
	if !ok {
		t.Fatalf("pyi/foo.pyi not found")
	}
	want := setOf("pyi", "pyi.baz")
	if !equalSets(deps, want) {
		t.Errorf("pyi/foo.pyi deps = %v, want %v", deps, want)
	}
}

// TestDynamicDependenciesAtLeaves covers scenario S4: a runtime-observed
// overlay installed at a leaf (nothing statically depends on it) grows
// that leaf's own closure, and is rejected outright for a non-leaf.
func TestDynamicDependenciesAtLeaves(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("tests/test_api.py", "", 0644)
	mfs.AddFile("api/core.py", "", 0644)

	hook := &StaticHook{
		Global: []string{"tests", "api"},
		Roots:  map[string]string{"tests": "tests", "api": "api"},
	}

	g, err := Build(mfs, hook, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	err = g.AddDynamicDependenciesAtLeaves([]LeafOverlay{{
		ID:     "tests.test_api",
		Scopes: map[string][]ModuleID{"": {"api.core"}},
	}})
	if err != nil {
		t.Fatalf("AddDynamicDependenciesAtLeaves: %v", err)
	}

	closure, ok := g.Closure("tests.test_api")
	if !ok {
		t.Fatalf("tests.test_api not found")
	}
	if !closure["api.core"] {
		t.Errorf("expected tests.test_api closure to contain api.core, got %v", closure)
	}

	err = g.AddDynamicDependenciesAtLeaves([]LeafOverlay{{
		ID:     "tests",
		Scopes: map[string][]ModuleID{"": {"api.core"}},
	}})
	if err != ErrUnresolvedLeaf {
		t.Errorf("expected ErrUnresolvedLeaf for a non-leaf target, got %v", err)
	}
}

// TestCloneIndependence ensures installing a dynamic overlay on a clone
// (at leaf.only) leaves the original's closure for that leaf unchanged.
func TestCloneIndependence(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddTree(map[string]string{
		"cycles/a.py":  "import cycles.b\n",
		"cycles/b.py":  "import cycles.a\n",
		"leaf/only.py": "",
		"extra/thing.py": "",
	})

	hook := &StaticHook{
		Global: []string{"cycles", "leaf", "extra"},
		Roots:  map[string]string{"cycles": "cycles", "leaf": "leaf", "extra": "extra"},
	}

	g, err := Build(mfs, hook, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	clone := g.Clone()
	if err := clone.AddDynamicDependenciesAtLeaves([]LeafOverlay{{
		ID:     "leaf.only",
		Scopes: map[string][]ModuleID{"": {"extra.thing"}},
	}}); err != nil {
		t.Fatalf("AddDynamicDependenciesAtLeaves on clone: %v", err)
	}

	cloneClosure, _ := clone.Closure("leaf.only")
	if !cloneClosure["extra.thing"] {
		t.Fatalf("clone closure missing extra.thing: %v", cloneClosure)
	}

	origClosure, _ := g.Closure("leaf.only")
	if origClosure["extra.thing"] {
		t.Errorf("mutating clone leaked into original: %v", origClosure)
	}
}

// TestSerializeRoundTrip checks that ToFile/FromFile preserve every
// public query's result, including cycle-group closure identity.
func TestSerializeRoundTrip(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("cycles/a.py", "import cycles.b\n", 0644)
	mfs.AddFile("cycles/b.py", "import cycles.a\n", 0644)

	hook := &StaticHook{Global: []string{"cycles"}, Roots: map[string]string{"cycles": "cycles"}}

	g, err := Build(mfs, hook, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if err := g.ToFile(mfs, "snapshot.gob"); err != nil {
		t.Fatalf("ToFile: %v", err)
	}

	loaded, err := FromFile(mfs, "snapshot.gob")
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}

	want, _ := g.Closure("cycles.a")
	got, ok := loaded.Closure("cycles.a")
	if !ok {
		t.Fatalf("loaded graph missing cycles.a")
	}
	if !equalSets(got, want) {
		t.Errorf("round-tripped closure = %v, want %v", got, want)
	}

	na := loaded.nodes[nodeKey{"cycles.a", ""}]
	nb := loaded.nodes[nodeKey{"cycles.b", ""}]
	if na.closure != nb.closure {
		t.Errorf("round-tripped cycle members do not share a closure set")
	}
}

// TestLocalScopeCollisionKeepsNodesDistinct covers two independent local
// roots that each produce a module with the same leaf-qualified id
// ("tests.helpers"): they must remain two separate nodes, each resolving
// its own "from tests import helpers" against its own root, rather than
// one collapsing onto (and corrupting) the other.
func TestLocalScopeCollisionKeepsNodesDistinct(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddTree(map[string]string{
		"testsA/helpers.py": "",
		"testsA/test_a.py":  "from tests import helpers\n",
		"testsB/helpers.py": "",
		"testsB/test_b.py":  "from tests import helpers\n",
	})

	hook := &StaticHook{
		Global: []string{},
		Local:  []string{"tests"},
		Roots: map[string]string{
			"testsA": "tests",
			"testsB": "tests",
		},
	}

	g, err := Build(mfs, hook, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, ok := g.nodes[nodeKey{"tests.helpers", "testsA"}]; !ok {
		t.Fatalf("tests.helpers in scope testsA not found")
	}
	if _, ok := g.nodes[nodeKey{"tests.helpers", "testsB"}]; !ok {
		t.Fatalf("tests.helpers in scope testsB not found")
	}

	depsA, ok := g.ModuleDependsOn("tests.test_a", "testsA")
	if !ok {
		t.Fatalf("tests.test_a (testsA) not found")
	}
	if !depsA["tests.helpers"] {
		t.Errorf("tests.test_a should depend on its own scope's tests.helpers, got %v", depsA)
	}

	localAffected := g.LocalAffectedByFiles([]string{"testsA/helpers.py"})
	if localAffected["testsB"] != nil {
		t.Errorf("modifying testsA/helpers.py must not affect testsB's modules, got %v", localAffected["testsB"])
	}
	if !localAffected["testsA"]["tests.test_a"] {
		t.Errorf("expected tests.test_a (testsA) to be affected by its own helpers.py, got %v", localAffected["testsA"])
	}
}

// TestLocalAffectedByModulesGroupsByScope covers the grouped-by-scope
// contract: a global module's dependents are bucketed under the local
// scope that owns each one, with no scope parameter needed up front.
func TestLocalAffectedByModulesGroupsByScope(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddTree(map[string]string{
		"app/core.py":          "",
		"testsA/test_core.py":  "import app.core\n",
		"testsB/test_other.py": "import app.core\n",
	})

	hook := &StaticHook{
		Global: []string{"app"},
		Local:  []string{"tests"},
		Roots: map[string]string{
			"app":    "app",
			"testsA": "tests",
			"testsB": "tests",
		},
	}

	g, err := Build(mfs, hook, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	grouped := g.LocalAffectedByModules([]ModuleID{"app.core"})
	if !grouped["testsA"]["tests.test_core"] {
		t.Errorf("expected testsA.tests.test_core in grouped result, got %v", grouped)
	}
	if !grouped["testsB"]["tests.test_other"] {
		t.Errorf("expected testsB.tests.test_other in grouped result, got %v", grouped)
	}
	if len(grouped) != 2 {
		t.Errorf("expected exactly two local scopes in grouped result, got %v", grouped)
	}
}
