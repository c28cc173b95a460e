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

package validate

import (
	"testing"

	"prunegraph.dev/prune/graph"
	"prunegraph.dev/prune/internal/mapfs"
)

type fakeSelectorHook struct {
	always  map[string]bool
	exclude map[string]bool   // paths FilterIrrelevantFiles drops
	folders map[string]string // path prefix -> local scope id
}

func (h *fakeSelectorHook) TestFolders() map[string]string { return h.folders }
func (h *fakeSelectorHook) AlwaysRun() map[string]bool      { return h.always }
func (h *fakeSelectorHook) FilterIrrelevantFiles(paths map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for p := range paths {
		if !h.exclude[p] {
			out[p] = true
		}
	}
	return out
}
func (h *fakeSelectorHook) IsTestFile(name string) bool { return true }

func buildGraph(t *testing.T) *graph.Graph {
	t.Helper()
	mfs := mapfs.New()
	mfs.AddFile("app/core.py", "", 0644)
	mfs.AddFile("app/util.py", "import app.core\n", 0644)
	mfs.AddFile("tests/test_core.py", "import app.core\n", 0644)
	mfs.AddFile("tests/test_util.py", "import app.util\n", 0644)

	hook := &graph.StaticHook{
		Global: []string{"app", "tests"},
		Roots:  map[string]string{"app": "app", "tests": "tests"},
	}
	g, err := graph.Build(mfs, hook, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

// TestSelectTestsKeepsTransitivelyAffected covers condition (i): both
// tests reach the modified app.core, one directly and one through
// app.util, so both stay selected.
func TestSelectTestsKeepsTransitivelyAffected(t *testing.T) {
	g := buildGraph(t)
	hook := &fakeSelectorHook{always: map[string]bool{}}

	items := []TestItem{
		{FilePath: "tests/test_core.py", Name: "test_core"},
		{FilePath: "tests/test_util.py", Name: "test_util"},
	}

	result := SelectTests(g, hook, []string{"app/core.py"}, items)
	if result.PruningDisabled {
		t.Fatalf("unexpected pruning disabled: %s", result.Warning)
	}

	var deselectedNames []string
	for _, item := range result.Deselected {
		deselectedNames = append(deselectedNames, item.Name)
	}
	if len(deselectedNames) != 0 {
		t.Errorf("expected nothing deselected (both tests transitively touch app.core), got %v", deselectedNames)
	}
}

// TestSelectTestsKeepsAlwaysRun ensures always_run overrides an
// otherwise-deselectable item.
func TestSelectTestsKeepsAlwaysRun(t *testing.T) {
	g := buildGraph(t)
	hook := &fakeSelectorHook{always: map[string]bool{"tests/test_core.py": true}}

	items := []TestItem{{FilePath: "tests/test_core.py", Name: "test_core"}}
	result := SelectTests(g, hook, []string{"app/util.py"}, items)
	if result.PruningDisabled {
		t.Fatalf("unexpected pruning disabled: %s", result.Warning)
	}
	if len(result.Deselected) != 0 {
		t.Errorf("expected always_run to prevent deselection, got %v", result.Deselected)
	}
}

// TestSelectTestsDeselectsTrulyUnaffected checks that a test whose
// module does not depend, even transitively, on the modified file is
// actually deselected.
func TestSelectTestsDeselectsTrulyUnaffected(t *testing.T) {
	hook := &fakeSelectorHook{always: map[string]bool{}}

	items := []TestItem{{FilePath: "tests/test_util.py", Name: "test_util"}}
	// app/util.py does not depend on app/core.py changing in reverse:
	// modifying app/util.py itself should affect test_util, but
	// modifying something test_util never reaches should not.
	mfsExtra := mapfs.New()
	mfsExtra.AddFile("app/core.py", "", 0644)
	mfsExtra.AddFile("app/other.py", "", 0644)
	mfsExtra.AddFile("app/util.py", "import app.core\n", 0644)
	mfsExtra.AddFile("tests/test_util.py", "import app.util\n", 0644)
	hook2 := &graph.StaticHook{
		Global: []string{"app", "tests"},
		Roots:  map[string]string{"app": "app", "tests": "tests"},
	}
	g2, err := graph.Build(mfsExtra, hook2, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	result := SelectTests(g2, hook, []string{"app/other.py"}, items)
	if result.PruningDisabled {
		t.Fatalf("unexpected pruning disabled: %s", result.Warning)
	}
	if len(result.Deselected) != 1 {
		t.Errorf("expected test_util to be deselected, got %v", result.Deselected)
	}
}

// TestSelectTestsDisablesPruningForUncoveredModifiedFile covers the
// escape hatch: a modified file outside the Graph, not a data path, not
// always_run, and not filtered out disables pruning entirely.
func TestSelectTestsDisablesPruningForUncoveredModifiedFile(t *testing.T) {
	g := buildGraph(t)
	hook := &fakeSelectorHook{always: map[string]bool{}}

	items := []TestItem{{FilePath: "tests/test_core.py", Name: "test_core"}}
	result := SelectTests(g, hook, []string{"setup.cfg"}, items)
	if !result.PruningDisabled {
		t.Fatalf("expected pruning to be disabled for an uncovered modified file")
	}
	if result.Warning == "" {
		t.Errorf("expected a warning explaining why pruning was disabled")
	}
}

// TestSelectTestsFilterIrrelevantFilesRescues checks that a modified
// file outside the Graph is still fine as long as FilterIrrelevantFiles
// excludes it (e.g. a README or lock file).
func TestSelectTestsFilterIrrelevantFilesRescues(t *testing.T) {
	g := buildGraph(t)
	hook := &fakeSelectorHook{
		always:  map[string]bool{},
		exclude: map[string]bool{"README.md": true},
	}

	items := []TestItem{{FilePath: "tests/test_core.py", Name: "test_core"}}
	result := SelectTests(g, hook, []string{"README.md"}, items)
	if result.PruningDisabled {
		t.Fatalf("unexpected pruning disabled: %s", result.Warning)
	}
}

// TestSelectTestsUsesLocalScopeForTestFolders covers a SelectorHook that
// configures TestFolders: two local roots ("testsA", "testsB") each
// import their own "tests.helpers", a leaf name they share. Modifying
// only testsA's helpers must affect testsA's test and leave testsB's
// test selected, proving condition (i) consults the local-namespace
// view instead of conflating the two scopes.
func TestSelectTestsUsesLocalScopeForTestFolders(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("app/core.py", "", 0644)
	mfs.AddFile("testsA/helpers.py", "", 0644)
	mfs.AddFile("testsA/test_a.py", "from tests import helpers\n", 0644)
	mfs.AddFile("testsB/helpers.py", "", 0644)
	mfs.AddFile("testsB/test_b.py", "from tests import helpers\n", 0644)

	hook := &graph.StaticHook{
		Global: []string{"app"},
		Local:  []string{"tests"},
		Roots: map[string]string{
			"app":    "app",
			"testsA": "tests",
			"testsB": "tests",
		},
	}
	g, err := graph.Build(mfs, hook, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	selector := &fakeSelectorHook{
		always: map[string]bool{},
		folders: map[string]string{
			"testsA": "testsA",
			"testsB": "testsB",
		},
	}

	items := []TestItem{
		{FilePath: "testsA/test_a.py", Name: "test_a"},
		{FilePath: "testsB/test_b.py", Name: "test_b"},
	}
	result := SelectTests(g, selector, []string{"testsA/helpers.py"}, items)
	if result.PruningDisabled {
		t.Fatalf("unexpected pruning disabled: %s", result.Warning)
	}

	var deselectedNames []string
	for _, item := range result.Deselected {
		deselectedNames = append(deselectedNames, item.Name)
	}
	if len(deselectedNames) != 1 || deselectedNames[0] != "test_b" {
		t.Errorf("expected only test_b deselected (testsA's own helpers.py changed), got %v", deselectedNames)
	}
}
