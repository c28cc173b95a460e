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

// Package validate implements the test-selection and cross-check
// collaborators: consumers of graph.Graph, not part of its core, but
// specified precisely enough that the core's contract stays testable.
package validate

import (
	"strings"

	"prunegraph.dev/prune/graph"
)

// TestItem is one collected test, the shape a VCS/test-runner collector
// would hand the selector: the file it lives in, an optional data file
// it is parametrized over, and its name.
type TestItem struct {
	FilePath string `json:"file_path"`
	DataPath string `json:"data_path,omitempty"`
	Name     string `json:"name"`
}

// SelectorHook is the Hook's test-selection-facing surface:
// project-specific knowledge the core itself has no business knowing
// (where tests live, what must always run, which modified files are
// noise).
type SelectorHook interface {
	// TestFolders maps a filesystem path to the local scope id that
	// owns it, for local-namespace affected-by queries.
	TestFolders() map[string]string
	// AlwaysRun is a set of ids or paths that must never be deselected.
	AlwaysRun() map[string]bool
	// FilterIrrelevantFiles narrows a set of modified paths down to the
	// ones that could plausibly affect test outcomes (configs, lock
	// files, and the like are typically excluded here).
	FilterIrrelevantFiles(paths map[string]bool) map[string]bool
	// IsTestFile reports whether name looks like a test file by the
	// project's naming convention.
	IsTestFile(name string) bool
}

// SelectionResult is SelectTests' outcome: either a set of items to
// deselect, or pruning disabled outright with a warning explaining why.
type SelectionResult struct {
	Deselected      []TestItem `json:"deselected"`
	PruningDisabled bool       `json:"pruning_disabled"`
	Warning         string     `json:"warning,omitempty"`
}

// SelectTests implements the deselection algorithm: given the set of
// modified files, every collected test item, the built Graph, and the
// project's SelectorHook, decide which items are safe to skip.
//
// A test item is deselected iff all four hold:
//
//	(i)   its FilePath is in the Graph and not affected by modified —
//	      checked against the local-namespace view (LocalAffectedByFiles)
//	      when TestFolders places it in a local scope, and against the
//	      global view otherwise
//	(ii)  its DataPath (if any) is neither modified nor always-run
//	(iii) neither its FilePath nor its Name is always-run
//	(iv)  the Graph has no unresolved reference for its module (an
//	      unhandled dynamic-import dependency makes pruning unsafe)
//
// If any modified file is outside the Graph, isn't a referenced data
// file, isn't always-run, and survives FilterIrrelevantFiles, pruning
// is disabled entirely: the run can't prove that file is safe to
// ignore, so nothing is deselected and a warning is surfaced instead.
func SelectTests(g *graph.Graph, hook SelectorHook, modified []string, items []TestItem) SelectionResult {
	modifiedSet := toSet(modified)
	alwaysRun := hook.AlwaysRun()

	if reason, uncovered := uncoveredModifiedFile(g, hook, modifiedSet, alwaysRun, items); uncovered {
		return SelectionResult{
			PruningDisabled: true,
			Warning:         "pruning disabled: modified file " + reason + " is not covered by the graph, a referenced data file, or always_run",
		}
	}

	affected := g.AffectedByFiles(modified)
	localAffected := g.LocalAffectedByFiles(modified)
	folders := hook.TestFolders()

	var deselected []TestItem
	for _, item := range items {
		if !isDeselectable(g, hook, item, modifiedSet, alwaysRun, affected, localAffected, folders) {
			continue
		}
		deselected = append(deselected, item)
	}

	return SelectionResult{Deselected: deselected}
}

func isDeselectable(g *graph.Graph, hook SelectorHook, item TestItem, modifiedSet, alwaysRun map[string]bool, affected map[graph.ModuleID]bool, localAffected map[string]map[graph.ModuleID]bool, folders map[string]string) bool {
	moduleID, inGraph := g.ModuleIDForFile(item.FilePath)
	if !inGraph {
		return false // condition (i): must be in the Graph
	}
	if scope, ok := localScopeForPath(item.FilePath, folders); ok && hook.IsTestFile(item.FilePath) {
		if localAffected[scope][moduleID] {
			return false // condition (i): must not be transitively affected, local-namespace view
		}
	} else if affected[moduleID] {
		return false // condition (i): must not be transitively affected
	}

	if item.DataPath != "" {
		if modifiedSet[item.DataPath] || alwaysRun[item.DataPath] {
			return false // condition (ii)
		}
	}

	if alwaysRun[item.FilePath] || alwaysRun[item.Name] {
		return false // condition (iii)
	}

	for _, ref := range g.Unresolved() {
		if ref.Module == moduleID {
			return false // condition (iv): unhandled dynamic dependency
		}
	}

	return true
}

// uncoveredModifiedFile reports the first modified file (if any) that
// the Graph, the collected items' data paths, always_run, and
// FilterIrrelevantFiles all fail to account for.
func uncoveredModifiedFile(g *graph.Graph, hook SelectorHook, modifiedSet, alwaysRun map[string]bool, items []TestItem) (string, bool) {
	dataPaths := make(map[string]bool)
	for _, item := range items {
		if item.DataPath != "" {
			dataPaths[item.DataPath] = true
		}
	}

	candidates := make(map[string]bool, len(modifiedSet))
	for path := range modifiedSet {
		if _, ok := g.ModuleIDForFile(path); ok {
			continue
		}
		if dataPaths[path] || alwaysRun[path] {
			continue
		}
		candidates[path] = true
	}
	if len(candidates) == 0 {
		return "", false
	}

	remaining := hook.FilterIrrelevantFiles(candidates)
	for path := range remaining {
		return path, true
	}
	return "", false
}

// localScopeForPath finds the local scope that owns path, per the
// project's TestFolders configuration: the longest matching folder
// prefix wins, so a nested root (e.g. "pkg/sub/tests") takes priority
// over a shallower one that also happens to prefix path.
func localScopeForPath(path string, folders map[string]string) (string, bool) {
	var scope, best string
	found := false
	for prefix, s := range folders {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		if !found || len(prefix) > len(best) {
			best, scope, found = prefix, s, true
		}
	}
	return scope, found
}

func toSet(paths []string) map[string]bool {
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		out[p] = true
	}
	return out
}
