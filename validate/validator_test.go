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
	"prunegraph.dev/prune/tracker"
)

// TestCrossCheckFindsMissingStaticDep builds a Graph that never saw an
// import (e.g. one resolved only via a dynamic __import__ call the
// static resolver can't follow), tracks the same module at runtime, and
// checks CrossCheck flags exactly the dependency the Graph missed.
func TestCrossCheckFindsMissingStaticDep(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("app/entry.py", "", 0644)
	mfs.AddFile("app/plugin.py", "", 0644)

	hook := &graph.StaticHook{
		Global: []string{"app"},
		Roots:  map[string]string{"app": "app"},
	}
	g, err := graph.Build(mfs, hook, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	host := tracker.NewReferenceHost()
	tr := tracker.New(host, tracker.Config{}, nil)
	host.Tracker = tr

	host.Register(&tracker.Module{ID: "app.plugin", File: "app/plugin.py"})
	host.Register(&tracker.Module{
		ID:      "app.entry",
		File:    "app/entry.py",
		Imports: []tracker.ModuleID{"app.plugin"},
	})

	if err := host.Load("app.entry"); err != nil {
		t.Fatalf("Load(app.entry): %v", err)
	}

	discrepancies := CrossCheck(tr, g)
	if len(discrepancies) != 1 {
		t.Fatalf("expected 1 discrepancy, got %d: %v", len(discrepancies), discrepancies)
	}
	d := discrepancies[0]
	if d.Module != "app.entry" {
		t.Errorf("discrepancy module = %s, want app.entry", d.Module)
	}
	if len(d.Missing) != 1 || d.Missing[0] != "app.plugin" {
		t.Errorf("discrepancy missing = %v, want [app.plugin]", d.Missing)
	}
}

// TestCrossCheckCleanWhenStaticCoversRuntime ensures a Graph that
// already has the edge the tracker observed produces no discrepancy.
func TestCrossCheckCleanWhenStaticCoversRuntime(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("app/entry.py", "import app.plugin\n", 0644)
	mfs.AddFile("app/plugin.py", "", 0644)

	hook := &graph.StaticHook{
		Global: []string{"app"},
		Roots:  map[string]string{"app": "app"},
	}
	g, err := graph.Build(mfs, hook, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	host := tracker.NewReferenceHost()
	tr := tracker.New(host, tracker.Config{}, nil)
	host.Tracker = tr

	host.Register(&tracker.Module{ID: "app.plugin", File: "app/plugin.py"})
	host.Register(&tracker.Module{
		ID:      "app.entry",
		File:    "app/entry.py",
		Imports: []tracker.ModuleID{"app.plugin"},
	})

	if err := host.Load("app.entry"); err != nil {
		t.Fatalf("Load(app.entry): %v", err)
	}

	discrepancies := CrossCheck(tr, g)
	if len(discrepancies) != 0 {
		t.Errorf("expected no discrepancies, got %v", discrepancies)
	}
}
