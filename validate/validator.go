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
	"sort"

	"prunegraph.dev/prune/graph"
	"prunegraph.dev/prune/tracker"
)

// Discrepancy is one module where the Tracker observed, at runtime, a
// dependency the static Graph never recorded.
type Discrepancy struct {
	Module  graph.ModuleID
	Missing []graph.ModuleID
}

// CrossCheck compares every module tr actually tracked against g's
// static closure for that module id, reporting only the direction that
// matters: ids the Tracker observed loading that the Graph's import
// resolution missed entirely. The reverse — static deps the Tracker
// never exercised this run — is expected (most runs touch a subset of
// the import graph) and is never reported.
//
// tracker.ModuleID and graph.ModuleID are both plain strings by
// design, since the Tracker runs independently of the Graph;
// CrossCheck is the one place that reconciles them, by string
// identity.
func CrossCheck(tr *tracker.Tracker, g *graph.Graph) []Discrepancy {
	var out []Discrepancy

	ids := tr.TrackedIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		runtime, ok := tr.Tracked(id)
		if !ok {
			continue
		}
		moduleID := graph.ModuleID(id)
		static, ok := g.Closure(moduleID)
		if !ok {
			// The Graph never saw this module at all: every runtime
			// dependency other than itself is missing.
			out = append(out, missingDiscrepancy(moduleID, runtime, nil, id))
			continue
		}
		if d := missingDiscrepancy(moduleID, runtime, static, id); len(d.Missing) > 0 {
			out = append(out, d)
		}
	}

	return out
}

func missingDiscrepancy(moduleID graph.ModuleID, runtime map[tracker.ModuleID]bool, static map[graph.ModuleID]bool, self tracker.ModuleID) Discrepancy {
	var missing []graph.ModuleID
	for id := range runtime {
		if id == self {
			continue
		}
		gid := graph.ModuleID(id)
		if !static[gid] {
			missing = append(missing, gid)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return Discrepancy{Module: moduleID, Missing: missing}
}
