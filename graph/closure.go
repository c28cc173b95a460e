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

// Closure returns the full transitive dependency set of id: id itself
// plus every module reachable by following Deps edges. Modules that
// participate in an import cycle share one underlying closureSet (by
// pointer), so growing one member's closure via
// AddDynamicDependenciesAtLeaves is visible from every other member
// without recomputation.
//
// id is resolved in the global scope only: a local-scope module must be
// reached through ModuleDependsOn or LocalAffectedByModules instead,
// qualified by the local scope that owns it.
func (g *Graph) Closure(id ModuleID) (map[ModuleID]bool, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[nodeKey{id, ""}]
	if !ok {
		return nil, false
	}
	g.ensureClosures()
	return node.closure.snapshot(), true
}

// ensureClosures computes every node's closure on first use via Tarjan's
// strongly-connected-components algorithm, assigning one shared
// closureSet per SCC: cycle groups are object-identical.
// Subsequent calls are a no-op once closures are populated; growth after
// that point happens incrementally through AddDynamicDependenciesAtLeaves.
func (g *Graph) ensureClosures() {
	if g.closuresBuilt {
		return
	}
	g.closuresBuilt = true

	type tstate struct {
		index   int
		lowlink int
		onStack bool
	}
	state := make(map[nodeKey]*tstate, len(g.nodes))
	var stack []nodeKey
	index := 0
	var sccs [][]nodeKey

	var strongconnect func(v nodeKey)
	strongconnect = func(v nodeKey) {
		state[v] = &tstate{index: index, lowlink: index, onStack: true}
		index++
		stack = append(stack, v)

		node := g.nodes[v]
		for dep := range node.Deps {
			_, w, ok := g.lookupFrom(dep, v.scope)
			if !ok {
				continue // external leaf, no SCC membership
			}
			if state[w] == nil {
				strongconnect(w)
				if state[w].lowlink < state[v].lowlink {
					state[v].lowlink = state[w].lowlink
				}
			} else if state[w].onStack {
				if state[w].index < state[v].lowlink {
					state[v].lowlink = state[w].index
				}
			}
		}

		if state[v].lowlink == state[v].index {
			var scc []nodeKey
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				state[w].onStack = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for key := range g.nodes {
		if state[key] == nil {
			strongconnect(key)
		}
	}

	// Tarjan emits SCCs in reverse topological order, so processing them
	// in that order and unioning each member's already-computed
	// dependency closures yields every node's full transitive closure in
	// one pass, with every SCC member sharing one closureSet handle.
	sccOf := make(map[nodeKey]*closureSet, len(g.nodes))
	for _, scc := range sccs {
		shared := newClosureSet()
		for _, key := range scc {
			sccOf[key] = shared
			shared.set[key.id] = true
		}
		for _, key := range scc {
			node := g.nodes[key]
			for dep := range node.Deps {
				if _, w, ok := g.lookupFrom(dep, key.scope); ok {
					if depSCC, known := sccOf[w]; known && depSCC != shared {
						for m := range depSCC.set {
							shared.set[m] = true
						}
					}
				} else {
					shared.set[dep] = true // external leaf
				}
			}
		}
		for _, key := range scc {
			g.nodes[key].closure = shared
		}
	}
}

// AffectedByModules returns every global-scope module that transitively
// depends on any id in changed, computed by walking the reverse index.
// A changed id is itself reported only if it is reached by that walk
// (through a cycle or from another changed id), not merely for being a
// seed.
// changed ids are looked up in the global scope; see LocalAffectedByModules
// for the per-local-scope view of the same complement.
func (g *Graph) AffectedByModules(changed []ModuleID) map[ModuleID]bool {
	keys := make([]nodeKey, len(changed))
	for i, id := range changed {
		keys[i] = nodeKey{id, ""}
	}

	g.mu.Lock()
	affected := g.affectedKeys(keys)
	g.mu.Unlock()

	out := make(map[ModuleID]bool)
	for k := range affected {
		if k.scope == "" {
			out[k.id] = true
		}
	}
	return out
}

// affectedKeys is the scope-aware core of AffectedByModules and
// LocalAffectedByModules: every node key reachable from changed by
// walking the reverse index. Callers must hold g.mu.
func (g *Graph) affectedKeys(changed []nodeKey) map[nodeKey]bool {
	g.ensureClosures()

	changedSet := make(map[nodeKey]bool, len(changed))
	for _, k := range changed {
		changedSet[k] = true
	}

	affected := make(map[nodeKey]bool)
	visited := make(map[nodeKey]bool)
	var visit func(k nodeKey)
	visit = func(k nodeKey) {
		if visited[k] {
			return
		}
		visited[k] = true
		for dependent := range g.reverse[k] {
			affected[dependent] = true
			visit(dependent)
		}
	}
	for k := range changedSet {
		visit(k)
	}
	return affected
}

// AffectedByFiles maps each path to its node key via filePaths, then
// walks the same reverse index AffectedByModules uses, reporting only
// global-scope dependents. Paths with no known module id are skipped
// rather than erroring, since a deleted or renamed file is a legitimate
// "changed" input.
func (g *Graph) AffectedByFiles(paths []string) map[ModuleID]bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	var keys []nodeKey
	for _, p := range paths {
		if key, ok := g.filePaths[p]; ok {
			keys = append(keys, key)
		}
	}

	affected := g.affectedKeys(keys)
	out := make(map[ModuleID]bool)
	for k := range affected {
		if k.scope == "" {
			out[k.id] = true
		}
	}
	return out
}

// LocalAffectedByModules is AffectedByModules' complement view grouped by
// local scope instead of flattened to the global namespace: every module
// transitively affected by changed, bucketed under the local scope that
// owns it. Global-scope dependents are omitted (see AffectedByModules for
// those). changed ids are looked up in the global scope, matching the
// common case of "a global module changed, which local test modules does
// that affect".
func (g *Graph) LocalAffectedByModules(changed []ModuleID) map[string]map[ModuleID]bool {
	keys := make([]nodeKey, len(changed))
	for i, id := range changed {
		keys[i] = nodeKey{id, ""}
	}

	g.mu.Lock()
	affected := g.affectedKeys(keys)
	g.mu.Unlock()

	return groupByScope(affected)
}

// LocalAffectedByFiles is LocalAffectedByModules starting from modified
// file paths instead of module ids: unlike LocalAffectedByModules' ids,
// a path may itself name a local-scope file, so its own node key (not a
// forced global lookup) seeds the walk.
func (g *Graph) LocalAffectedByFiles(paths []string) map[string]map[ModuleID]bool {
	g.mu.Lock()
	var keys []nodeKey
	for _, p := range paths {
		if key, ok := g.filePaths[p]; ok {
			keys = append(keys, key)
		}
	}
	affected := g.affectedKeys(keys)
	g.mu.Unlock()

	return groupByScope(affected)
}

func groupByScope(affected map[nodeKey]bool) map[string]map[ModuleID]bool {
	out := make(map[string]map[ModuleID]bool)
	for k := range affected {
		if k.scope == "" {
			continue
		}
		if out[k.scope] == nil {
			out[k.scope] = make(map[ModuleID]bool)
		}
		out[k.scope][k.id] = true
	}
	return out
}
