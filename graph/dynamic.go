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

// AddDynamicDependenciesAtLeaves installs a runtime-observed dependency
// overlay at the given leaf modules: a tracker session recorded that
// importing some leaf module actually pulled in extra targets that
// static analysis can't see (plugin loaders, entry-point discovery,
// and the like).
//
// Every id named must currently be a leaf — it must have no in-edges in
// the reverse index — or the whole call fails with ErrUnresolvedLeaf and
// the graph is left unchanged. This keeps the overlay additive at the
// fringe of the graph rather than silently rewriting interior edges.
//
// Each id is looked up in the global scope, so only an overlay's Scopes
// entry keyed "" is installed; entries keyed by a named local scope are
// skipped and add nothing.
func (g *Graph) AddDynamicDependenciesAtLeaves(overlays []LeafOverlay) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensureClosures()

	leafKeys := make([]nodeKey, len(overlays))
	for i, overlay := range overlays {
		key := nodeKey{overlay.ID, ""}
		if _, ok := g.nodes[key]; !ok {
			return ErrUnresolvedLeaf
		}
		if len(g.reverse[key]) > 0 {
			return ErrUnresolvedLeaf
		}
		leafKeys[i] = key
	}

	for i, overlay := range overlays {
		key := leafKeys[i]
		node := g.nodes[key]
		for scope, extras := range overlay.Scopes {
			if scope != "" && scope != node.LocalScope {
				continue
			}
			for _, extra := range extras {
				node.Deps[extra] = true
				g.propagateClosure(key, node, extra)
			}
		}
		g.dynamicAtLeaves = append(g.dynamicAtLeaves, overlay)
	}

	g.buildReverseIndex()
	return nil
}

// propagateClosure grows node's closure (and, transitively, every
// ancestor's shared closure, since ancestors either share node's closure
// handle via a cycle group or reach node through the reverse index) to
// include extra and whatever extra's own closure already contains. key is
// node's own node key, needed to walk g.reverse (which is keyed by
// (id, scope), not by bare id).
func (g *Graph) propagateClosure(key nodeKey, node *Node, extra ModuleID) {
	grow := map[ModuleID]bool{extra: true}
	if target, _, ok := g.lookupFrom(extra, key.scope); ok && target.closure != nil {
		for id := range target.closure.snapshot() {
			grow[id] = true
		}
	}

	visited := make(map[*closureSet]bool)
	var walk func(k nodeKey, n *Node)
	walk = func(k nodeKey, n *Node) {
		if n.closure == nil {
			return
		}
		if visited[n.closure] {
			return
		}
		visited[n.closure] = true
		if !n.closure.extend(grow) {
			return
		}
		for ancestor := range g.reverse[k] {
			if an, ok := g.nodes[ancestor]; ok {
				walk(ancestor, an)
			}
		}
	}
	walk(key, node)
}
