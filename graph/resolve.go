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
	"strings"

	"prunegraph.dev/prune/parser"
)

// resolveInto applies the six resolution rules, in priority order, to
// every raw reference parsed from node's authoritative file, filling
// node.Deps and appending to g.unresolved for anything it can't bind.
// Called only during Build, before the graph is published for
// concurrent reads.
func resolveInto(g *Graph, node *Node, refs []parser.ImportRef, includeTypechecking bool) {
	for _, ref := range refs {
		if ref.TypecheckingOnly && !includeTypechecking {
			continue
		}

		target := ref.Target
		if ref.Kind == parser.Relative {
			target = absolutizeRelative(node, ref)
		}

		if len(ref.FromNames) == 0 {
			if resolved, ok := resolveSimple(g, node, target); ok {
				node.Deps[resolved] = true
			} else {
				g.unresolved = append(g.unresolved, UnresolvedRef{Module: node.ID, Target: target, Line: ref.Line})
			}
			continue
		}

		resolveFromImport(g, node, target, ref)
	}
}

// resolveFromImport handles "from X import a, b" (rule 3 plus the
// ordinary rules applied to the base X): X itself is resolved with the
// normal rules, and each imported name is additionally checked against
// "X.name" to decide the submodule-vs-attribute shadowing question (the
// spec's chosen resolution: submodule wins when a module file exists).
func resolveFromImport(g *Graph, node *Node, base parser.ModuleID, ref parser.ImportRef) {
	anyResolved := false

	if resolved, ok := resolveSimple(g, node, base); ok {
		node.Deps[resolved] = true
		anyResolved = true
	}

	for _, name := range ref.FromNames {
		if name == "*" {
			continue
		}
		sub := ModuleID(string(base) + "." + name)
		if _, _, ok := g.lookupFrom(sub, node.LocalScope); ok {
			node.Deps[sub] = true
			anyResolved = true
		}
		// Otherwise name is an attribute of the base module/object; the
		// base dependency already recorded above covers it.
	}

	if !anyResolved {
		g.unresolved = append(g.unresolved, UnresolvedRef{Module: node.ID, Target: base, Line: ref.Line})
	}
}

// resolveSimple applies rules 2, 4, 5, 6 to an already-absolutized
// target: exact match (preferring a node in node's own local scope, since
// the same leaf name may be backed by a different node in another local
// scope), external-prefix leaf, local-scope-prefixed retry, else
// unresolved.
func resolveSimple(g *Graph, node *Node, target parser.ModuleID) (ModuleID, bool) {
	id := ModuleID(target)

	if _, _, ok := g.lookupFrom(id, node.LocalScope); ok {
		return id, true
	}

	if top := topLevelComponent(string(target)); g.externalPrefixes[top] {
		return ModuleID(top), true
	}

	if node.LocalScope != "" {
		candidate := ModuleID(node.LocalScope + "." + string(target))
		if _, _, ok := g.lookupFrom(candidate, node.LocalScope); ok {
			return candidate, true
		}
	}

	return "", false
}

// absolutizeRelative resolves a relative reference against the importing
// module's own package (rule 1). Level 1 means "my own package"; each
// additional level strips one more trailing component.
func absolutizeRelative(node *Node, ref parser.ImportRef) parser.ModuleID {
	components := strings.Split(string(node.ID), ".")
	if !node.IsPackage && len(components) > 0 {
		components = components[:len(components)-1]
	}

	strip := ref.Level - 1
	if strip > 0 {
		if strip >= len(components) {
			components = nil
		} else {
			components = components[:len(components)-strip]
		}
	}

	base := strings.Join(components, ".")
	if ref.Target == "" {
		return parser.ModuleID(base)
	}
	if base == "" {
		return ref.Target
	}
	return parser.ModuleID(base + "." + string(ref.Target))
}

func topLevelComponent(id string) string {
	if i := strings.IndexByte(id, '.'); i >= 0 {
		return id[:i]
	}
	return id
}
