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
	"io/fs"
	"sort"
	"strings"
	"sync"

	pfs "prunegraph.dev/prune/fs"
	"prunegraph.dev/prune/parser"
)

// Node is one module in the dependency graph.
type Node struct {
	ID ModuleID

	// ImplPath/InterfacePath are the backing source files. Either may be
	// empty. When both are set, InterfacePath's imports are authoritative
	// for Deps; ImplPath still participates in the file-path index but
	// FileDependsOn(ImplPath) reports absent.
	ImplPath      string
	InterfacePath string

	// IsPackage is true when the defining file is an __init__, so
	// relative-import absolutization treats this id as its own package
	// rather than stripping a trailing component.
	IsPackage bool

	LocalScope string // empty for global-scope modules

	// Deps is the resolved direct dependency set (includes external
	// leaves, which have no backing Node). A dependency id is always the
	// bare dotted name; which actual Node it names is scope-dependent and
	// is re-derived at lookup time via Graph.lookupFrom, using this
	// node's own LocalScope to disambiguate.
	Deps map[ModuleID]bool

	closure *closureSet
}

// nodeKey is the Graph's real node identity: a module id alone is not
// unique, since the same leaf name can exist independently in more than
// one local scope (each local root has its own namespace). Every node is
// really identified by its id qualified by the local scope that owns it
// ("" for global-scope modules).
type nodeKey struct {
	id    ModuleID
	scope string
}

// closureSet is the shared, interior-mutable handle every member of a
// cycle group points to. Pointer identity (not value equality) is the
// contract: two nodes are in the same cycle group iff their
// *closureSet pointers are equal.
type closureSet struct {
	mu  sync.Mutex
	set map[ModuleID]bool
}

func newClosureSet() *closureSet {
	return &closureSet{set: make(map[ModuleID]bool)}
}

func (c *closureSet) snapshot() map[ModuleID]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[ModuleID]bool, len(c.set))
	for k := range c.set {
		out[k] = true
	}
	return out
}

func (c *closureSet) extend(ids map[ModuleID]bool) (grew bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range ids {
		if !c.set[id] {
			c.set[id] = true
			grew = true
		}
	}
	return grew
}

func (c *closureSet) add(id ModuleID) (grew bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set[id] {
		return false
	}
	c.set[id] = true
	return true
}

// Graph is the module dependency graph: forward index (via nodes' Deps),
// reverse index, file-path index, and the unresolved-reference ledger.
//
// Construction is single-threaded-cooperative: Build walks files and
// resolves references serially to keep cycle-group identity
// deterministic. Once built, read-only queries are safe for concurrent
// use as long as no mutator (AddDynamicDependenciesAtLeaves, Clone) is in
// flight — mu enforces that.
type Graph struct {
	mu sync.RWMutex

	nodes map[nodeKey]*Node
	// filePaths maps every backing file path (impl and interface alike)
	// to the node key it names.
	filePaths map[string]nodeKey

	reverse map[nodeKey]map[nodeKey]bool

	globalNamespaces map[string]bool
	localNamespaces  map[string]bool
	externalPrefixes map[string]bool

	unresolved []UnresolvedRef

	// dynamicAtLeaves records installed overlay edges so Clone can copy
	// them and ToFile/FromFile can round-trip them.
	dynamicAtLeaves []LeafOverlay

	// closuresBuilt guards the one-time Tarjan SCC pass in ensureClosures.
	closuresBuilt bool
}

func newGraph() *Graph {
	return &Graph{
		nodes:            make(map[nodeKey]*Node),
		filePaths:        make(map[string]nodeKey),
		reverse:          make(map[nodeKey]map[nodeKey]bool),
		globalNamespaces: make(map[string]bool),
		localNamespaces:  make(map[string]bool),
		externalPrefixes: make(map[string]bool),
	}
}

// lookupFrom resolves id as seen from a module whose own local scope is
// fromScope: a node sharing fromScope wins, falling back to the
// global-scope node. This is the one place that implements "a local id
// must be qualified by its package key for lookup" — callers that don't
// have a referring scope (or want the global-only view) pass "".
func (g *Graph) lookupFrom(id ModuleID, fromScope string) (*Node, nodeKey, bool) {
	if fromScope != "" {
		if n, ok := g.nodes[nodeKey{id, fromScope}]; ok {
			return n, nodeKey{id, fromScope}, true
		}
	}
	if n, ok := g.nodes[nodeKey{id, ""}]; ok {
		return n, nodeKey{id, ""}, true
	}
	return nil, nodeKey{}, false
}

// Build discovers every file under every source root named by hook,
// parses it, resolves its imports, and returns the populated Graph.
func Build(osfs pfs.FileSystem, hook Hook, logger Logger) (*Graph, error) {
	if logger == nil {
		logger = NopLogger{}
	}

	g := newGraph()
	for _, ns := range hook.GlobalNamespaces() {
		g.globalNamespaces[ns] = true
	}
	for _, ns := range hook.LocalNamespaces() {
		g.localNamespaces[ns] = true
	}
	for _, p := range hook.ExternalImports() {
		g.externalPrefixes[p] = true
	}

	roots := parser.SourceRoots(hook.SourceRoots())

	type parsed struct {
		result     parser.FileResult
		localScope string
	}
	// byID is keyed by (id, localScope), not id alone: the same leaf name
	// can be produced independently by two different local roots (e.g.
	// two packages each with their own tests/helpers.py), and those must
	// remain distinct nodes rather than collapsing into one.
	byID := make(map[nodeKey][]parsed)

	for rootPath, prefix := range roots {
		localScope := localScopeFor(rootPath, prefix, g.localNamespaces)

		walkErr := fs.WalkDir(osfs, rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warning("walking %s: %v", path, err)
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(path, ".py") && !strings.HasSuffix(path, ".pyi") {
				return nil
			}
			result, ok := parser.ParseFile(osfs, path, roots)
			if !ok {
				return nil
			}
			key := nodeKey{result.ID, localScope}
			byID[key] = append(byID[key], parsed{result, localScope})
			return nil
		})
		if walkErr != nil {
			logger.Warning("walking source root %s: %v", rootPath, walkErr)
		}
	}

	type pending struct {
		node          *Node
		authoritative *parsed
	}
	var toResolve []pending

	for key, entries := range byID {
		node := &Node{ID: key.id, LocalScope: key.scope, Deps: make(map[ModuleID]bool), closure: newClosureSet()}

		var impl, iface *parsed
		for i := range entries {
			e := &entries[i]
			switch e.result.Kind {
			case parser.Interface:
				iface = e
			default:
				impl = e
			}
			if strings.HasSuffix(e.result.Path, "/__init__.py") || e.result.Path == "__init__.py" ||
				strings.HasSuffix(e.result.Path, "/__init__.pyi") || e.result.Path == "__init__.pyi" {
				node.IsPackage = true
			}
		}

		var authoritative *parsed
		if iface != nil && !iface.result.Namespace {
			node.InterfacePath = iface.result.Path
			g.filePaths[iface.result.Path] = key
			authoritative = iface
		}
		if impl != nil {
			node.ImplPath = impl.result.Path
			g.filePaths[impl.result.Path] = key
			if authoritative == nil && !impl.result.Namespace {
				authoritative = impl
			}
		}

		isNamespace := (impl == nil || impl.result.Namespace) && (iface == nil || iface.result.Namespace)
		if isNamespace {
			// Transparent: no dependency node, but descendants still use
			// this id as a dotted prefix (already true by construction).
			continue
		}

		g.nodes[key] = node
		toResolve = append(toResolve, pending{node, authoritative})
	}

	// Synthesize virtual package nodes for any ancestor prefix that has
	// no backing __init__ file at all (PEP 420-style implicit namespace
	// packages): they are still valid resolution targets and dependents,
	// within the scope of the descendant that implied them.
	for key := range g.nodes {
		for cur := key.id; ; {
			parent, ok := parentPackage(cur)
			if !ok {
				break
			}
			pkey := nodeKey{parent, key.scope}
			if _, exists := g.nodes[pkey]; !exists {
				g.nodes[pkey] = &Node{
					ID:         parent,
					LocalScope: key.scope,
					Deps:       make(map[ModuleID]bool),
					closure:    newClosureSet(),
					IsPackage:  true,
				}
			}
			cur = parent
		}
	}

	for _, p := range toResolve {
		if p.authoritative != nil {
			resolveInto(g, p.node, p.authoritative.result.Imports, hook.IncludeTypechecking())
		}
	}

	// Implicit ancestor-package dependency: importing any submodule
	// always loads its parent package first.
	for key, node := range g.nodes {
		if parent, ok := parentPackage(key.id); ok {
			if _, exists := g.nodes[nodeKey{parent, key.scope}]; exists {
				node.Deps[parent] = true
			}
		}
	}

	g.buildReverseIndex()

	for id, extra := range hook.DynamicDependencies() {
		node, ok := g.nodes[nodeKey{id, ""}]
		if !ok {
			continue
		}
		for _, dep := range extra {
			node.Deps[dep] = true
		}
	}
	g.buildReverseIndex()

	for _, overlay := range hook.DynamicDependenciesAtLeaves() {
		if err := g.AddDynamicDependenciesAtLeaves([]LeafOverlay{overlay}); err != nil {
			logger.Warning("dynamic overlay for %s: %v", overlay.ID, err)
		}
	}

	return g, nil
}

// buildReverseIndex rebuilds g.reverse from every node's Deps, resolving
// each bare dependency id to the node key it actually names (from the
// POV of the node that holds the edge) so a changed module's dependents
// land in the right local scope's bucket.
func (g *Graph) buildReverseIndex() {
	g.reverse = make(map[nodeKey]map[nodeKey]bool)
	for key, node := range g.nodes {
		for dep := range node.Deps {
			tkey := nodeKey{dep, ""}
			if _, resolved, ok := g.lookupFrom(dep, key.scope); ok {
				tkey = resolved
			}
			if g.reverse[tkey] == nil {
				g.reverse[tkey] = make(map[nodeKey]bool)
			}
			g.reverse[tkey][key] = true
		}
	}
}

func parentPackage(id ModuleID) (ModuleID, bool) {
	s := string(id)
	i := strings.LastIndex(s, ".")
	if i < 0 {
		return "", false
	}
	return ModuleID(s[:i]), true
}

// localScopeFor returns the local-namespace key for a source root, or
// empty string if the root's top-level prefix is a global namespace.
func localScopeFor(rootPath, prefix string, localNamespaces map[string]bool) string {
	top := prefix
	if i := strings.IndexByte(prefix, '.'); i >= 0 {
		top = prefix[:i]
	}
	if localNamespaces[top] {
		return rootPath
	}
	return ""
}

// FileDependsOn returns the direct dependency set recorded for path, or
// (nil, false) if path is unknown to the graph or is an implementation
// file shadowed by a higher-priority interface sibling.
func (g *Graph) FileDependsOn(path string) (map[ModuleID]bool, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	key, ok := g.filePaths[path]
	if !ok {
		return nil, false
	}
	node := g.nodes[key]
	if node == nil {
		return nil, false
	}
	if node.InterfacePath != "" && path == node.ImplPath {
		return nil, false
	}
	return cloneSet(node.Deps), true
}

// ModuleIDForFile returns the module id backed by path, or (\"\", false)
// if path is unknown to the graph. Unlike FileDependsOn it does not
// apply the interface-shadowing rule: it answers "what module is this
// file part of", not "what does this file itself import".
func (g *Graph) ModuleIDForFile(path string) (ModuleID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	key, ok := g.filePaths[path]
	return key.id, ok
}

// ModuleDependsOn returns the direct dependency set for id, optionally
// scoped to a local package (localPkg may be empty for the global view).
func (g *Graph) ModuleDependsOn(id ModuleID, localPkg string) (map[ModuleID]bool, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[nodeKey{id, localPkg}]
	if !ok {
		return nil, false
	}
	return cloneSet(node.Deps), true
}

// Unresolved returns every raw reference the resolver could not bind.
func (g *Graph) Unresolved() []UnresolvedRef {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]UnresolvedRef, len(g.unresolved))
	copy(out, g.unresolved)
	return out
}

// Clone returns a deep copy safe for independent mutation, including
// fresh (non-shared) closure sets so mutating the clone never affects the
// original's cycle groups.
func (g *Graph) Clone() *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensureClosures()

	clone := newGraph()
	for k, v := range g.globalNamespaces {
		clone.globalNamespaces[k] = v
	}
	for k, v := range g.localNamespaces {
		clone.localNamespaces[k] = v
	}
	for k, v := range g.externalPrefixes {
		clone.externalPrefixes[k] = v
	}

	// First pass: clone nodes with fresh closures, one per original
	// closureSet, so cycle groups stay shared within the clone.
	freshClosures := make(map[*closureSet]*closureSet)
	for key, n := range g.nodes {
		nc := &Node{
			ID:            n.ID,
			ImplPath:      n.ImplPath,
			InterfacePath: n.InterfacePath,
			IsPackage:     n.IsPackage,
			LocalScope:    n.LocalScope,
			Deps:          cloneSet(n.Deps),
		}
		if n.closure != nil {
			shared, ok := freshClosures[n.closure]
			if !ok {
				shared = &closureSet{set: n.closure.snapshot()}
				freshClosures[n.closure] = shared
			}
			nc.closure = shared
		}
		clone.nodes[key] = nc
	}

	for p, key := range g.filePaths {
		clone.filePaths[p] = key
	}

	clone.unresolved = append([]UnresolvedRef(nil), g.unresolved...)
	clone.dynamicAtLeaves = append([]LeafOverlay(nil), g.dynamicAtLeaves...)
	clone.closuresBuilt = true
	clone.buildReverseIndex()
	return clone
}

func cloneSet(m map[ModuleID]bool) map[ModuleID]bool {
	out := make(map[ModuleID]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func sortedIDs(m map[ModuleID]bool) []ModuleID {
	out := make([]ModuleID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// sortedNodeKeys orders keys by scope then id, for deterministic
// iteration (snapshot encoding, mainly) over a nodeKey-keyed map.
func sortedNodeKeys(m map[nodeKey]*Node) []nodeKey {
	out := make([]nodeKey, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].scope != out[j].scope {
			return out[i].scope < out[j].scope
		}
		return out[i].id < out[j].id
	})
	return out
}
