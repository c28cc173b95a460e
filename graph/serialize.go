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
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"

	"prunegraph.dev/prune/fs"
)

// serialFormatVersion guards snapshot compatibility: FromFile refuses to
// load a snapshot written by an incompatible version rather than risk
// silently misinterpreting its node/closure layout.
const serialFormatVersion = 1

// snapshot is the on-disk shape of a Graph: plain data, no mutexes or
// pointers, so it round-trips cleanly through encoding/gob.
type snapshot struct {
	Version int

	Nodes []snapshotNode

	GlobalNamespaces []string
	LocalNamespaces  []string
	ExternalPrefixes []string

	Unresolved      []UnresolvedRef
	DynamicAtLeaves []LeafOverlay
}

type snapshotNode struct {
	ID            ModuleID
	ImplPath      string
	InterfacePath string
	IsPackage     bool
	LocalScope    string
	Deps          []ModuleID
}

// ToFile writes a self-describing snapshot of g to path via osfs. Only
// the raw node/edge set is persisted; FromFile recomputes cycle groups
// and closures from those edges on first query, so the
// object-identical-closure property holds for the loaded graph exactly
// as it did for the one that produced the snapshot.
func (g *Graph) ToFile(osfs fs.FileSystem, path string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := snapshot{
		Version:          serialFormatVersion,
		GlobalNamespaces: sortedStrings(g.globalNamespaces),
		LocalNamespaces:  sortedStrings(g.localNamespaces),
		ExternalPrefixes: sortedStrings(g.externalPrefixes),
		Unresolved:       append([]UnresolvedRef(nil), g.unresolved...),
		DynamicAtLeaves:  append([]LeafOverlay(nil), g.dynamicAtLeaves...),
	}

	for _, key := range sortedNodeKeys(g.nodes) {
		node := g.nodes[key]
		snap.Nodes = append(snap.Nodes, snapshotNode{
			ID:            node.ID,
			ImplPath:      node.ImplPath,
			InterfacePath: node.InterfacePath,
			IsPackage:     node.IsPackage,
			LocalScope:    node.LocalScope,
			Deps:          sortedIDs(node.Deps),
		})
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("encoding graph snapshot: %w", err)
	}
	return osfs.WriteFile(path, buf.Bytes(), 0644)
}

// FromFile loads a snapshot written by ToFile and reconstructs a Graph
// whose queries, including Closure, behave identically to the graph that
// produced it.
func FromFile(osfs fs.FileSystem, path string) (*Graph, error) {
	data, err := osfs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph snapshot: %w", err)
	}

	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding graph snapshot: %w", err)
	}
	if snap.Version != serialFormatVersion {
		return nil, fmt.Errorf("graph snapshot version %d unsupported (want %d)", snap.Version, serialFormatVersion)
	}

	g := newGraph()
	for _, ns := range snap.GlobalNamespaces {
		g.globalNamespaces[ns] = true
	}
	for _, ns := range snap.LocalNamespaces {
		g.localNamespaces[ns] = true
	}
	for _, p := range snap.ExternalPrefixes {
		g.externalPrefixes[p] = true
	}

	for _, sn := range snap.Nodes {
		deps := make(map[ModuleID]bool, len(sn.Deps))
		for _, d := range sn.Deps {
			deps[d] = true
		}
		key := nodeKey{sn.ID, sn.LocalScope}
		g.nodes[key] = &Node{
			ID:            sn.ID,
			ImplPath:      sn.ImplPath,
			InterfacePath: sn.InterfacePath,
			IsPackage:     sn.IsPackage,
			LocalScope:    sn.LocalScope,
			Deps:          deps,
		}
		if sn.ImplPath != "" {
			g.filePaths[sn.ImplPath] = key
		}
		if sn.InterfacePath != "" {
			g.filePaths[sn.InterfacePath] = key
		}
	}

	g.unresolved = append([]UnresolvedRef(nil), snap.Unresolved...)
	g.dynamicAtLeaves = append([]LeafOverlay(nil), snap.DynamicAtLeaves...)
	g.buildReverseIndex()

	return g, nil
}

func sortedStrings(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	// Insertion order doesn't matter for correctness; sort for
	// deterministic snapshot bytes.
	sort.Strings(out)
	return out
}
