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

// Package graph builds and queries the module dependency graph: forward
// and reverse indices over resolved import edges, transitive closures
// with object-identical cycle-group sharing, and a dynamic-dependency
// overlay applied at leaf modules.
package graph

import (
	"errors"

	"prunegraph.dev/prune/parser"
)

// ModuleID is the dotted canonical module name shared with the parser.
type ModuleID = parser.ModuleID

// ErrUnresolvedLeaf is returned by AddDynamicDependenciesAtLeaves when an
// id named in the overlay has in-edges in the reverse index, i.e. isn't
// actually a leaf.
var ErrUnresolvedLeaf = errors.New("graph: id is not a leaf in the reverse index")

// ErrNotFound names the no-such-module-or-file condition. The package's
// own queries do not return it: they report an unknown id or path with a
// false ok result instead.
var ErrNotFound = errors.New("graph: no such module or file")

// UnresolvedRef is one raw import reference the resolver could not bind
// to a known id, an external prefix, or a local scope.
type UnresolvedRef struct {
	Module ModuleID
	Target parser.ModuleID
	Line   int
}

// LeafOverlay is one entry of Hook.DynamicDependenciesAtLeaves(): extra
// dependencies to install at a leaf module, scoped per local namespace.
type LeafOverlay struct {
	ID     ModuleID
	Scopes map[string][]ModuleID
}

// Logger receives diagnostic output during graph construction. The
// default NopLogger discards everything.
type Logger interface {
	Warning(format string, args ...any)
	Debug(format string, args ...any)
}

// NopLogger implements Logger with no-ops.
type NopLogger struct{}

func (NopLogger) Warning(format string, args ...any) {}
func (NopLogger) Debug(format string, args ...any)   {}

// Hook is the external collaborator supplying project configuration.
// The core only ever reads from it during Build.
type Hook interface {
	GlobalNamespaces() []string
	LocalNamespaces() []string
	SourceRoots() map[string]string
	ExternalImports() []string
	DynamicDependencies() map[ModuleID][]ModuleID
	DynamicDependenciesAtLeaves() []LeafOverlay
	IncludeTypechecking() bool
}
