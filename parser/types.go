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

// Package parser reads Python-like source files and emits raw import
// references. It never resolves a reference to a module id — that is
// graph.Graph's job at build time — and it never fails on malformed
// source: callers get an empty import list instead.
package parser

// ModuleID is a dotted canonical module name, e.g. "pkg.sub.mod".
type ModuleID string

// Kind classifies how a raw reference named its target.
type Kind int

const (
	// Absolute is a plain "import pkg.sub" (or a dynamic call-site literal).
	Absolute Kind = iota
	// Relative is "from . import x" / "from ..pkg import x"; Level counts the dots.
	Relative
	// FromImport is "from pkg import name" where name may be a submodule
	// or an attribute — the resolver decides which at graph-build time.
	FromImport
)

func (k Kind) String() string {
	switch k {
	case Absolute:
		return "absolute"
	case Relative:
		return "relative"
	case FromImport:
		return "from-import"
	default:
		return "unknown"
	}
}

// ImportRef is one raw import reference extracted from a source file.
type ImportRef struct {
	// Target is the dotted name as written. For Relative, it excludes the
	// leading dots (those are counted in Level).
	Target ModuleID
	Kind   Kind
	// Level is the number of leading dots for Relative imports, 0 otherwise.
	Level int
	// FromNames holds the names imported via "from X import a, b, c".
	// Empty for plain "import X" statements.
	FromNames []string
	// Dynamic marks a call-site literal: __import__("x") or
	// importlib.import_module("x").
	Dynamic bool
	// TypecheckingOnly marks an import nested under a
	// "if TYPE_CHECKING:" (or equivalent) guard.
	TypecheckingOnly bool
	Line             int
}

// FileKind distinguishes a regular implementation file from its
// higher-priority interface-file sibling.
type FileKind int

const (
	Implementation FileKind = iota
	Interface
)

// SourceRoots maps a filesystem path to the module prefix its files are
// rooted under. The prefix may be empty for a root whose children are
// top-level modules.
type SourceRoots map[string]string

// FileResult is everything the graph needs from parsing one file.
type FileResult struct {
	ID      ModuleID
	Path    string
	Kind    FileKind
	Imports []ImportRef
	// Namespace is true when this file is a namespace-package marker
	// __init__ with no executable content of its own: the graph does not
	// create a dependency node for it, though its directory still
	// contributes a dotted component to descendants' ids.
	Namespace bool
}
