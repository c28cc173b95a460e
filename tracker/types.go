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

// Package tracker implements a runtime import tracker: a
// single-threaded state machine that instruments a host language's
// module loader, consolidating import cycles onto shared closure
// handles the same way graph's closure computation does for the static
// graph, and classifying dynamic (string-keyed) imports by stack
// inspection.
//
// This is host-instrumentation code with no real module system to hook
// into in Go itself, so it is exercised end-to-end in this repository's
// own tests via reference_host.go, a toy in-process loader.
package tracker

import "errors"

// ModuleID is the dotted id a Host reports for a loaded module. It is
// intentionally independent from graph.ModuleID — the Tracker runs
// without a Graph in scope; validate.CrossCheck is what brings the two
// together.
type ModuleID string

// Frame is one entry of a Host-reported call stack.
type Frame struct {
	Module   ModuleID
	Function string
	File     string
}

// AnchorKey identifies one (module, function) pair named in
// Config.DynamicAnchors or Config.DynamicIgnores.
type AnchorKey struct {
	Module   ModuleID
	Function string
}

// Config mirrors the Hook contract's tracker-facing operations:
// import_patches, dynamic_anchors, dynamic_ignores.
type Config struct {
	// Prefixes restricts tracking to these module-id prefixes; empty
	// means "track everything".
	Prefixes []string

	// DynamicAnchors are explicit (module, function) attribution points
	// for dynamic imports.
	DynamicAnchors map[AnchorKey]bool

	// DynamicIgnores are explicit (module, function) pairs whose loads
	// are always treated as static, never attributed (rule 1).
	DynamicIgnores map[AnchorKey]bool

	// Patches run once per module id, the first time it is recorded as
	// successfully loaded, receiving whatever the Host's loadFn
	// returned as the loaded artifact.
	Patches map[ModuleID][]func(loaded any)
}

// Logger receives diagnostic output from the Tracker. The default
// NopLogger discards everything.
type Logger interface {
	Warning(format string, args ...any)
	Debug(format string, args ...any)
}

// NopLogger implements Logger with no-ops.
type NopLogger struct{}

func (NopLogger) Warning(format string, args ...any) {}
func (NopLogger) Debug(format string, args ...any)   {}

// ErrContextMismatch is returned by ExitContext when the name given
// does not match the top of the context stack.
var ErrContextMismatch = errors.New("tracker: exit_context name does not match top of stack")
