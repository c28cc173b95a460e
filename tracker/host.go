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

package tracker

// Host is the mapping of the Tracker's abstract hook points onto a
// concrete host's module-loading machinery. A real integration (a
// Python sys.meta_path finder, a Node require hook) wires its own
// loader through Host; reference_host.go provides a toy in-process
// implementation exercised by this package's own tests.
type Host interface {
	// Stack returns the caller-visible frames above the Tracker's own
	// call into the host, innermost (most recently entered) first.
	// Used for dynamic-import classification.
	Stack() []Frame

	// IsDynamicEntryPoint reports whether f is a recognized dynamic-
	// import entry point: the platform's import-by-name callable, or a
	// literal __import__-equivalent call site.
	IsDynamicEntryPoint(f Frame) bool

	// IsInternal reports whether f belongs to the Tracker itself or the
	// host's import machinery, and should be skipped when walking the
	// stack for attribution.
	IsInternal(f Frame) bool

	// IsSubmodule reports whether name is a known submodule of base
	// (i.e. base+"."+name has a backing module), used by
	// OnFromImportBinding to decide whether a repeat "from X import Y"
	// should be recorded as a dependency on the submodule.
	IsSubmodule(base ModuleID, name string) bool
}
