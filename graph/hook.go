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

// StaticHook is a plain-data Hook implementation for tests and simple CLI
// invocations that don't need a project-scanning heuristic.
type StaticHook struct {
	Global              []string
	Local               []string
	Roots               map[string]string
	External            []string
	Dynamic             map[ModuleID][]ModuleID
	DynamicAtLeaves     []LeafOverlay
	Typechecking        bool
}

func (h *StaticHook) GlobalNamespaces() []string                   { return h.Global }
func (h *StaticHook) LocalNamespaces() []string                    { return h.Local }
func (h *StaticHook) SourceRoots() map[string]string               { return h.Roots }
func (h *StaticHook) ExternalImports() []string                    { return h.External }
func (h *StaticHook) DynamicDependencies() map[ModuleID][]ModuleID { return h.Dynamic }
func (h *StaticHook) DynamicDependenciesAtLeaves() []LeafOverlay   { return h.DynamicAtLeaves }
func (h *StaticHook) IncludeTypechecking() bool                    { return h.Typechecking }
