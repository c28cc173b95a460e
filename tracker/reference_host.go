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

import "fmt"

// moduleEntryPoint is the name given to every real module's own top-level
// execution frame, the reference host's stand-in for "module body is
// currently executing" the way a Python traceback frame would read
// "<module>".
const moduleEntryPoint = "<module>"

// Module is one node the ReferenceHost knows how to "load": a name, the
// static imports its body performs (each driving a nested Load call, the
// way a real loader would recurse into import statements), and an
// optional Run body simulating whatever dynamic behavior the test wants
// to exercise while the module is on the stack.
type Module struct {
	ID      ModuleID
	File    string
	Imports []ModuleID
	Run     func(h *ReferenceHost) error
	Fail    error
}

// ReferenceHost is a toy in-process module loader implementing Host. It
// exists only to drive Tracker end to end in this package's own tests —
// a real integration wires an actual language's loader through Host
// instead, since Host's hooks are vacuous without one.
type ReferenceHost struct {
	Tracker *Tracker

	modules map[ModuleID]*Module
	stack   []Frame // outermost first; Stack() reverses this

	entryPoints map[string]bool
	internal    map[string]bool
}

// NewReferenceHost constructs an empty ReferenceHost. dynamicEntryPoints
// names the functions treated as __import__/importlib.import_module
// equivalents, i.e. what IsDynamicEntryPoint reports true for.
func NewReferenceHost(dynamicEntryPoints ...string) *ReferenceHost {
	h := &ReferenceHost{
		modules:     make(map[ModuleID]*Module),
		entryPoints: make(map[string]bool),
		internal:    make(map[string]bool),
	}
	for _, name := range dynamicEntryPoints {
		h.entryPoints[name] = true
	}
	return h
}

// Register adds m to the set of modules Load/ImportByName can resolve.
func (h *ReferenceHost) Register(m *Module) {
	h.modules[m.ID] = m
}

// MarkInternal names a function as belonging to the tracker or host
// plumbing itself, skipped during dynamic-import stack walks.
func (h *ReferenceHost) MarkInternal(function string) {
	h.internal[function] = true
}

// Stack implements Host: innermost frame first.
func (h *ReferenceHost) Stack() []Frame {
	out := make([]Frame, len(h.stack))
	for i, f := range h.stack {
		out[len(h.stack)-1-i] = f
	}
	return out
}

// IsDynamicEntryPoint implements Host.
func (h *ReferenceHost) IsDynamicEntryPoint(f Frame) bool {
	return h.entryPoints[f.Function]
}

// IsInternal implements Host.
func (h *ReferenceHost) IsInternal(f Frame) bool {
	return h.internal[f.Function]
}

// IsSubmodule implements Host: base+"."+name must be a registered module.
func (h *ReferenceHost) IsSubmodule(base ModuleID, name string) bool {
	_, ok := h.modules[ModuleID(string(base)+"."+name)]
	return ok
}

// Load simulates importing name: it pushes name's module-body frame,
// recurses into its static imports, runs its Run body if any, then pops
// the frame. Every load is routed through Tracker.OnFindAndLoad so
// cycles, failures, and dynamic classification all exercise the real
// state machine.
func (h *ReferenceHost) Load(name ModuleID) error {
	return h.Tracker.OnFindAndLoad(name, func() (string, error) {
		return h.execute(name)
	})
}

func (h *ReferenceHost) execute(name ModuleID) (string, error) {
	m, ok := h.modules[name]
	if !ok {
		return "", fmt.Errorf("reference host: no such module %q", name)
	}

	h.stack = append(h.stack, Frame{Module: name, Function: moduleEntryPoint, File: m.File})
	defer func() { h.stack = h.stack[:len(h.stack)-1] }()

	if m.Fail != nil {
		return "", m.Fail
	}

	for _, dep := range m.Imports {
		if err := h.Load(dep); err != nil {
			return "", err
		}
	}

	if m.Run != nil {
		if err := m.Run(h); err != nil {
			return "", err
		}
	}

	return m.File, nil
}

// ImportByName simulates a caller reaching into anchorModule's
// function-call interface to load target by string — e.g.
// by_caller.import_by_name("target1"). The pushed frame's Module is the
// function's own owning module (anchorModule), matching how
// dynamic_anchors names (module, function) pairs by where the dynamic
// entry point is *defined*, not who calls it.
func (h *ReferenceHost) ImportByName(anchorModule ModuleID, function string, target ModuleID) error {
	h.stack = append(h.stack, Frame{Module: anchorModule, Function: function})
	defer func() { h.stack = h.stack[:len(h.stack)-1] }()
	return h.Load(target)
}
