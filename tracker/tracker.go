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

import "strings"

// closureHandle is the shared, interior-mutable set every cycle
// participant's tracked entry points to — the load-time analogue of
// graph's closureSet, built incrementally instead of via a single
// build-time SCC pass.
type closureHandle struct {
	set map[ModuleID]bool
}

func newClosureHandle() *closureHandle {
	return &closureHandle{set: make(map[ModuleID]bool)}
}

func (h *closureHandle) add(id ModuleID) { h.set[id] = true }

func (h *closureHandle) union(other map[ModuleID]bool) {
	for id := range other {
		h.set[id] = true
	}
}

func (h *closureHandle) snapshot() map[ModuleID]bool {
	out := make(map[ModuleID]bool, len(h.set))
	for id := range h.set {
		out[id] = true
	}
	return out
}

type trackedEntry struct {
	closure *closureHandle
	file    string
}

// Tracker is a runtime import tracker. It is inherently
// single-threaded: it instruments a global resource, the host's import
// system, and piggy-backs on its lock. All state updates happen on the
// thread performing the import.
type Tracker struct {
	host   Host
	config Config
	logger Logger

	tracked map[ModuleID]*trackedEntry
	stack   []ModuleID       // names currently loading, outermost first
	onStack map[ModuleID]int // name -> its index in stack

	fileToModule map[string]ModuleID

	dynamicImports map[ModuleID]map[ModuleID]bool // anchor id -> loaded ids
	dynamicUsers   map[ModuleID]map[ModuleID]bool // module id -> anchors it used

	pendingExplicit map[ModuleID]bool

	contextStack []string
}

// New constructs a Tracker bound to host, configured by config.
func New(host Host, config Config, logger Logger) *Tracker {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Tracker{
		host:            host,
		config:          config,
		logger:          logger,
		tracked:         make(map[ModuleID]*trackedEntry),
		onStack:         make(map[ModuleID]int),
		fileToModule:    make(map[string]ModuleID),
		dynamicImports:  make(map[ModuleID]map[ModuleID]bool),
		dynamicUsers:    make(map[ModuleID]map[ModuleID]bool),
		pendingExplicit: make(map[ModuleID]bool),
	}
}

func (t *Tracker) withinPrefixes(name ModuleID) bool {
	if len(t.config.Prefixes) == 0 {
		return true
	}
	for _, p := range t.config.Prefixes {
		if string(name) == p || strings.HasPrefix(string(name), p+".") {
			return true
		}
	}
	return false
}

// OnFindAndLoad is the primary hook point: invoked before the host
// resolves name to a file and executes it, including
// for implicit parent-package loads. loadFn performs the actual load
// and reports the backing file once known; an empty file is valid
// (e.g. a built-in module with no backing source).
func (t *Tracker) OnFindAndLoad(name ModuleID, loadFn func() (file string, err error)) error {
	if !t.withinPrefixes(name) {
		_, err := loadFn()
		return err
	}

	t.classifyDynamic(name)

	if _, tracked := t.tracked[name]; tracked {
		if _, onStack := t.onStack[name]; onStack {
			t.consolidateCycle(name) // (B) already-tracked-in-cycle
		}
		// (A) already-tracked-no-cycle falls straight through to the
		// same propagation (B) just performed, since consolidation is a
		// no-op union when there is no cycle.
		t.propagateToParent(name)
		return nil
	}

	// (C) fresh
	entry := &trackedEntry{closure: newClosureHandle()}
	entry.closure.add(name)
	t.tracked[name] = entry
	t.onStack[name] = len(t.stack)
	t.stack = append(t.stack, name)

	file, err := loadFn()
	if err != nil {
		t.rollbackFailed(name)
		return err
	}

	t.stack = t.stack[:len(t.stack)-1]
	delete(t.onStack, name)

	if file != "" {
		entry.file = file
		t.fileToModule[file] = name
	}
	t.propagateToParent(name)
	t.applyPatches(name, file)
	return nil
}

// consolidateCycle handles the case where name is already on the
// current stack: every participant from name's first occurrence down
// to the top of the stack is folded onto one shared closureHandle —
// name's own handle, mutated in place, preserving the
// object-identical cycle-consolidation invariant.
func (t *Tracker) consolidateCycle(name ModuleID) {
	start := t.onStack[name]
	shared := t.tracked[name].closure
	for i := start; i < len(t.stack); i++ {
		member := t.stack[i]
		entry := t.tracked[member]
		if entry.closure == shared {
			continue
		}
		shared.union(entry.closure.snapshot())
		entry.closure = shared
	}
}

// propagateToParent unions name's closure and dynamic-anchor usage into
// whatever module is currently loading it (the new top of t.stack).
func (t *Tracker) propagateToParent(name ModuleID) {
	if len(t.stack) == 0 {
		return
	}
	parent := t.stack[len(t.stack)-1]
	parentEntry, ok := t.tracked[parent]
	if !ok {
		return
	}
	if entry, ok := t.tracked[name]; ok {
		parentEntry.closure.union(entry.closure.snapshot())
	}
	if users, ok := t.dynamicUsers[name]; ok && len(users) > 0 {
		if t.dynamicUsers[parent] == nil {
			t.dynamicUsers[parent] = make(map[ModuleID]bool)
		}
		for a := range users {
			t.dynamicUsers[parent][a] = true
		}
	}
}

// rollbackFailed implements the failed-load cleanup: pop name off the
// stack and discard its tracked entry, unless an enclosing cycle
// participant still shares its closure handle.
func (t *Tracker) rollbackFailed(name ModuleID) {
	if len(t.stack) > 0 && t.stack[len(t.stack)-1] == name {
		t.stack = t.stack[:len(t.stack)-1]
	}
	delete(t.onStack, name)

	entry, ok := t.tracked[name]
	if !ok {
		return
	}
	for _, other := range t.stack {
		if otherEntry := t.tracked[other]; otherEntry != nil && otherEntry.closure == entry.closure {
			return
		}
	}
	delete(t.tracked, name)
}

func (t *Tracker) applyPatches(name ModuleID, loaded any) {
	for _, patch := range t.config.Patches[name] {
		patch(loaded)
	}
}

// OnFromImportBinding is invoked when a bare "from X import Y" would
// otherwise skip OnFindAndLoad on repeat use (X already loaded); it
// lets the tracker record that Y is a submodule of X when it is.
func (t *Tracker) OnFromImportBinding(module ModuleID, names []string) {
	if !t.withinPrefixes(module) {
		return
	}
	parent, ok := t.tracked[module]
	if !ok {
		return
	}
	for _, name := range names {
		if !t.host.IsSubmodule(module, name) {
			continue
		}
		sub := ModuleID(string(module) + "." + name)
		parent.closure.add(sub)
		if subEntry, ok := t.tracked[sub]; ok {
			parent.closure.union(subEntry.closure.snapshot())
		}
	}
}

// WithDynamic returns tracked[m] unioned with every id loaded through
// an anchor that m (transitively, via propagateToParent) used.
func (t *Tracker) WithDynamic(m ModuleID) map[ModuleID]bool {
	out := make(map[ModuleID]bool)
	if entry, ok := t.tracked[m]; ok {
		for id := range entry.closure.snapshot() {
			out[id] = true
		}
	}
	for anchor := range t.dynamicUsers[m] {
		for id := range t.dynamicImports[anchor] {
			out[id] = true
		}
	}
	return out
}

// Tracked returns the recorded closure for a module, or (nil, false) if
// it was never loaded (or was rolled back after a failure).
func (t *Tracker) Tracked(m ModuleID) (map[ModuleID]bool, bool) {
	entry, ok := t.tracked[m]
	if !ok {
		return nil, false
	}
	return entry.closure.snapshot(), true
}

// TrackedIDs returns every module id the Tracker currently has a
// recorded entry for, in no particular order.
func (t *Tracker) TrackedIDs() []ModuleID {
	out := make([]ModuleID, 0, len(t.tracked))
	for id := range t.tracked {
		out = append(out, id)
	}
	return out
}
