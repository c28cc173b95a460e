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

// OnExplicitImportCall is invoked from the host's public
// import-by-string callable (Python's __import__/importlib.import_module
// equivalent) before it resolves name through OnFindAndLoad. It lets a
// host that already knows it is servicing a dynamic call short-circuit
// IsDynamicEntryPoint's stack inspection for this one load.
func (t *Tracker) OnExplicitImportCall(name ModuleID) {
	t.pendingExplicit[name] = true
}

// classifyDynamic decides whether a load is happening under a
// recognized dynamic entry point, and if so, which tracked module to
// attribute it to: walk the stack from the outermost frame inward
// looking for an ignore match, then an anchor match, else fall back to
// the last tracked-prefix frame encountered as an implicit anchor.
//
// An anchor match stops the walk where it is found, so the frame it
// names (a shared helper like "by_caller.import_by_name", called by
// many distinct modules) never itself becomes the attribution: the
// attribution is whichever tracked-prefix caller was last seen *before*
// the walk reached the anchor, i.e. whoever is actually calling through
// it this time. Without a configured anchor the walk runs all the way
// to the innermost frame, so a shared helper's own frame is the last
// one seen and every caller collapses onto the same (wrong) attribution
// — this is why dynamic_anchors exists.
func (t *Tracker) classifyDynamic(name ModuleID) {
	explicit := t.pendingExplicit[name]
	delete(t.pendingExplicit, name)

	stack := t.host.Stack()

	dynamic := explicit
	if !dynamic {
		for _, f := range stack {
			if t.host.IsDynamicEntryPoint(f) {
				dynamic = true
				break
			}
		}
	}
	if !dynamic {
		return
	}

	var lastTracked *Frame

	for i := len(stack) - 1; i >= 0; i-- {
		f := stack[i]
		if t.host.IsInternal(f) {
			continue
		}
		key := AnchorKey{Module: f.Module, Function: f.Function}
		if t.config.DynamicIgnores[key] {
			return // explicit ignore: treated as static, no attribution
		}
		if t.config.DynamicAnchors[key] {
			break // stop here; attribute to whatever caller we already saw
		}
		if t.withinPrefixes(f.Module) {
			fc := f
			lastTracked = &fc
		}
	}

	if lastTracked == nil {
		return
	}

	t.recordDynamicUse(lastTracked.Module, name)
}

// recordDynamicUse records that loading "loaded" was attributed to
// anchor, and that the current parent (if any) is a user of anchor.
func (t *Tracker) recordDynamicUse(anchor, loaded ModuleID) {
	if t.dynamicImports[anchor] == nil {
		t.dynamicImports[anchor] = make(map[ModuleID]bool)
	}
	t.dynamicImports[anchor][loaded] = true

	if len(t.stack) == 0 {
		return
	}
	parent := t.stack[len(t.stack)-1]
	if t.dynamicUsers[parent] == nil {
		t.dynamicUsers[parent] = make(map[ModuleID]bool)
	}
	t.dynamicUsers[parent][anchor] = true
}
