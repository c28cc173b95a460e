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

// EnterContext pushes a synthetic frame so imports executed by a
// caller (a test runner loading a test file, say) are attributed to
// name as if name itself were the currently-loading module.
func (t *Tracker) EnterContext(name string) {
	t.contextStack = append(t.contextStack, name)
	id := ModuleID(name)
	if _, ok := t.tracked[id]; !ok {
		t.tracked[id] = &trackedEntry{closure: newClosureHandle()}
	}
	t.stack = append(t.stack, id)
}

// ExitContext pops the synthetic frame pushed by EnterContext. It fails
// with ErrContextMismatch if name does not match the top of the context
// stack, leaving both stacks untouched.
func (t *Tracker) ExitContext(name string) error {
	if len(t.contextStack) == 0 || t.contextStack[len(t.contextStack)-1] != name {
		var top string
		if len(t.contextStack) > 0 {
			top = t.contextStack[len(t.contextStack)-1]
		}
		return fmt.Errorf("%w: exit_context(%q) but top is %q", ErrContextMismatch, name, top)
	}
	t.contextStack = t.contextStack[:len(t.contextStack)-1]
	if len(t.stack) > 0 && t.stack[len(t.stack)-1] == ModuleID(name) {
		t.stack = t.stack[:len(t.stack)-1]
	}
	return nil
}

// RunInContext is the "optional_import_callback" form of
// enter_context: it enters name, runs fn, and exits name regardless of
// fn's outcome.
func (t *Tracker) RunInContext(name string, fn func() error) error {
	t.EnterContext(name)
	err := fn()
	if exitErr := t.ExitContext(name); exitErr != nil && err == nil {
		err = exitErr
	}
	return err
}
