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

package parser

import (
	"path"
	"strings"
)

// implSuffix / interfaceSuffix mirror the .py/.pyi split of a real Python
// toolchain without hardcoding it as "Python" anywhere in identifiers.
const (
	implSuffix      = ".py"
	interfaceSuffix = ".pyi"
	initBase        = "__init__"
)

// SplitFileKind reports whether path names an implementation or interface
// file, and the path with its suffix stripped.
func SplitFileKind(p string) (base string, kind FileKind, ok bool) {
	switch {
	case strings.HasSuffix(p, interfaceSuffix):
		return strings.TrimSuffix(p, interfaceSuffix), Interface, true
	case strings.HasSuffix(p, implSuffix):
		return strings.TrimSuffix(p, implSuffix), Implementation, true
	default:
		return "", 0, false
	}
}

// FindSourceRoot returns the longest root path in roots that is a prefix
// of p (path-separator aware), along with its module prefix.
func FindSourceRoot(p string, roots SourceRoots) (root, prefix string, ok bool) {
	best, bestKey := "", ""
	for r := range roots {
		clean := strings.TrimSuffix(r, "/")
		if clean == "" {
			continue
		}
		if p == clean || strings.HasPrefix(p, clean+"/") {
			if len(clean) > len(best) {
				best, bestKey = clean, r
			}
		}
	}
	if best == "" {
		return "", "", false
	}
	return best, roots[bestKey], true
}

// ModuleIDForPath computes the dotted module id for a source file given
// the set of source roots. The id is purely path-derived: every directory
// between the root and the file contributes one dotted component, and
// namespace-package chains are not skipped or otherwise adjusted for.
func ModuleIDForPath(p string, roots SourceRoots) (id ModuleID, kind FileKind, ok bool) {
	base, k, isSource := SplitFileKind(p)
	if !isSource {
		return "", 0, false
	}

	root, prefix, found := FindSourceRoot(base, roots)
	if !found {
		return "", 0, false
	}

	rel := strings.TrimPrefix(base, root)
	rel = strings.TrimPrefix(rel, "/")

	var components []string
	if rel != "" {
		components = strings.Split(rel, "/")
	}
	if n := len(components); n > 0 && components[n-1] == initBase {
		components = components[:n-1]
	}

	dotted := strings.Join(components, ".")

	switch {
	case prefix == "" && dotted == "":
		return "", 0, false
	case prefix == "":
		return ModuleID(dotted), k, true
	case dotted == "":
		return ModuleID(prefix), k, true
	default:
		return ModuleID(prefix + "." + dotted), k, true
	}
}

// initFileCandidates returns the implementation and interface __init__
// paths for a directory, in priority order (interface first).
func initFileCandidates(dir string) []string {
	return []string{
		path.Join(dir, initBase+interfaceSuffix),
		path.Join(dir, initBase+implSuffix),
	}
}
