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

	"prunegraph.dev/prune/fs"
)

// ParseFile computes the module id for path and extracts its import
// references. Malformed or unreadable source does not fail the call: the
// returned FileResult simply has no imports, indistinguishable from a file
// that imports nothing, and the graph does not list it in Unresolved().
// ok is false only when path is not a .py/.pyi file under any source root
// (the caller shouldn't have offered it).
func ParseFile(osfs fs.FileSystem, filePath string, roots SourceRoots) (FileResult, bool) {
	id, kind, ok := ModuleIDForPath(filePath, roots)
	if !ok {
		return FileResult{}, false
	}

	content, err := osfs.ReadFile(filePath)
	if err != nil {
		return FileResult{ID: id, Path: filePath, Kind: kind}, true
	}

	if isInitFile(filePath) && IsNamespaceMarker(content) {
		return FileResult{ID: id, Path: filePath, Kind: kind, Namespace: true}, true
	}

	return FileResult{
		ID:      id,
		Path:    filePath,
		Kind:    kind,
		Imports: ExtractImports(content),
	}, true
}

func isInitFile(p string) bool {
	base := path.Base(p)
	return strings.TrimSuffix(strings.TrimSuffix(base, interfaceSuffix), implSuffix) == initBase
}
