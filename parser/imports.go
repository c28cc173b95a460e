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
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// typecheckingGuard gates typechecking-only imports: "if TYPE_CHECKING:".
const typecheckingGuard = "TYPE_CHECKING"

// ExtractImports parses Python-like source and returns every import
// reference it contains. It never returns an error for malformed source;
// a parse failure yields a nil slice so the caller can record the file as
// contributing no imports rather than aborting the whole build.
func ExtractImports(content []byte) []ImportRef {
	qm, err := GetQueryManager()
	if err != nil {
		return nil
	}

	p := getParser()
	defer putParser(p)

	tree := p.Parse(content, nil)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	var refs []ImportRef
	refs = append(refs, extractStatements(qm, tree.RootNode(), content)...)
	refs = append(refs, extractDynamic(qm, tree.RootNode(), content)...)
	return refs
}

func extractStatements(qm *QueryManager, root *ts.Node, content []byte) []ImportRef {
	query, err := qm.Query("imports")
	if err != nil {
		return nil
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	var refs []ImportRef
	names := query.CaptureNames()
	matches := cursor.Matches(query, root, content)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, capture := range match.Captures {
			switch names[capture.Index] {
			case "stmt.import":
				refs = append(refs, parseImportStatement(&capture.Node, content)...)
			case "stmt.from":
				if ref, ok := parseFromStatement(&capture.Node, content); ok {
					refs = append(refs, ref)
				}
			}
		}
	}
	return refs
}

// parseImportStatement handles "import a.b, c.d as e" — each dotted name
// (aliased or not) becomes its own absolute ImportRef.
func parseImportStatement(node *ts.Node, content []byte) []ImportRef {
	line := int(node.StartPosition().Row) + 1
	typechecking := isTypecheckingGuarded(node, content)

	var refs []ImportRef
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			refs = append(refs, ImportRef{
				Target:           ModuleID(child.Utf8Text(content)),
				Kind:             Absolute,
				Line:             line,
				TypecheckingOnly: typechecking,
			})
		case "aliased_import":
			if name := firstChildOfKind(child, "dotted_name"); name != nil {
				refs = append(refs, ImportRef{
					Target:           ModuleID(name.Utf8Text(content)),
					Kind:             Absolute,
					Line:             line,
					TypecheckingOnly: typechecking,
				})
			}
		}
	}
	return refs
}

// parseFromStatement handles "from pkg.sub import a, b as c" and
// "from . import x" / "from ..pkg import x".
func parseFromStatement(node *ts.Node, content []byte) (ImportRef, bool) {
	line := int(node.StartPosition().Row) + 1
	typechecking := isTypecheckingGuarded(node, content)

	var module string
	var level int
	kind := Absolute
	var names []string
	moduleSeen := false

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			if !moduleSeen {
				module = child.Utf8Text(content)
				moduleSeen = true
			} else {
				names = append(names, child.Utf8Text(content))
			}
		case "relative_import":
			kind = Relative
			moduleSeen = true
			prefix, mod := parseRelativeImport(child, content)
			level = prefix
			module = mod
		case "wildcard_import":
			names = append(names, "*")
		case "aliased_import":
			if name := firstChildOfKind(child, "dotted_name"); name != nil {
				names = append(names, name.Utf8Text(content))
			}
		}
	}

	if !moduleSeen {
		return ImportRef{}, false
	}

	refKind := kind
	if refKind == Absolute && len(names) > 0 {
		refKind = FromImport
	}

	return ImportRef{
		Target:           ModuleID(module),
		Kind:             refKind,
		Level:            level,
		FromNames:        names,
		Line:             line,
		TypecheckingOnly: typechecking,
	}, true
}

func parseRelativeImport(node *ts.Node, content []byte) (level int, module string) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "import_prefix":
			level = len(child.Utf8Text(content))
		case "dotted_name":
			module = child.Utf8Text(content)
		}
	}
	return level, module
}

func firstChildOfKind(node *ts.Node, kind string) *ts.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// isTypecheckingGuarded walks a statement's ancestors looking for an
// "if TYPE_CHECKING:" (or "if typing.TYPE_CHECKING:") consequence block
// containing it.
func isTypecheckingGuarded(node *ts.Node, content []byte) bool {
	for ancestor := node.Parent(); ancestor != nil; ancestor = ancestor.Parent() {
		if ancestor.Kind() != "if_statement" {
			continue
		}
		cond := ancestor.ChildByFieldName("condition")
		if cond == nil {
			continue
		}
		text := cond.Utf8Text(content)
		if text != typecheckingGuard && !strings.HasSuffix(text, "."+typecheckingGuard) {
			continue
		}
		body := ancestor.ChildByFieldName("consequence")
		if body != nil && body.StartByte() <= node.StartByte() && node.EndByte() <= body.EndByte() {
			return true
		}
	}
	return false
}

func extractDynamic(qm *QueryManager, root *ts.Node, content []byte) []ImportRef {
	query, err := qm.Query("dynamic")
	if err != nil {
		return nil
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	var refs []ImportRef
	names := query.CaptureNames()
	matches := cursor.Matches(query, root, content)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		var call *ts.Node
		var spec string
		for _, capture := range match.Captures {
			switch names[capture.Index] {
			case "dynamic.call":
				call = &capture.Node
			case "dynamic.spec":
				spec = stripQuotes(capture.Node.Utf8Text(content))
			}
		}
		if call == nil || spec == "" {
			continue
		}
		refs = append(refs, ImportRef{
			Target:           ModuleID(spec),
			Kind:             Absolute,
			Dynamic:          true,
			Line:             int(call.StartPosition().Row) + 1,
			TypecheckingOnly: isTypecheckingGuarded(call, content),
		})
	}
	return refs
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
