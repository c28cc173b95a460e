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

import ts "github.com/tree-sitter/go-tree-sitter"

// namespaceCallees are the conventional namespace-package extension
// calls: "from pkgutil import extend_path; __path__ = extend_path(...)"
// and "__import__('pkg_resources').declare_namespace(__name__)".
var namespaceCallees = map[string]bool{
	"extend_path":       true,
	"declare_namespace": true,
}

// IsNamespaceMarker reports whether an __init__ file's only executable
// content is the standard namespace-extension stanza. A docstring and
// import statements feeding the stanza don't disqualify it; anything
// else — a function def, a class, an unrelated assignment — does.
func IsNamespaceMarker(content []byte) bool {
	if len(content) == 0 {
		// No __init__ at all also behaves as a transparent namespace
		// package under PEP 420-style implicit namespace packages.
		return true
	}

	p := getParser()
	defer putParser(p)

	tree := p.Parse(content, nil)
	if tree == nil {
		return false
	}
	defer tree.Close()

	sawStanza := false
	root := tree.RootNode()
	for i := uint(0); i < root.ChildCount(); i++ {
		stmt := root.Child(i)
		if stmt == nil {
			continue
		}
		if !isNamespaceStanzaStatement(stmt, content) {
			return false
		}
		if stmt.Kind() == "expression_statement" && containsNamespaceCall(stmt, content) {
			sawStanza = true
		}
	}
	return sawStanza
}

func isNamespaceStanzaStatement(node *ts.Node, content []byte) bool {
	switch node.Kind() {
	case "comment":
		return true
	case "expression_statement":
		if isDocstring(node) {
			return true
		}
		return containsNamespaceCall(node, content)
	case "import_statement", "import_from_statement", "future_import_statement":
		return true
	default:
		return false
	}
}

func isDocstring(node *ts.Node) bool {
	if node.ChildCount() != 1 {
		return false
	}
	return node.Child(0).Kind() == "string"
}

// containsNamespaceCall walks the subtree looking for a call to one of
// namespaceCallees, covering both "extend_path(...)" and
// "__import__(...).declare_namespace(...)" shapes.
func containsNamespaceCall(node *ts.Node, content []byte) bool {
	if node.Kind() == "call" {
		fn := node.ChildByFieldName("function")
		if fn != nil {
			name := fn.Utf8Text(content)
			if i := lastDot(name); i >= 0 {
				name = name[i+1:]
			}
			if namespaceCallees[name] {
				return true
			}
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if containsNamespaceCall(node.Child(i), content) {
			return true
		}
	}
	return false
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}
