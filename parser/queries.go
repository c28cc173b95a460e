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
	"embed"
	"fmt"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	tsPython "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

//go:embed queries/*/*.scm
var queryFiles embed.FS

var language = ts.NewLanguage(tsPython.Language())

var parserPool = sync.Pool{
	New: func() any {
		p := ts.NewParser()
		if err := p.SetLanguage(language); err != nil {
			panic("failed to set python language: " + err.Error())
		}
		return p
	},
}

func getParser() *ts.Parser {
	return parserPool.Get().(*ts.Parser)
}

func putParser(p *ts.Parser) {
	p.Reset()
	parserPool.Put(p)
}

// QueryManager holds the compiled tree-sitter queries this package uses.
// It mirrors the pooled-parser-plus-embedded-query-set pattern: queries
// are compiled once and shared across every ParseFile call.
type QueryManager struct {
	mu      sync.Mutex
	closed  bool
	queries map[string]*ts.Query
}

// NewQueryManager compiles the named queries under queries/python/*.scm.
func NewQueryManager(names ...string) (*QueryManager, error) {
	qm := &QueryManager{queries: make(map[string]*ts.Query)}
	for _, name := range names {
		if err := qm.load(name); err != nil {
			qm.Close()
			return nil, err
		}
	}
	return qm, nil
}

func (qm *QueryManager) load(name string) error {
	queryPath := "queries/python/" + name + ".scm"
	data, err := queryFiles.ReadFile(queryPath)
	if err != nil {
		return fmt.Errorf("reading query %s: %w", queryPath, err)
	}
	q, err := ts.NewQuery(language, string(data))
	if err != nil {
		return fmt.Errorf("compiling query %s: %w", name, err)
	}
	qm.queries[name] = q
	return nil
}

// Query returns a previously compiled query by name.
func (qm *QueryManager) Query(name string) (*ts.Query, error) {
	q, ok := qm.queries[name]
	if !ok {
		return nil, fmt.Errorf("query not found: %s", name)
	}
	return q, nil
}

// Close releases all query resources. Safe to call multiple times.
func (qm *QueryManager) Close() {
	qm.mu.Lock()
	if qm.closed {
		qm.mu.Unlock()
		return
	}
	qm.closed = true
	queries := qm.queries
	qm.queries = nil
	qm.mu.Unlock()

	for _, q := range queries {
		q.Close()
	}
}

var (
	globalQM     *QueryManager
	globalQMOnce sync.Once
	globalQMErr  error
)

// GetQueryManager returns the package-wide query manager, compiling it on
// first use.
func GetQueryManager() (*QueryManager, error) {
	globalQMOnce.Do(func() {
		globalQM, globalQMErr = NewQueryManager("imports", "dynamic")
	})
	return globalQM, globalQMErr
}
