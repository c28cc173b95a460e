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

// Package hookconfig loads a graph.Hook (and validate.SelectorHook) from a
// plain JSON file, the CLI's stand-in for a project build system's
// in-process Hook collaborator.
package hookconfig

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"prunegraph.dev/prune/fs"
	"prunegraph.dev/prune/graph"
)

// Config is the on-disk shape of a project's Hook configuration.
type Config struct {
	GlobalNamespaces []string            `json:"global_namespaces"`
	LocalNamespaces  []string            `json:"local_namespaces"`
	SourceRoots      map[string]string   `json:"source_roots"`
	ExternalImports  []string            `json:"external_imports"`
	DynamicDeps      map[string][]string `json:"dynamic_dependencies"`
	DynamicAtLeaves  []LeafOverlayConfig `json:"dynamic_dependencies_at_leaves"`
	IncludeTypeCheck bool                `json:"include_typechecking"`
	TestFolders      map[string]string   `json:"test_folders"`
	AlwaysRun        []string            `json:"always_run"`
	IrrelevantGlobs  []string            `json:"irrelevant_globs"`
}

// LeafOverlayConfig mirrors graph.LeafOverlay in plain JSON.
type LeafOverlayConfig struct {
	ID     string              `json:"id"`
	Scopes map[string][]string `json:"scopes"`
}

// Load reads and parses a Config from path.
func Load(osfs fs.FileSystem, path string) (*Config, error) {
	data, err := osfs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hook config %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing hook config %s: %w", path, err)
	}
	return &cfg, nil
}

// Hook adapts Config into a graph.Hook.
func (c *Config) Hook() graph.Hook {
	dynamic := make(map[graph.ModuleID][]graph.ModuleID, len(c.DynamicDeps))
	for id, deps := range c.DynamicDeps {
		out := make([]graph.ModuleID, len(deps))
		for i, d := range deps {
			out[i] = graph.ModuleID(d)
		}
		dynamic[graph.ModuleID(id)] = out
	}

	atLeaves := make([]graph.LeafOverlay, len(c.DynamicAtLeaves))
	for i, overlay := range c.DynamicAtLeaves {
		scopes := make(map[string][]graph.ModuleID, len(overlay.Scopes))
		for scope, ids := range overlay.Scopes {
			out := make([]graph.ModuleID, len(ids))
			for j, id := range ids {
				out[j] = graph.ModuleID(id)
			}
			scopes[scope] = out
		}
		atLeaves[i] = graph.LeafOverlay{ID: graph.ModuleID(overlay.ID), Scopes: scopes}
	}

	return &graph.StaticHook{
		Global:          c.GlobalNamespaces,
		Local:           c.LocalNamespaces,
		Roots:           c.SourceRoots,
		External:        c.ExternalImports,
		Dynamic:         dynamic,
		DynamicAtLeaves: atLeaves,
		Typechecking:    c.IncludeTypeCheck,
	}
}

// AlwaysRunSet returns Config.AlwaysRun as a lookup set.
func (c *Config) AlwaysRunSet() map[string]bool {
	out := make(map[string]bool, len(c.AlwaysRun))
	for _, v := range c.AlwaysRun {
		out[v] = true
	}
	return out
}

// selectorHook adapts Config into a validate.SelectorHook: the CLI's
// configuration-file stand-in for the project-specific knowledge a
// real integration would supply in-process.
type selectorHook struct {
	cfg *Config
}

// SelectorHook returns the validate.SelectorHook view of c.
func (c *Config) SelectorHook() *selectorHook {
	return &selectorHook{cfg: c}
}

func (h *selectorHook) TestFolders() map[string]string { return h.cfg.TestFolders }

func (h *selectorHook) AlwaysRun() map[string]bool { return h.cfg.AlwaysRunSet() }

// FilterIrrelevantFiles drops any path matching one of IrrelevantGlobs
// (doublestar patterns), e.g. "**/*.md" or "**/poetry.lock".
func (h *selectorHook) FilterIrrelevantFiles(paths map[string]bool) map[string]bool {
	out := make(map[string]bool, len(paths))
	for path := range paths {
		irrelevant := false
		for _, pattern := range h.cfg.IrrelevantGlobs {
			if ok, _ := doublestar.Match(pattern, path); ok {
				irrelevant = true
				break
			}
		}
		if !irrelevant {
			out[path] = true
		}
	}
	return out
}

// IsTestFile reports whether name follows the common pytest file-naming
// convention: a "test_" prefix or "_test" suffix on the base name.
func (h *selectorHook) IsTestFile(name string) bool {
	base := name
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		base = name[i+1:]
	}
	base = strings.TrimSuffix(base, ".py")
	return strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test")
}
