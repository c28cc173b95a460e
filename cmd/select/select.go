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

// Package selectcmd provides the select command for prune: the
// test-selection collaborator, run as a standalone CLI step rather
// than wired into any specific test runner's plugin API.
package selectcmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prunegraph.dev/prune/fs"
	"prunegraph.dev/prune/graph"
	"prunegraph.dev/prune/internal/hookconfig"
	"prunegraph.dev/prune/internal/output"
	"prunegraph.dev/prune/validate"
)

// Cmd is the select cobra command.
var Cmd = &cobra.Command{
	Use:   "select",
	Short: "Deselect tests unaffected by a set of modified files",
	Long: `Select reads a JSON list of collected test items (the shape a
VCS/test-runner integration would produce: file_path, optional data_path,
and name) plus a newline-delimited list of modified files, and reports
which items are safe to deselect per the four-condition rule.

If a modified file can't be accounted for by the graph, a referenced data
file, or always_run, pruning is disabled entirely and a warning is
surfaced instead of a (possibly unsafe) deselection list.`,
	Example: `  prune select --graph graph.gob --hook prune.json \
    --items collected.json --modified-file changed.txt`,
	RunE: run,
}

func init() {
	Cmd.Flags().String("graph", "", "Path to a graph snapshot written by \"prune build\" (required)")
	Cmd.Flags().String("hook", "", "Path to the hook configuration JSON file (required)")
	Cmd.Flags().String("items", "", "Path to a JSON file listing collected test items (required)")
	Cmd.Flags().String("modified-file", "", "Path to a newline-delimited list of modified files (required)")
	_ = Cmd.MarkFlagRequired("graph")
	_ = Cmd.MarkFlagRequired("hook")
	_ = Cmd.MarkFlagRequired("items")
	_ = Cmd.MarkFlagRequired("modified-file")
}

type collectedItem struct {
	FilePath string `json:"file_path"`
	DataPath string `json:"data_path,omitempty"`
	Name     string `json:"name"`
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()

	graphPath, _ := cmd.Flags().GetString("graph")
	hookPath, _ := cmd.Flags().GetString("hook")
	itemsPath, _ := cmd.Flags().GetString("items")
	modifiedPath, _ := cmd.Flags().GetString("modified-file")

	g, err := graph.FromFile(osfs, graphPath)
	if err != nil {
		return fmt.Errorf("loading graph snapshot: %w", err)
	}

	cfg, err := hookconfig.Load(osfs, hookPath)
	if err != nil {
		return err
	}

	rawItems, err := osfs.ReadFile(itemsPath)
	if err != nil {
		return fmt.Errorf("reading collected items %s: %w", itemsPath, err)
	}
	var collected []collectedItem
	if err := json.Unmarshal(rawItems, &collected); err != nil {
		return fmt.Errorf("parsing collected items %s: %w", itemsPath, err)
	}
	items := make([]validate.TestItem, len(collected))
	for i, c := range collected {
		items[i] = validate.TestItem{FilePath: c.FilePath, DataPath: c.DataPath, Name: c.Name}
	}

	rawModified, err := osfs.ReadFile(modifiedPath)
	if err != nil {
		return fmt.Errorf("reading modified file list %s: %w", modifiedPath, err)
	}
	var modified []string
	for _, line := range strings.Split(string(rawModified), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			modified = append(modified, line)
		}
	}

	result := validate.SelectTests(g, cfg.SelectorHook(), modified, items)

	if result.PruningDisabled {
		output.Warnf("%s", result.Warning)
	}

	return output.JSON(osfs, result)
}
