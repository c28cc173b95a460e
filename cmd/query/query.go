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

// Package query provides the query command for prune.
package query

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"prunegraph.dev/prune/fs"
	"prunegraph.dev/prune/graph"
	"prunegraph.dev/prune/internal/output"
)

// Cmd is the query cobra command: loads a previously built graph
// snapshot and answers depends_on / affected_by queries against it.
var Cmd = &cobra.Command{
	Use:   "query [id-or-path...]",
	Short: "Query a module dependency graph snapshot",
	Long: `Query loads a graph snapshot written by "prune build" and answers
one of two queries against it:

  --depends-on   the direct dependencies recorded for each given module
                 (not expanded transitively)
  --affected-by  every module transitively affected by the given modules

Arguments are module ids by default, or file paths with --files.`,
	Example: `  # What does app.core directly depend on?
  prune query --depends-on app.core --graph graph.gob

  # What tests are affected by changes to these files?
  prune query --affected-by --files app/core.py --graph graph.gob`,
	RunE: run,
}

func init() {
	Cmd.Flags().String("graph", "", "Path to a graph snapshot written by \"prune build\" (required)")
	Cmd.Flags().Bool("depends-on", false, "Report the direct dependencies of the given ids")
	Cmd.Flags().Bool("affected-by", false, "Report every module transitively affected by the given ids")
	Cmd.Flags().Bool("files", false, "Treat arguments as file paths rather than module ids")
	Cmd.Flags().String("local-scope", "", "With --affected-by, report only dependents owned by this local scope; with --depends-on, look module ids up in this local scope")
	_ = Cmd.MarkFlagRequired("graph")

	_ = viper.BindPFlag("graph", Cmd.Flags().Lookup("graph"))
}

func run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("query requires at least one module id or file path argument")
	}

	osfs := fs.NewOSFileSystem()
	g, err := graph.FromFile(osfs, viper.GetString("graph"))
	if err != nil {
		return fmt.Errorf("loading graph snapshot: %w", err)
	}

	dependsOn, _ := cmd.Flags().GetBool("depends-on")
	affectedBy, _ := cmd.Flags().GetBool("affected-by")
	if dependsOn == affectedBy {
		return fmt.Errorf("exactly one of --depends-on or --affected-by must be set")
	}
	byFiles, _ := cmd.Flags().GetBool("files")
	localScope, _ := cmd.Flags().GetString("local-scope")

	if dependsOn {
		return runDependsOn(osfs, g, args, byFiles, localScope)
	}
	return runAffectedBy(osfs, g, args, byFiles, localScope)
}

func runDependsOn(osfs fs.FileSystem, g *graph.Graph, args []string, byFiles bool, localScope string) error {
	result := make(map[string]bool)
	for _, arg := range args {
		var deps map[graph.ModuleID]bool
		var ok bool
		if byFiles {
			deps, ok = g.FileDependsOn(arg)
		} else {
			deps, ok = g.ModuleDependsOn(graph.ModuleID(arg), localScope)
		}
		if !ok {
			output.Warnf("%q not found in graph", arg)
			continue
		}
		for id := range deps {
			result[string(id)] = true
		}
	}
	return output.IDs(osfs, result)
}

func runAffectedBy(osfs fs.FileSystem, g *graph.Graph, args []string, byFiles bool, localScope string) error {
	var affected map[graph.ModuleID]bool
	if localScope != "" {
		var grouped map[string]map[graph.ModuleID]bool
		if byFiles {
			grouped = g.LocalAffectedByFiles(args)
		} else {
			ids := make([]graph.ModuleID, len(args))
			for i, a := range args {
				ids[i] = graph.ModuleID(a)
			}
			grouped = g.LocalAffectedByModules(ids)
		}
		affected = grouped[localScope]
	} else if byFiles {
		affected = g.AffectedByFiles(args)
	} else {
		ids := make([]graph.ModuleID, len(args))
		for i, a := range args {
			ids[i] = graph.ModuleID(a)
		}
		affected = g.AffectedByModules(ids)
	}

	result := make(map[string]bool, len(affected))
	for id := range affected {
		result[string(id)] = true
	}
	return output.IDs(osfs, result)
}
