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

// Package build provides the build command for prune.
package build

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"prunegraph.dev/prune/fs"
	"prunegraph.dev/prune/graph"
	"prunegraph.dev/prune/internal/hookconfig"
	"prunegraph.dev/prune/internal/output"
)

// Cmd is the build cobra command that constructs a module dependency
// graph from a project's source roots and serializes it to a file.
var Cmd = &cobra.Command{
	Use:   "build",
	Short: "Build a module dependency graph and write it to a file",
	Long: `Build walks every source root named in the hook configuration,
parses each Python file's imports, resolves them into a module dependency
graph, and writes the result to a snapshot file for "prune query" and
"prune select" to load.`,
	Example: `  # Build from a project's hook config, writing graph.gob
  prune build --hook prune.json --output graph.gob`,
	RunE: run,
}

func init() {
	Cmd.Flags().String("hook", "", "Path to the hook configuration JSON file (required)")
	_ = Cmd.MarkFlagRequired("hook")

	_ = viper.BindPFlag("hook", Cmd.Flags().Lookup("hook"))
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()

	hookPath := viper.GetString("hook")
	cfg, err := hookconfig.Load(osfs, hookPath)
	if err != nil {
		return err
	}

	g, err := graph.Build(osfs, cfg.Hook(), cliLogger{})
	if err != nil {
		return fmt.Errorf("building graph: %w", err)
	}

	for _, ref := range g.Unresolved() {
		output.Warnf("unresolved import %q in %s:%d", ref.Target, ref.Module, ref.Line)
	}

	outputPath := viper.GetString("output")
	if outputPath == "" {
		return fmt.Errorf("--output is required: build writes a binary graph snapshot, not stdout")
	}
	if err := g.ToFile(osfs, outputPath); err != nil {
		return fmt.Errorf("writing graph snapshot: %w", err)
	}
	return nil
}

type cliLogger struct{}

func (cliLogger) Warning(format string, args ...any) { output.Warnf(format, args...) }
func (cliLogger) Debug(format string, args ...any)   {}
