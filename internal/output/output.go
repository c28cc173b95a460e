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

// Package output provides shared output utilities for prune CLI commands.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/viper"

	"prunegraph.dev/prune/fs"
)

// IDs formats and outputs a sorted set of module or file ids to stdout or,
// if viper's "output" flag is set, to a file, one id per line.
func IDs(osfs fs.FileSystem, ids map[string]bool) error {
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	var buf []byte
	for _, id := range sorted {
		buf = append(buf, id...)
		buf = append(buf, '\n')
	}

	if outputPath := viper.GetString("output"); outputPath != "" {
		return osfs.WriteFile(outputPath, buf, 0644)
	}
	for _, id := range sorted {
		fmt.Println(id)
	}
	return nil
}

// JSON marshals v as indented JSON and writes it to stdout or, if viper's
// "output" flag is set, to a file.
func JSON(osfs fs.FileSystem, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}

	if outputPath := viper.GetString("output"); outputPath != "" {
		return osfs.WriteFile(outputPath, append(out, '\n'), 0644)
	}
	fmt.Println(string(out))
	return nil
}

// Warnf writes a formatted warning to stderr using plain
// fmt.Fprintf(os.Stderr, ...) rather than a structured logging library.
func Warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}
