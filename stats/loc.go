/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package stats

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/hhatto/gocloc"
	"naive.systems/luauanalyze/ignore"
)

var countLangs = []string{"Lua"}

func init() {
	// gocloc has no Luau definition; Luau shares Lua's comment syntax.
	gocloc.Exts["luau"] = "Lua"
}

// CountLines sums the code lines of the Lua and Luau files under the
// targets, which are relative to root. Files matched by ignorePatterns
// are left out, and targets that do not exist are skipped.
func CountLines(root string, targets []string, ignorePatterns []string) (int, error) {
	if root == "" {
		root = "."
	}
	paths := []string{}
	for _, target := range targets {
		path := filepath.Join(root, target)
		if _, err := os.Stat(path); err != nil {
			glog.Warningf("not counting lines of %s: %v", path, err)
			continue
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return 0, nil
	}

	clocOpts := gocloc.NewClocOptions()
	languages := gocloc.NewDefinedLanguages()
	for _, lang := range countLangs {
		if _, exists := languages.Langs[lang]; exists {
			clocOpts.IncludeLangs[lang] = struct{}{}
		}
	}
	processor := gocloc.NewProcessor(languages, clocOpts)
	result, err := processor.Analyze(paths)
	if err != nil {
		return 0, fmt.Errorf("gocloc: %v", err)
	}
	sum := 0
	for _, file := range result.Files {
		rel, err := filepath.Rel(root, file.Name)
		if err != nil {
			rel = file.Name
		}
		matched, err := ignore.MatchIgnorePatterns(ignorePatterns, rel)
		if err != nil {
			glog.Error(err)
			continue
		}
		if matched {
			continue
		}
		sum += int(file.Code)
	}
	return sum, nil
}
