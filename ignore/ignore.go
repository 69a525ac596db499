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

package ignore

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang/glog"
	"golang.org/x/exp/slices"
)

// ValidatePatterns reports the first pattern doublestar cannot parse.
func ValidatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if pattern == "" {
			return fmt.Errorf("empty ignore pattern")
		}
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("malformed ignore pattern %s", pattern)
		}
	}
	return nil
}

func MatchIgnorePatterns(patterns []string, path string) (bool, error) {
	path = normalize(path)
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, fmt.Errorf("malformed ignore pattern %s", pattern)
		}
		if matched {
			glog.V(1).Infof("%s ignored due to pattern %s", path, pattern)
			return true, nil
		}
	}
	return false, nil
}

// CoveredTarget is an analysis root that an ignore pattern excludes as a
// whole.
type CoveredTarget struct {
	Target  string
	Pattern string
}

// CoveredTargets returns the targets that are themselves matched by a
// pattern, either directly or through a trailing "/**".
func CoveredTargets(patterns, targets []string) ([]CoveredTarget, error) {
	covered := []CoveredTarget{}
	for _, target := range targets {
		path := normalize(target)
		for _, pattern := range patterns {
			matched, err := doublestar.Match(pattern, path)
			if err != nil {
				return nil, fmt.Errorf("malformed ignore pattern %s", pattern)
			}
			if !matched && strings.HasSuffix(pattern, "/**") {
				matched, err = doublestar.Match(strings.TrimSuffix(pattern, "/**"), path)
				if err != nil {
					return nil, fmt.Errorf("malformed ignore pattern %s", pattern)
				}
			}
			if matched {
				covered = append(covered, CoveredTarget{Target: target, Pattern: pattern})
				break
			}
		}
	}
	return covered, nil
}

// Dedupe drops repeated entries, keeping the first occurrence of each.
func Dedupe(values []string) []string {
	deduped := make([]string, 0, len(values))
	for _, value := range values {
		if !slices.Contains(deduped, value) {
			deduped = append(deduped, value)
		}
	}
	return deduped
}

func normalize(path string) string {
	path = filepath.ToSlash(filepath.Clean(path))
	return strings.TrimPrefix(path, "./")
}
