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

package options

import (
	"fmt"
	"os"
)

// LookupFunc mirrors os.LookupEnv.
type LookupFunc func(name string) (string, bool)

// Expand substitutes $NAME and ${NAME} in value. A reference to a
// variable that is not set at all is an error, the way `set -u` treats
// it; a variable set to the empty string expands to nothing. "$$"
// produces a literal "$".
func Expand(value string, lookup LookupFunc) (string, error) {
	var missing string
	expanded := os.Expand(value, func(name string) string {
		if name == "$" {
			return "$"
		}
		v, ok := lookup(name)
		if !ok && missing == "" {
			missing = name
		}
		return v
	})
	if missing != "" {
		return "", fmt.Errorf("%s: unbound variable", missing)
	}
	return expanded, nil
}

// ExpandAll applies Expand to every element and stops at the first
// unbound variable.
func ExpandAll(values []string, lookup LookupFunc) ([]string, error) {
	expanded := make([]string, 0, len(values))
	for _, value := range values {
		v, err := Expand(value, lookup)
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, v)
	}
	return expanded, nil
}
