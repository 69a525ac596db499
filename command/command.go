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

package command

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/shlex"
	"naive.systems/luauanalyze/options"
)

// Step names, also used for log file names and the run report.
const (
	PreStepName = "prestep"
	AnalyzeName = "analyze"
)

type Command struct {
	Name string
	Bin  string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env holds KEY=value pairs added to the inherited environment.
	Env []string
}

var safeWord = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

// String renders the command so that it can be pasted into a POSIX shell.
func (c Command) String() string {
	words := make([]string, 0, len(c.Args)+1)
	for _, word := range append([]string{c.Bin}, c.Args...) {
		words = append(words, quote(word))
	}
	return strings.Join(words, " ")
}

func quote(word string) string {
	if word == "" {
		return "''"
	}
	if safeWord.MatchString(word) {
		return word
	}
	return "'" + strings.ReplaceAll(word, "'", `'\''`) + "'"
}

// BuildPreStep returns `<runner_bin> run <prestep_script>`, or the
// prestep override split into shell words.
func BuildPreStep(opts *options.Options, lookup options.LookupFunc) (Command, error) {
	if opts.PreStep == "" {
		return Command{
			Name: PreStepName,
			Bin:  opts.RunnerBin,
			Args: []string{"run", opts.PreStepScript},
			Dir:  opts.Root,
		}, nil
	}
	words, err := shlex.Split(opts.PreStep)
	if err != nil {
		return Command{}, fmt.Errorf("shlex.Split(%s): %v", opts.PreStep, err)
	}
	if len(words) == 0 {
		return Command{}, fmt.Errorf("empty %s command", options.FlagPreStep)
	}
	words, err = options.ExpandAll(words, lookup)
	if err != nil {
		return Command{}, err
	}
	return Command{
		Name: PreStepName,
		Bin:  words[0],
		Args: words[1:],
		Dir:  opts.Root,
	}, nil
}

// BuildAnalyze returns the analyzer invocation. Flags come first in a
// fixed order, then the targets:
//
//	luau-lsp analyze --platform=<p> --settings=<s> --ignore=<g>... <target>...
func BuildAnalyze(opts *options.Options) Command {
	args := []string{
		"analyze",
		fmt.Sprintf("--platform=%s", opts.Platform),
		fmt.Sprintf("--settings=%s", opts.Settings),
	}
	for _, pattern := range opts.IgnorePatterns {
		args = append(args, fmt.Sprintf("--ignore=%s", pattern))
	}
	args = append(args, opts.Targets...)
	return Command{
		Name: AnalyzeName,
		Bin:  opts.AnalyzerBin,
		Args: args,
		Dir:  opts.Root,
	}
}

// Plan returns the commands of one run in execution order. Every command
// is built before any is run, so a construction error aborts the run
// before the first step starts.
func Plan(opts *options.Options, lookup options.LookupFunc) ([]Command, error) {
	plan := []Command{}
	if !opts.SkipPreStep {
		preStep, err := BuildPreStep(opts, lookup)
		if err != nil {
			return nil, err
		}
		plan = append(plan, preStep)
	}
	plan = append(plan, BuildAnalyze(opts))
	return plan, nil
}
