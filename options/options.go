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
	"flag"
	"strings"
)

type ArrayFlags []string

func (i *ArrayFlags) String() string {
	return strings.Join(*i, ",")
}

func (i *ArrayFlags) Set(value string) error {
	*i = append(*i, value)
	return nil
}

// Flag names, shared by the command line and the YAML config file.
const (
	FlagAnalyzerBin   = "analyzer_bin"
	FlagCheckProgress = "check_progress"
	FlagConfig        = "config"
	FlagCountLines    = "count_lines"
	FlagDebugMode     = "debug_mode"
	FlagDryRun        = "dry_run"
	FlagIgnore        = "ignore"
	FlagLang          = "lang"
	FlagPlatform      = "platform"
	FlagPreStep       = "prestep"
	FlagPreStepScript = "prestep_script"
	FlagResultsDir    = "results_dir"
	FlagRoot          = "root"
	FlagRunnerBin     = "runner_bin"
	FlagSettings      = "settings"
	FlagSkipPreStep   = "skip_prestep"
	FlagTarget        = "target"
	FlagTimeout       = "timeout"
)

type SharedOptions struct {
	AnalyzerBin    *string
	CheckProgress  *bool
	ConfigPath     *string
	CountLines     *bool
	DebugMode      *bool
	DryRun         *bool
	IgnorePatterns ArrayFlags
	Lang           *string
	Platform       *string
	PreStep        *string
	PreStepScript  *string
	ResultsDir     *string
	Root           *string
	RunnerBin      *string
	Settings       *string
	SkipPreStep    *bool
	Targets        ArrayFlags
	Timeout        *int

	flagSet *flag.FlagSet
}

func (s SharedOptions) GetAnalyzerBin() string {
	return *s.AnalyzerBin
}

func (s SharedOptions) GetCheckProgress() bool {
	return *s.CheckProgress
}

func (s SharedOptions) GetConfigPath() string {
	return *s.ConfigPath
}

func (s SharedOptions) GetCountLines() bool {
	return *s.CountLines
}

func (s SharedOptions) GetDebugMode() bool {
	return *s.DebugMode
}

func (s SharedOptions) GetDryRun() bool {
	return *s.DryRun
}

func (s SharedOptions) GetIgnorePatterns() ArrayFlags {
	return s.IgnorePatterns
}

func (s SharedOptions) GetLang() string {
	return *s.Lang
}

func (s SharedOptions) GetPlatform() string {
	return *s.Platform
}

func (s SharedOptions) GetPreStep() string {
	return *s.PreStep
}

func (s SharedOptions) GetPreStepScript() string {
	return *s.PreStepScript
}

func (s SharedOptions) GetResultsDir() string {
	return *s.ResultsDir
}

func (s SharedOptions) GetRoot() string {
	return *s.Root
}

func (s SharedOptions) GetRunnerBin() string {
	return *s.RunnerBin
}

func (s SharedOptions) GetSettings() string {
	return *s.Settings
}

func (s SharedOptions) GetSkipPreStep() bool {
	return *s.SkipPreStep
}

func (s SharedOptions) GetTargets() ArrayFlags {
	return s.Targets
}

func (s SharedOptions) GetTimeout() int {
	return *s.Timeout
}

type DefaultOptionValues struct {
	AnalyzerBin    string
	CheckProgress  bool
	ConfigPath     string
	CountLines     bool
	DebugMode      bool
	DryRun         bool
	IgnorePatterns []string
	Lang           string
	Platform       string
	PreStep        string
	PreStepScript  string
	ResultsDir     string
	Root           string
	RunnerBin      string
	Settings       string
	SkipPreStep    bool
	Targets        []string
	Timeout        int
}

var Defaults = DefaultOptionValues{
	AnalyzerBin:   "luau-lsp",
	CheckProgress: true,
	ConfigPath:    "",
	CountLines:    false,
	DebugMode:     false,
	DryRun:        false,
	IgnorePatterns: []string{
		"tests/roblox/rbx-test-files/**",
		"tests/require/tests/modules/self_alias/**",
		"tests/require/tests/self_alias/**",
		"tests/fs/files/**",
		"tests/serde/test-files/**",
		".lune/.typedefs/**",
	},
	Lang:          "en",
	Platform:      "standard",
	PreStep:       "",
	PreStepScript: "scripts/analyze_copy_typedefs",
	ResultsDir:    "",
	Root:          "",
	RunnerBin:     "lune",
	Settings:      ".vscode/settings.json",
	SkipPreStep:   false,
	Targets:       []string{".lune", "crates", "scripts", "tests"},
	Timeout:       0,
}

// NewSharedOptions registers every option on fs. Pass flag.CommandLine
// from main so the options sit next to the glog flags.
func NewSharedOptions(fs *flag.FlagSet) *SharedOptions {
	option := &SharedOptions{flagSet: fs}

	option.AnalyzerBin = fs.String(FlagAnalyzerBin, Defaults.AnalyzerBin, "luau-lsp binary location")
	option.CheckProgress = fs.Bool(FlagCheckProgress, Defaults.CheckProgress, "Show the progress of each step")
	option.ConfigPath = fs.String(FlagConfig, Defaults.ConfigPath, "Path to a YAML file overriding the defaults; flags set explicitly still win")
	option.CountLines = fs.Bool(FlagCountLines, Defaults.CountLines, "Count Luau lines under the analysis targets before analyzing")
	option.DebugMode = fs.Bool(FlagDebugMode, Defaults.DebugMode, "Print glog messages to stderr")
	option.DryRun = fs.Bool(FlagDryRun, Defaults.DryRun, "Print the commands instead of running them")
	fs.Var(&option.IgnorePatterns, FlagIgnore, "Glob excluded from analysis, can be repeated; replaces the default list")
	option.Lang = fs.String(FlagLang, Defaults.Lang, "Language of progress messages (en, zh)")
	option.Platform = fs.String(FlagPlatform, Defaults.Platform, "Value of the analyzer --platform flag")
	option.PreStep = fs.String(FlagPreStep, Defaults.PreStep, "Full pre-step command line, overrides runner_bin and prestep_script")
	option.PreStepScript = fs.String(FlagPreStepScript, Defaults.PreStepScript, "Script the runner executes before analysis")
	option.ResultsDir = fs.String(FlagResultsDir, Defaults.ResultsDir, "Directory receiving step logs, progress and the run report; empty disables them")
	option.Root = fs.String(FlagRoot, Defaults.Root, "Working directory of both steps, defaults to the current directory")
	option.RunnerBin = fs.String(FlagRunnerBin, Defaults.RunnerBin, "lune binary location")
	option.Settings = fs.String(FlagSettings, Defaults.Settings, "Value of the analyzer --settings flag")
	option.SkipPreStep = fs.Bool(FlagSkipPreStep, Defaults.SkipPreStep, "Run the analyzer without the pre-step")
	fs.Var(&option.Targets, FlagTarget, "Directory or file to analyze, can be repeated; replaces the default list")
	option.Timeout = fs.Int(FlagTimeout, Defaults.Timeout, "Timeout of each step in minutes, 0 means none")

	return option
}

// ExplicitlySet returns the names of the flags given on the command line.
func (s SharedOptions) ExplicitlySet() map[string]bool {
	set := map[string]bool{}
	if s.flagSet == nil {
		return set
	}
	s.flagSet.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}
