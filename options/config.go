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
	"path/filepath"

	"github.com/golang/glog"
	"gopkg.in/yaml.v2"
	"naive.systems/luauanalyze/i18n"
	"naive.systems/luauanalyze/ignore"
)

// FileConfig is the YAML form of the options. Unset keys keep the
// defaults.
type FileConfig struct {
	AnalyzerBin   *string  `yaml:"analyzer_bin"`
	CheckProgress *bool    `yaml:"check_progress"`
	CountLines    *bool    `yaml:"count_lines"`
	Ignore        []string `yaml:"ignore"`
	Lang          *string  `yaml:"lang"`
	Platform      *string  `yaml:"platform"`
	PreStep       *string  `yaml:"prestep"`
	PreStepScript *string  `yaml:"prestep_script"`
	ResultsDir    *string  `yaml:"results_dir"`
	Root          *string  `yaml:"root"`
	RunnerBin     *string  `yaml:"runner_bin"`
	Settings      *string  `yaml:"settings"`
	SkipPreStep   *bool    `yaml:"skip_prestep"`
	Targets       []string `yaml:"targets"`
	Timeout       *int     `yaml:"timeout"`
}

func ReadConfigFile(path string) (*FileConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile: %v", err)
	}
	config := &FileConfig{}
	if err := yaml.UnmarshalStrict(content, config); err != nil {
		return nil, fmt.Errorf("yaml.UnmarshalStrict(%s): %v", path, err)
	}
	return config, nil
}

// Options is the resolved, expanded and validated configuration of one
// run.
type Options struct {
	AnalyzerBin    string
	CheckProgress  bool
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

func defaultOptions() *Options {
	return &Options{
		AnalyzerBin:    Defaults.AnalyzerBin,
		CheckProgress:  Defaults.CheckProgress,
		CountLines:     Defaults.CountLines,
		DebugMode:      Defaults.DebugMode,
		DryRun:         Defaults.DryRun,
		IgnorePatterns: append([]string{}, Defaults.IgnorePatterns...),
		Lang:           Defaults.Lang,
		Platform:       Defaults.Platform,
		PreStep:        Defaults.PreStep,
		PreStepScript:  Defaults.PreStepScript,
		ResultsDir:     Defaults.ResultsDir,
		Root:           Defaults.Root,
		RunnerBin:      Defaults.RunnerBin,
		Settings:       Defaults.Settings,
		SkipPreStep:    Defaults.SkipPreStep,
		Targets:        append([]string{}, Defaults.Targets...),
		Timeout:        Defaults.Timeout,
	}
}

func (o *Options) applyFile(config *FileConfig) {
	setString(&o.AnalyzerBin, config.AnalyzerBin)
	setBool(&o.CheckProgress, config.CheckProgress)
	setBool(&o.CountLines, config.CountLines)
	setString(&o.Lang, config.Lang)
	setString(&o.Platform, config.Platform)
	setString(&o.PreStep, config.PreStep)
	setString(&o.PreStepScript, config.PreStepScript)
	setString(&o.ResultsDir, config.ResultsDir)
	setString(&o.Root, config.Root)
	setString(&o.RunnerBin, config.RunnerBin)
	setString(&o.Settings, config.Settings)
	setBool(&o.SkipPreStep, config.SkipPreStep)
	if config.Timeout != nil {
		o.Timeout = *config.Timeout
	}
	if len(config.Ignore) != 0 {
		o.IgnorePatterns = append([]string{}, config.Ignore...)
	}
	if len(config.Targets) != 0 {
		o.Targets = append([]string{}, config.Targets...)
	}
}

func (o *Options) applyFlags(s *SharedOptions, set map[string]bool) {
	// debug_mode and dry_run only exist on the command line.
	o.DebugMode = s.GetDebugMode()
	o.DryRun = s.GetDryRun()
	for name := range set {
		switch name {
		case FlagAnalyzerBin:
			o.AnalyzerBin = s.GetAnalyzerBin()
		case FlagCheckProgress:
			o.CheckProgress = s.GetCheckProgress()
		case FlagCountLines:
			o.CountLines = s.GetCountLines()
		case FlagIgnore:
			o.IgnorePatterns = append([]string{}, s.GetIgnorePatterns()...)
		case FlagLang:
			o.Lang = s.GetLang()
		case FlagPlatform:
			o.Platform = s.GetPlatform()
		case FlagPreStep:
			o.PreStep = s.GetPreStep()
		case FlagPreStepScript:
			o.PreStepScript = s.GetPreStepScript()
		case FlagResultsDir:
			o.ResultsDir = s.GetResultsDir()
		case FlagRoot:
			o.Root = s.GetRoot()
		case FlagRunnerBin:
			o.RunnerBin = s.GetRunnerBin()
		case FlagSettings:
			o.Settings = s.GetSettings()
		case FlagSkipPreStep:
			o.SkipPreStep = s.GetSkipPreStep()
		case FlagTarget:
			o.Targets = append([]string{}, s.GetTargets()...)
		case FlagTimeout:
			o.Timeout = s.GetTimeout()
		}
	}
}

func (o *Options) expand(lookup LookupFunc) error {
	for _, field := range []*string{
		&o.AnalyzerBin,
		&o.Lang,
		&o.Platform,
		&o.PreStepScript,
		&o.ResultsDir,
		&o.Root,
		&o.RunnerBin,
		&o.Settings,
	} {
		expanded, err := Expand(*field, lookup)
		if err != nil {
			return err
		}
		*field = expanded
	}
	// The pre-step override is expanded word by word once it is split,
	// so that quoting survives substitution.
	var err error
	if o.IgnorePatterns, err = ExpandAll(o.IgnorePatterns, lookup); err != nil {
		return err
	}
	if o.Targets, err = ExpandAll(o.Targets, lookup); err != nil {
		return err
	}
	return nil
}

func (o *Options) validate() error {
	if o.Platform == "" {
		return fmt.Errorf("%s must not be empty", FlagPlatform)
	}
	if o.AnalyzerBin == "" {
		return fmt.Errorf("%s must not be empty", FlagAnalyzerBin)
	}
	if !o.SkipPreStep && o.PreStep == "" && (o.RunnerBin == "" || o.PreStepScript == "") {
		return fmt.Errorf("%s and %s must not be empty unless %s is set", FlagRunnerBin, FlagPreStepScript, FlagSkipPreStep)
	}
	if len(o.Targets) == 0 {
		return fmt.Errorf("at least one %s is required", FlagTarget)
	}
	for _, target := range o.Targets {
		if target == "" {
			return fmt.Errorf("empty %s", FlagTarget)
		}
	}
	if o.Timeout < 0 {
		return fmt.Errorf("%s must not be negative: %d", FlagTimeout, o.Timeout)
	}
	if err := ignore.ValidatePatterns(o.IgnorePatterns); err != nil {
		return err
	}
	if !i18n.Supported(o.Lang) {
		glog.Warningf("unsupported lang %s, falling back to en", o.Lang)
		o.Lang = "en"
	}
	return nil
}

// Resolve merges the defaults, the optional config file and the flags
// given on the command line, in increasing precedence, then expands and
// validates the result. Nothing is executed when it fails.
func Resolve(s *SharedOptions, lookup LookupFunc) (*Options, error) {
	opts := defaultOptions()
	configPath, err := Expand(s.GetConfigPath(), lookup)
	if err != nil {
		return nil, err
	}
	rootFromFile := false
	if configPath != "" {
		config, err := ReadConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		opts.applyFile(config)
		rootFromFile = config.Root != nil
		glog.Infof("loaded config file %s", configPath)
	}
	set := s.ExplicitlySet()
	opts.applyFlags(s, set)
	if err := opts.expand(lookup); err != nil {
		return nil, err
	}
	if rootFromFile && !set[FlagRoot] && opts.Root != "" && !filepath.IsAbs(opts.Root) {
		// A relative root in a config file is relative to the file.
		opts.Root = filepath.Join(filepath.Dir(configPath), opts.Root)
	}
	opts.IgnorePatterns = ignore.Dedupe(opts.IgnorePatterns)
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
