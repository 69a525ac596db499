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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/golang/glog"
	"naive.systems/luauanalyze/basic"
	"naive.systems/luauanalyze/command"
	"naive.systems/luauanalyze/i18n"
	"naive.systems/luauanalyze/ignore"
	"naive.systems/luauanalyze/options"
	"naive.systems/luauanalyze/runner"
	"naive.systems/luauanalyze/stats"
)

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
	glog.Error(err)
	glog.Flush()
	os.Exit(basic.ExitGeneral)
}

func toReport(report *stats.Report, result *runner.Result) {
	report.StartedAt = result.StartedAt
	report.Duration = result.Duration
	report.ExitCode = result.ExitCode
	report.DryRun = result.DryRun
	for _, step := range result.Steps {
		stepReport := stats.StepReport{
			Name:      step.Command.Name,
			Argv:      append([]string{step.Command.Bin}, step.Command.Args...),
			Dir:       step.Command.Dir,
			ExitCode:  step.ExitCode,
			Skipped:   step.Skipped,
			StartedAt: step.StartedAt,
			Duration:  step.Duration,
		}
		if step.Err != nil {
			stepReport.Error = step.Err.Error()
		}
		report.Steps = append(report.Steps, stepReport)
	}
}

func main() {
	sharedOptions := options.NewSharedOptions(flag.CommandLine)
	flag.Parse()
	defer glog.Flush()

	// Do not call any logging functions of glog before this part.
	logDir := flag.Lookup("log_dir")
	if logDir.Value.String() == "" && sharedOptions.GetResultsDir() != "" {
		err := flag.Set("log_dir", filepath.Join(sharedOptions.GetResultsDir(), "logs"))
		if err != nil {
			glog.Fatalf("failed to set default log_dir: %v", err)
		}
	}
	if logDir.Value.String() != "" {
		if err := os.MkdirAll(logDir.Value.String(), os.ModePerm); err != nil {
			glog.Fatalf("failed to create log dir: %v", err)
		}
	}
	if !sharedOptions.GetDebugMode() {
		err := flag.Set("stderrthreshold", "FATAL")
		if err != nil {
			glog.Fatalf("failed to set default stderrthreshold: %v", err)
		}
	}

	opts, err := options.Resolve(sharedOptions, os.LookupEnv)
	if err != nil {
		exitWithError(fmt.Errorf("options.Resolve: %v", err))
	}
	printer := i18n.GetPrinter(opts.Lang)
	glog.Infof("resolved options: %+v", *opts)

	plan, err := command.Plan(opts, os.LookupEnv)
	if err != nil {
		exitWithError(fmt.Errorf("command.Plan: %v", err))
	}

	covered, err := ignore.CoveredTargets(opts.IgnorePatterns, opts.Targets)
	if err != nil {
		exitWithError(fmt.Errorf("ignore.CoveredTargets: %v", err))
	}
	for _, c := range covered {
		glog.Warningf("target %s is excluded by ignore pattern %s", c.Target, c.Pattern)
		basic.PrintfWithTimeStamp("%s", printer.Sprintf(i18n.MsgIgnoredTarget, c.Target, c.Pattern))
	}

	if opts.ResultsDir != "" {
		if err := os.MkdirAll(opts.ResultsDir, os.ModePerm); err != nil {
			exitWithError(fmt.Errorf("failed to create result dir: %v", err))
		}
	}

	report := stats.NewReport()
	if opts.CountLines {
		lines, err := stats.CountLines(opts.Root, opts.Targets, opts.IgnorePatterns)
		if err != nil {
			glog.Errorf("stats.CountLines: %v", err)
		} else {
			report.LinesOfCode = lines
			basic.PrintfWithTimeStamp("%s", printer.Sprintf(i18n.MsgLinesCounted, lines))
			if opts.ResultsDir != "" {
				stats.WriteLOC(opts.ResultsDir, lines)
			}
		}
	}

	ctx, stop := basic.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	r := runner.New(printer)
	r.Timeout = time.Duration(opts.Timeout) * time.Minute
	r.DryRun = opts.DryRun
	r.CheckProgress = opts.CheckProgress
	r.ResultsDir = opts.ResultsDir
	if opts.ResultsDir != "" {
		r.LogDir = filepath.Join(opts.ResultsDir, "logs")
	}
	glog.Infof("run %s: %d steps", report.RunID, len(plan))
	result := r.Run(ctx, plan)
	stop()

	toReport(report, result)
	if opts.ResultsDir != "" {
		if err := stats.WriteReport(opts.ResultsDir, report); err != nil {
			glog.Errorf("stats.WriteReport: %v", err)
		}
	}

	if opts.CheckProgress && !opts.DryRun {
		if result.ExitCode == 0 {
			basic.PrintfWithTimeStamp("%s", printer.Sprintf(i18n.MsgRunSucceeded))
		} else {
			basic.PrintfWithTimeStamp("%s", printer.Sprintf(i18n.MsgRunFailed, result.ExitCode))
		}
	}
	glog.Flush()
	os.Exit(result.ExitCode)
}
