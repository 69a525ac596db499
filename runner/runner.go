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

package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"
	"golang.org/x/text/message"
	"naive.systems/luauanalyze/basic"
	"naive.systems/luauanalyze/command"
	"naive.systems/luauanalyze/i18n"
	"naive.systems/luauanalyze/stats"
)

type StepResult struct {
	Command   command.Command
	ExitCode  int
	Skipped   bool
	StartedAt time.Time
	Duration  time.Duration
	// Err is set when the step did not exit with status 0.
	Err error
}

type Result struct {
	Steps     []StepResult
	ExitCode  int
	DryRun    bool
	StartedAt time.Time
	Duration  time.Duration
}

// FailedStep returns the step that aborted the run, or nil.
func (r *Result) FailedStep() *StepResult {
	for i := range r.Steps {
		if !r.Steps[i].Skipped && r.Steps[i].ExitCode != 0 {
			return &r.Steps[i]
		}
	}
	return nil
}

type Runner struct {
	// Timeout bounds each step; zero means no limit.
	Timeout time.Duration
	DryRun  bool
	// CheckProgress prints a line before and after every step.
	CheckProgress bool
	// ResultsDir receives progress.nsa_metadata; empty disables it.
	ResultsDir string
	// LogDir receives a <step>.log copy of each step's output; empty
	// disables it.
	LogDir  string
	Printer *message.Printer

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func New(printer *message.Printer) *Runner {
	if printer == nil {
		printer = i18n.GetPrinter("en")
	}
	return &Runner{
		Printer: printer,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Run executes the plan in order and waits for each step before starting
// the next. The first step that does not exit with status 0 stops the
// run; the remaining steps are reported as skipped and the run's exit
// code is that step's exit code.
func (r *Runner) Run(ctx context.Context, plan []command.Command) *Result {
	result := &Result{DryRun: r.DryRun, StartedAt: time.Now()}
	defer func() {
		result.Duration = time.Since(result.StartedAt)
	}()

	for i, c := range plan {
		if result.ExitCode != 0 {
			glog.Infof("skipping %s after a failed step", c.Name)
			if r.CheckProgress {
				basic.FprintfWithTimeStamp(r.Stdout, "%s", r.Printer.Sprintf(i18n.MsgSkipStep, c.Name))
			}
			result.Steps = append(result.Steps, StepResult{Command: c, Skipped: true})
			continue
		}
		if r.DryRun {
			fmt.Fprintln(r.Stdout, r.Printer.Sprintf(i18n.MsgDryRun, c.String()))
			glog.Infof("dry run: $ %s", c.String())
			result.Steps = append(result.Steps, StepResult{Command: c, Skipped: true})
			continue
		}

		if r.CheckProgress {
			basic.FprintfWithTimeStamp(r.Stdout, "%s", r.Printer.Sprintf(i18n.MsgStartStep, c.Name, i+1, len(plan)))
		}
		stats.WriteProgress(r.ResultsDir, stageOf(c.Name), basic.GetPercentString(i, len(plan)), result.StartedAt)

		stepResult := r.runStep(ctx, c)
		result.Steps = append(result.Steps, stepResult)
		elapsed := basic.FormatTimeDuration(stepResult.Duration)
		if stepResult.ExitCode != 0 {
			glog.Errorf("%s: %v", c.Name, stepResult.Err)
			if r.CheckProgress {
				basic.FprintfWithTimeStamp(r.Stdout, "%s", r.Printer.Sprintf(i18n.MsgFailStep, c.Name, stepResult.ExitCode, elapsed))
			}
			result.ExitCode = stepResult.ExitCode
			continue
		}
		if r.CheckProgress {
			basic.FprintfWithTimeStamp(r.Stdout, "%s", r.Printer.Sprintf(i18n.MsgFinishStep, c.Name, elapsed))
		}
	}

	stats.WriteProgress(r.ResultsDir, stats.StageEnd, "100%", result.StartedAt)
	return result
}

func stageOf(name string) string {
	switch name {
	case command.PreStepName:
		return stats.StagePreStep
	case command.AnalyzeName:
		return stats.StageAnalyze
	}
	return strings.ToUpper(name)
}

func (r *Runner) runStep(ctx context.Context, c command.Command) (stepResult StepResult) {
	stepResult = StepResult{Command: c, StartedAt: time.Now()}
	defer func() {
		stepResult.Duration = time.Since(stepResult.StartedAt)
	}()

	bin := c.Bin
	if c.Dir != "" && !filepath.IsAbs(bin) && strings.Contains(bin, string(filepath.Separator)) {
		bin = filepath.Join(c.Dir, bin)
	}
	bin, err := basic.ResolveBinaryPath(bin)
	if err != nil {
		stepResult.Err = fmt.Errorf("basic.ResolveBinaryPath: %w", err)
		stepResult.ExitCode = basic.ExitCode(err)
		return stepResult
	}

	stepCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(stepCtx, bin, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) != 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if r.LogDir != "" {
		logFile, err := r.openStepLog(c.Name)
		if err != nil {
			glog.Warningf("step output of %s will not be saved: %v", c.Name, err)
		} else {
			defer logFile.Close()
			cmd.Stdout = io.MultiWriter(r.Stdout, logFile)
			cmd.Stderr = io.MultiWriter(r.Stderr, logFile)
		}
	}

	glog.Infof("executing: $ %s", c.String())
	err = cmd.Run()
	if err == nil {
		return stepResult
	}
	// The context error explains a kill better than the kill itself.
	if ctxErr := stepCtx.Err(); ctxErr != nil {
		if ctxErr == context.DeadlineExceeded && ctx.Err() == nil {
			err = fmt.Errorf("%s timed out after %v: %w", c.Name, r.Timeout, ctxErr)
		} else if sig, ok := basic.ReceivedSignal(ctx); ok {
			err = fmt.Errorf("%s: %w", c.Name, &basic.InterruptError{Signal: sig})
		} else {
			err = fmt.Errorf("%s interrupted: %w", c.Name, ctx.Err())
		}
	}
	stepResult.Err = err
	stepResult.ExitCode = basic.ExitCode(err)
	return stepResult
}

func (r *Runner) openStepLog(name string) (*os.File, error) {
	if err := os.MkdirAll(r.LogDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("os.MkdirAll: %v", err)
	}
	return os.Create(filepath.Join(r.LogDir, name+".log"))
}
