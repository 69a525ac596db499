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
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"naive.systems/luauanalyze/basic"
	"naive.systems/luauanalyze/command"
	"naive.systems/luauanalyze/stats"
)

// helperCommand re-executes the test binary as a fake tool that runs
// TestHelperProcess with args.
func helperCommand(name string, args ...string) command.Command {
	bin, err := os.Executable()
	if err != nil {
		bin = os.Args[0]
	}
	return command.Command{
		Name: name,
		Bin:  bin,
		Args: append([]string{"-test.run=TestHelperProcess", "--"}, args...),
		Env:  []string{"GO_WANT_HELPER_PROCESS=1"},
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "no helper command")
		os.Exit(2)
	}
	switch args[0] {
	case "exit":
		code, _ := strconv.Atoi(args[1])
		os.Exit(code)
	case "touch":
		if err := os.WriteFile(args[1], []byte(strings.Join(args[2:], " ")), 0644); err != nil {
			os.Exit(2)
		}
	case "echo":
		fmt.Fprintln(os.Stdout, strings.Join(args[1:], " "))
		fmt.Fprintln(os.Stderr, "diagnostic: "+strings.Join(args[1:], " "))
	case "pwd":
		dir, _ := os.Getwd()
		fmt.Fprintln(os.Stdout, dir)
	case "kill":
		killSelf()
	case "sleep":
		d, _ := time.ParseDuration(args[1])
		time.Sleep(d)
	case "cat":
		content, err := os.ReadFile(args[1])
		if err != nil {
			os.Exit(2)
		}
		os.Stdout.Write(content)
	}
	os.Exit(0)
}

func newTestRunner() (*Runner, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	r := New(nil)
	r.Stdin = strings.NewReader("")
	r.Stdout = &stdout
	r.Stderr = &stderr
	return r, &stdout, &stderr
}

func TestRunExitCodes(t *testing.T) {
	for _, testCase := range [...]struct {
		name             string
		preStepExit      int
		analyzeExit      int
		expectedExit     int
		expectAnalyzeRan bool
	}{
		{name: "both succeed", preStepExit: 0, analyzeExit: 0, expectedExit: 0, expectAnalyzeRan: true},
		{name: "pre-step fails", preStepExit: 3, analyzeExit: 0, expectedExit: 3, expectAnalyzeRan: false},
		{name: "pre-step fails and analyzer would fail", preStepExit: 4, analyzeExit: 1, expectedExit: 4, expectAnalyzeRan: false},
		{name: "analyzer fails", preStepExit: 0, analyzeExit: 5, expectedExit: 5, expectAnalyzeRan: true},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			marker := filepath.Join(t.TempDir(), "analyze-ran")
			analyze := helperCommand(command.AnalyzeName, "touch", marker)
			if testCase.analyzeExit != 0 {
				analyze = helperCommand(command.AnalyzeName, "exit", strconv.Itoa(testCase.analyzeExit))
			}
			plan := []command.Command{
				helperCommand(command.PreStepName, "exit", strconv.Itoa(testCase.preStepExit)),
				analyze,
			}

			r, _, _ := newTestRunner()
			result := r.Run(context.Background(), plan)
			if result.ExitCode != testCase.expectedExit {
				t.Errorf("unexpected exit code. got: %d. expected: %d.", result.ExitCode, testCase.expectedExit)
			}
			if len(result.Steps) != 2 {
				t.Fatalf("unexpected steps %+v", result.Steps)
			}
			analyzeStep := result.Steps[1]
			if analyzeStep.Skipped == testCase.expectAnalyzeRan {
				t.Errorf("unexpected skipped flag %v for the analyzer", analyzeStep.Skipped)
			}
			if testCase.analyzeExit == 0 {
				_, err := os.Stat(marker)
				if ran := err == nil; ran != testCase.expectAnalyzeRan {
					t.Errorf("analyzer ran: %v. expected: %v.", ran, testCase.expectAnalyzeRan)
				}
			}
			failed := result.FailedStep()
			if testCase.expectedExit == 0 && failed != nil {
				t.Errorf("unexpected failed step %+v", failed)
			}
			if testCase.expectedExit != 0 && (failed == nil || failed.ExitCode != testCase.expectedExit) {
				t.Errorf("unexpected failed step %+v", failed)
			}
		})
	}
}

func TestRunStopsBeforeLaterSteps(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "analyze-ran")
	plan := []command.Command{
		helperCommand(command.PreStepName, "exit", "7"),
		helperCommand(command.AnalyzeName, "touch", marker),
	}
	r, _, _ := newTestRunner()
	result := r.Run(context.Background(), plan)
	if result.ExitCode != 7 {
		t.Errorf("unexpected exit code %d", result.ExitCode)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Errorf("the analyzer must not run after a failed pre-step")
	}
}

func TestRunMissingBinary(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "analyze-ran")
	plan := []command.Command{
		{Name: command.PreStepName, Bin: "lune-binary-that-does-not-exist", Args: []string{"run", "x"}},
		helperCommand(command.AnalyzeName, "touch", marker),
	}
	r, _, _ := newTestRunner()
	result := r.Run(context.Background(), plan)
	if result.ExitCode != basic.ExitCommandMissing {
		t.Errorf("unexpected exit code. got: %d. expected: %d.", result.ExitCode, basic.ExitCommandMissing)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Errorf("the analyzer must not run after a missing pre-step binary")
	}
}

func TestRunTimeout(t *testing.T) {
	r, _, _ := newTestRunner()
	r.Timeout = 200 * time.Millisecond
	start := time.Now()
	result := r.Run(context.Background(), []command.Command{helperCommand(command.AnalyzeName, "sleep", "20s")})
	if result.ExitCode != basic.ExitTimeout {
		t.Errorf("unexpected exit code. got: %d. expected: %d.", result.ExitCode, basic.ExitTimeout)
	}
	if result.Steps[0].Duration < r.Timeout {
		t.Errorf("step duration %v is shorter than the timeout", result.Steps[0].Duration)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("timed out step was not killed, took %v", elapsed)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, _, _ := newTestRunner()
	result := r.Run(ctx, []command.Command{
		helperCommand(command.PreStepName, "exit", "0"),
		helperCommand(command.AnalyzeName, "exit", "0"),
	})
	if result.ExitCode != basic.ExitInterrupted {
		t.Errorf("unexpected exit code. got: %d. expected: %d.", result.ExitCode, basic.ExitInterrupted)
	}
	if !result.Steps[1].Skipped {
		t.Errorf("the analyzer must be skipped after an interrupted pre-step")
	}
}

func TestRunDryRun(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "ran")
	r, stdout, _ := newTestRunner()
	r.DryRun = true
	c := helperCommand(command.AnalyzeName, "touch", marker)
	result := r.Run(context.Background(), []command.Command{c})
	if result.ExitCode != 0 || !result.DryRun {
		t.Errorf("unexpected result %+v", result)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Errorf("dry run must not execute anything")
	}
	if !strings.Contains(stdout.String(), c.String()) {
		t.Errorf("dry run output %q does not contain %q", stdout.String(), c.String())
	}
}

func TestRunOutputAndLogs(t *testing.T) {
	resultsDir := t.TempDir()
	r, stdout, stderr := newTestRunner()
	r.ResultsDir = resultsDir
	r.LogDir = filepath.Join(resultsDir, "logs")
	result := r.Run(context.Background(), []command.Command{helperCommand(command.AnalyzeName, "echo", "hello")})
	if result.ExitCode != 0 {
		t.Fatalf("unexpected exit code %d: %v", result.ExitCode, result.Steps[0].Err)
	}
	if stdout.String() != "hello\n" {
		t.Errorf("unexpected stdout %q", stdout.String())
	}
	if stderr.String() != "diagnostic: hello\n" {
		t.Errorf("unexpected stderr %q", stderr.String())
	}
	logContent, err := os.ReadFile(filepath.Join(resultsDir, "logs", command.AnalyzeName+".log"))
	if err != nil {
		t.Fatalf("os.ReadFile: %v", err)
	}
	if !strings.Contains(string(logContent), "hello\n") || !strings.Contains(string(logContent), "diagnostic: hello\n") {
		t.Errorf("unexpected log contents %q", logContent)
	}
	progress, err := stats.ReadProgress(resultsDir)
	if err != nil {
		t.Fatalf("stats.ReadProgress: %v", err)
	}
	if progress.Stage != stats.StageEnd || progress.DoneRatio != "100%" {
		t.Errorf("unexpected progress %+v", progress)
	}
}

func TestRunWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	c := helperCommand(command.AnalyzeName, "pwd")
	c.Dir = dir
	r, stdout, _ := newTestRunner()
	if result := r.Run(context.Background(), []command.Command{c}); result.ExitCode != 0 {
		t.Fatalf("unexpected exit code %d", result.ExitCode)
	}
	got, err := filepath.EvalSymlinks(strings.TrimSpace(stdout.String()))
	if err != nil {
		t.Fatal(err)
	}
	expected, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != expected {
		t.Errorf("unexpected working directory. got: %s. expected: %s.", got, expected)
	}
}

func TestRunProgress(t *testing.T) {
	resultsDir := t.TempDir()
	r, stdout, _ := newTestRunner()
	r.ResultsDir = resultsDir
	r.CheckProgress = true
	result := r.Run(context.Background(), []command.Command{
		helperCommand(command.PreStepName, "exit", "0"),
		helperCommand(command.AnalyzeName, "cat", filepath.Join(resultsDir, "progress.nsa_metadata")),
	})
	if result.ExitCode != 0 {
		t.Fatalf("unexpected exit code %d: %v", result.ExitCode, result.FailedStep())
	}
	if !strings.Contains(stdout.String(), `"stage":"ANALYZE","done_ratio":"50%"`) {
		t.Errorf("analyzer did not see its own stage, stdout: %q", stdout.String())
	}
	progress, err := stats.ReadProgress(resultsDir)
	if err != nil {
		t.Fatalf("stats.ReadProgress: %v", err)
	}
	if progress.Stage != stats.StageEnd {
		t.Errorf("unexpected final stage %s", progress.Stage)
	}
}

func TestRunReportsSkippedSteps(t *testing.T) {
	r, stdout, _ := newTestRunner()
	r.CheckProgress = true
	result := r.Run(context.Background(), []command.Command{
		helperCommand(command.PreStepName, "exit", "2"),
		helperCommand(command.AnalyzeName, "exit", "0"),
	})
	if result.ExitCode != 2 {
		t.Errorf("unexpected exit code %d", result.ExitCode)
	}
	if !strings.Contains(stdout.String(), "Skipping "+command.AnalyzeName) {
		t.Errorf("skipped analyzer not reported, stdout: %q", stdout.String())
	}
}

func TestStageOf(t *testing.T) {
	for _, testCase := range [...]struct {
		name     string
		expected string
	}{
		{name: command.PreStepName, expected: stats.StagePreStep},
		{name: command.AnalyzeName, expected: stats.StageAnalyze},
		{name: "typecheck", expected: "TYPECHECK"},
	} {
		if got := stageOf(testCase.name); got != testCase.expected {
			t.Errorf("unexpected stage for %s. got: %s. expected: %s.", testCase.name, got, testCase.expected)
		}
	}
}
