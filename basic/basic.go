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

/*
This package should not import any other package of the runner to
avoid recursive import.
*/
package basic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"
)

// Exit statuses reported the way a POSIX shell reports them.
const (
	ExitGeneral        = 1
	ExitTimeout        = 124
	ExitNotExecutable  = 126
	ExitCommandMissing = 127
	ExitSignalBase     = 128
	ExitInterrupted    = ExitSignalBase + int(syscall.SIGINT)
)

func PrintfWithTimeStamp(format string, arg ...any) {
	FprintfWithTimeStamp(os.Stdout, format, arg...)
}

func FprintfWithTimeStamp(w io.Writer, format string, arg ...any) {
	prefix := fmt.Sprintf("%v ", time.Now().Format("2006-01-02 15:04:05"))
	message := fmt.Sprintf(prefix+format, arg...)
	fmt.Fprintln(w, message)
	glog.Info(message)
}

func GetPercentString(v1, v2 int) string {
	if v2 == 0 {
		return "0%"
	}
	percent := (v1 * 100) / v2
	return fmt.Sprintf("%d%%", percent)
}

func FormatTimeDuration(d time.Duration) string {
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	if ms == 0 {
		return fmt.Sprintf("%ds", s)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%03d", s, ms), "0") + "s"
}

// ResolveBinaryPath returns the path a step binary is executed from.
// Errors wrap exec.ErrNotFound or os.ErrPermission so that ExitCode can
// map them to 127 and 126.
func ResolveBinaryPath(binPath string) (string, error) {
	if binPath == "" {
		return "", fmt.Errorf("empty binary path: %w", exec.ErrNotFound)
	}
	if filepath.IsAbs(binPath) {
		return binPath, checkExecutable(binPath, binPath)
	}
	// exec.LookPath will silently allow relative path, so we manually check it.
	if strings.Contains(binPath, string(filepath.Separator)) {
		absBinPath, err := filepath.Abs(binPath)
		if err != nil {
			return binPath, fmt.Errorf("when resolving %s, failed to convert to abs path: %v", binPath, err)
		}
		return absBinPath, checkExecutable(binPath, absBinPath)
	}
	return searchPath(binPath, os.Getenv("PATH"))
}

// searchPath looks binPath up in the $PATH directories the way a shell
// does: the first executable match wins, and a match that is not
// executable is only reported when nothing executable is found. An empty
// entry means the current directory.
func searchPath(binPath, pathEnv string) (string, error) {
	denied := ""
	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, binPath)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode().Perm()&0111 == 0 {
			if denied == "" {
				denied = candidate
			}
			continue
		}
		absCandidate, err := filepath.Abs(candidate)
		if err != nil {
			return binPath, fmt.Errorf("when resolving %s, failed to convert to abs path: %v", binPath, err)
		}
		return absCandidate, nil
	}
	if denied != "" {
		return binPath, fmt.Errorf("when resolving %s, %s is not executable: %w", binPath, denied, os.ErrPermission)
	}
	return binPath, fmt.Errorf("when resolving %s, not found in $PATH: %w", binPath, exec.ErrNotFound)
}

func checkExecutable(binPath, absBinPath string) error {
	info, err := os.Stat(absBinPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("when resolving %s, os.Stat failed: %w", binPath, exec.ErrNotFound)
		}
		return fmt.Errorf("when resolving %s, os.Stat failed: %w", binPath, os.ErrPermission)
	}
	if info.IsDir() || info.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("when resolving %s, not an executable file: %w", binPath, os.ErrPermission)
	}
	return nil
}

// ExitCode converts the error returned by running a command into the
// status a shell would have reported for it.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var interruptErr *InterruptError
	if errors.As(err, &interruptErr) {
		return interruptErr.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return ExitSignalBase + int(ws.Signal())
		}
		if code := exitErr.ExitCode(); code > 0 {
			return code
		}
		return ExitGeneral
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return ExitCommandMissing
	case errors.Is(err, os.ErrPermission):
		return ExitNotExecutable
	}
	return ExitGeneral
}
