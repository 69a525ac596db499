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
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"naive.systems/luauanalyze/atomic"
)

const ReportFileName = "report.json"

type StepReport struct {
	Name      string
	Argv      []string
	Dir       string
	ExitCode  int
	Skipped   bool
	StartedAt time.Time
	Duration  time.Duration
	Error     string
}

// Report summarizes one run. LinesOfCode is negative when lines were not
// counted.
type Report struct {
	RunID       string
	StartedAt   time.Time
	Duration    time.Duration
	ExitCode    int
	DryRun      bool
	LinesOfCode int
	Steps       []StepReport
}

func NewReport() *Report {
	return &Report{
		RunID:       uuid.NewString(),
		StartedAt:   time.Now(),
		LinesOfCode: -1,
	}
}

func (r *Report) toStruct() (*structpb.Struct, error) {
	steps := make([]interface{}, 0, len(r.Steps))
	for _, step := range r.Steps {
		argv := make([]interface{}, 0, len(step.Argv))
		for _, arg := range step.Argv {
			argv = append(argv, arg)
		}
		s := map[string]interface{}{
			"name":      step.Name,
			"argv":      argv,
			"exit_code": step.ExitCode,
			"skipped":   step.Skipped,
		}
		if step.Dir != "" {
			s["dir"] = step.Dir
		}
		if !step.Skipped {
			s["started_at"] = step.StartedAt.Format(time.RFC3339Nano)
			s["duration_seconds"] = step.Duration.Seconds()
		}
		if step.Error != "" {
			s["error"] = step.Error
		}
		steps = append(steps, s)
	}
	fields := map[string]interface{}{
		"run_id":           r.RunID,
		"started_at":       r.StartedAt.Format(time.RFC3339Nano),
		"duration_seconds": r.Duration.Seconds(),
		"exit_code":        r.ExitCode,
		"dry_run":          r.DryRun,
		"steps":            steps,
	}
	if r.LinesOfCode >= 0 {
		fields["lines_of_code"] = r.LinesOfCode
	}
	return structpb.NewStruct(fields)
}

func WriteReport(resultDir string, report *Report) error {
	s, err := report.toStruct()
	if err != nil {
		return fmt.Errorf("structpb.NewStruct: %v", err)
	}
	marshalOptions := protojson.MarshalOptions{Multiline: true, Indent: "  ", UseProtoNames: true}
	content, err := marshalOptions.Marshal(s)
	if err != nil {
		return fmt.Errorf("protojson.Marshal: %v", err)
	}
	return atomic.Write(filepath.Join(resultDir, ReportFileName), content)
}

// ReadReport returns the report written by WriteReport as a generic map.
func ReadReport(resultDir string) (map[string]interface{}, error) {
	content, err := os.ReadFile(filepath.Join(resultDir, ReportFileName))
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(content, s); err != nil {
		return nil, fmt.Errorf("protojson.Unmarshal: %v", err)
	}
	return s.AsMap(), nil
}
