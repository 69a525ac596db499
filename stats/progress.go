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
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang/glog"
	"naive.systems/luauanalyze/atomic"
)

// Stages written to progress.nsa_metadata. StageEnd is written once every
// step has finished or been skipped.
const (
	StagePreStep = "PRESTEP"
	StageAnalyze = "ANALYZE"
	StageEnd     = "END"
)

type Progress struct {
	Stage     string    `json:"stage"`
	DoneRatio string    `json:"done_ratio"`
	StartedAt time.Time `json:"started_at"`
}

func WriteProgress(resultDir, stage, doneRatio string, startedAt time.Time) {
	if resultDir == "" {
		return
	}
	// skip writing it if resultDir does not exist
	_, err := os.Stat(resultDir)
	if os.IsNotExist(err) {
		glog.Warningf("result dir %s does not exist", resultDir)
		return
	}
	path := filepath.Join(resultDir, "progress.nsa_metadata")
	progress, err := json.Marshal(Progress{Stage: stage, DoneRatio: doneRatio, StartedAt: startedAt})
	if err != nil {
		glog.Errorf("failed to marshal json stage %s and doneRatio %s: %v", stage, doneRatio, err)
		return
	}
	err = atomic.Write(path, progress)
	if err != nil {
		glog.Errorf("failed to write to file %s: %v", path, err)
	}
}

func ReadProgress(resultDir string) (*Progress, error) {
	content, err := os.ReadFile(filepath.Join(resultDir, "progress.nsa_metadata"))
	if err != nil {
		return nil, err
	}
	progress := &Progress{}
	if err := json.Unmarshal(content, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

func WriteLOC(resultDir string, linesCounter int) {
	path := filepath.Join(resultDir, "loc.nsa_metadata")
	err := atomic.Write(path, []byte(strconv.Itoa(linesCounter)))
	if err != nil {
		glog.Errorf("failed to write to file %s: %v", path, err)
	}
}
