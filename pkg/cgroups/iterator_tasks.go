// Copyright 2020 Intel Corporation. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cgroups

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
)

// TaskIterator streams decimal task ids, one per line, out of a group's
// "tasks" pseudo-file.
type TaskIterator struct {
	f *os.File
	s *bufio.Scanner
}

// BeginTasks opens the "tasks" file of (groupName, controller) for
// iteration.
func BeginTasks(groupName, controller string) (*TaskIterator, error) {
	dir, err := controllerPath(groupName, controller)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(dir, "tasks"))
	if err != nil {
		return nil, newErr(classifyOpenErr(err))
	}
	return &TaskIterator{f: f, s: bufio.NewScanner(f)}, nil
}

// Next returns the next task id, or KindEOF once the file is exhausted.
func (it *TaskIterator) Next() (int, error) {
	if !it.s.Scan() {
		if err := it.s.Err(); err != nil {
			return 0, wrapErr(KindOther, err)
		}
		return 0, newErr(KindEOF)
	}
	pid, err := strconv.Atoi(it.s.Text())
	if err != nil {
		return 0, newErr(KindInvalidOp)
	}
	return pid, nil
}

// End closes the underlying file.
func (it *TaskIterator) End() error {
	return it.f.Close()
}
