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
	"fmt"
	"os"
	"path/filepath"
)

// Stat is a single key/value entry read from a "<controller>.stat" file.
type Stat struct {
	Name  string
	Value string
}

// StatIterator reads "name value" lines out of a group's
// "<controller>.stat" file.
type StatIterator struct {
	f *os.File
	s *bufio.Scanner
}

// BeginStats opens "<controller>.stat" under (groupName, controller).
func BeginStats(groupName, controller string) (*StatIterator, error) {
	dir, err := controllerPath(groupName, controller)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.stat", controller))
	f, err := os.Open(path)
	if err != nil {
		return nil, newErr(KindInvalidOp)
	}
	return &StatIterator{f: f, s: bufio.NewScanner(f)}, nil
}

// Next returns the next key/value entry. Both tokens must be present on
// the line or KindInvalidOp is returned; KindEOF signals the end of the
// file.
func (it *StatIterator) Next() (*Stat, error) {
	if !it.s.Scan() {
		if err := it.s.Err(); err != nil {
			return nil, wrapErr(KindOther, err)
		}
		return nil, newErr(KindEOF)
	}

	line := it.s.Text()
	var name, value string
	n, err := fmt.Sscanf(line, "%s %s", &name, &value)
	if err != nil || n != 2 {
		return nil, newErr(KindInvalidOp)
	}
	return &Stat{Name: name, Value: value}, nil
}

// End closes the underlying file.
func (it *StatIterator) End() error {
	return it.f.Close()
}
