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
	"sort"
	"testing"

	"github.com/intel/libcgroup/pkg/platform/idxset"
)

func newTestTable(entries ...mountEntry) *MountTable {
	t := &MountTable{used: idxset.NewDenseSet(), initialized: true}
	for i, e := range entries {
		t.entries[i] = e
		t.used.Add(i)
	}
	return t
}

func TestMountTableLookup(t *testing.T) {
	table := newTestTable(
		mountEntry{controller: "cpu", path: "/sys/fs/cgroup/cpu"},
		mountEntry{controller: "memory", path: "/sys/fs/cgroup/memory"},
	)

	if path, ok := table.lookup("cpu"); !ok || path != "/sys/fs/cgroup/cpu" {
		t.Errorf("expected cpu -> /sys/fs/cgroup/cpu, got %q, %v", path, ok)
	}
	if _, ok := table.lookup("blkio"); ok {
		t.Errorf("expected lookup of unmounted controller to fail")
	}
}

func TestMountTableNames(t *testing.T) {
	table := newTestTable(
		mountEntry{controller: "cpu", path: "/sys/fs/cgroup/cpu"},
		mountEntry{controller: "cpuacct", path: "/sys/fs/cgroup/cpu"},
	)

	names := table.names()
	sort.Strings(names)
	want := []string{"cpu", "cpuacct"}
	if len(names) != len(want) || names[0] != want[0] || names[1] != want[1] {
		t.Errorf("expected names %v, got %v", want, names)
	}
}

func TestMountTableCapacity(t *testing.T) {
	table := &MountTable{used: idxset.NewDenseSet(), initialized: true}
	for i := 0; i < maxMountEntries; i++ {
		table.entries[i] = mountEntry{controller: string(rune('a' + i)), path: "/x"}
		table.used.Add(i)
	}

	if got := len(table.names()); got != maxMountEntries {
		t.Errorf("expected %d entries, got %d", maxMountEntries, got)
	}
}
