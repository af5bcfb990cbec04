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
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/intel/libcgroup/pkg/log"
	"github.com/intel/libcgroup/pkg/platform/idxset"
)

// maxMountEntries bounds the Mount Table to the number of controllers a
// single kernel build can register.
const maxMountEntries = 16

const (
	cgroupsFile = "/proc/cgroups"
	mountsFile  = "/proc/mounts"
)

var mtabLog = log.NewLogger("cgroups")

// mountEntry is a single resolved (controller name, mount path) pair.
type mountEntry struct {
	controller string
	path       string
}

// MountTable is the process-wide, reader/writer-locked mapping from
// controller name to the filesystem path at which it is mounted. It is
// populated exactly once by Init (and only ever rewritten by a later call
// to Init taking the writer lock); every other consumer takes the reader
// side.
type MountTable struct {
	mu          sync.RWMutex
	entries     [maxMountEntries]mountEntry
	used        idxset.IdxSet
	initialized bool
}

var defaultMountTable = &MountTable{used: idxset.NewDenseSet()}

// Init (re-)scans /proc/cgroups and /proc/mounts and rebuilds the
// process-wide Mount Table. The writer lock is held for the entire scan,
// so readers never observe a half-populated table.
func Init() error {
	return defaultMountTable.init()
}

// IsInitialized reports whether the Mount Table currently has at least
// one mounted controller recorded.
func IsInitialized() bool {
	defaultMountTable.mu.RLock()
	defer defaultMountTable.mu.RUnlock()
	return defaultMountTable.initialized
}

// GetMountPath returns the mount path recorded for controller, and
// whether one was found.
func GetMountPath(controller string) (string, bool) {
	return defaultMountTable.lookup(controller)
}

// MountedControllers returns a snapshot of every controller name
// currently present in the Mount Table, in table order. Used by the Rule
// Engine to expand a wildcard ("*") controller list.
func MountedControllers() []string {
	return defaultMountTable.names()
}

func (t *MountTable) init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	known, err := readKnownControllers()
	if err != nil {
		return wrapErr(KindOther, err)
	}

	mounted, err := readMountedControllers(known)
	if err != nil {
		return wrapErr(KindOther, err)
	}

	t.entries = [maxMountEntries]mountEntry{}
	t.used = idxset.NewDenseSet()
	t.initialized = false

	slot := 0
	seen := map[string]bool{}
	for _, m := range mounted {
		if seen[m.controller] {
			continue
		}
		if slot >= maxMountEntries {
			mtabLog.Warn("controller %q dropped: mount table is full", m.controller)
			continue
		}
		t.entries[slot] = m
		t.used.Add(slot)
		seen[m.controller] = true
		slot++
	}

	if slot == 0 {
		return newErr(KindNotMounted)
	}

	t.initialized = true
	return nil
}

func (t *MountTable) lookup(controller string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := 0; i < maxMountEntries; i++ {
		if !t.used.Contains(i) {
			continue
		}
		if t.entries[i].controller == controller {
			return t.entries[i].path, true
		}
	}
	return "", false
}

func (t *MountTable) names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, t.used.Size())
	for i := 0; i < maxMountEntries; i++ {
		if t.used.Contains(i) {
			names = append(names, t.entries[i].controller)
		}
	}
	return names
}

// readKnownControllers parses /proc/cgroups, discarding the header line,
// and returns the set of registered controller names.
func readKnownControllers() (map[string]bool, error) {
	f, err := os.Open(cgroupsFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", cgroupsFile)
	}
	defer f.Close()

	known := map[string]bool{}
	s := bufio.NewScanner(f)
	header := true
	for s.Scan() {
		if header {
			header = false
			continue
		}
		fields := strings.Fields(s.Text())
		if len(fields) < 1 {
			continue
		}
		known[fields[0]] = true
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", cgroupsFile)
	}
	return known, nil
}

// readMountedControllers parses /proc/mounts for entries of filesystem
// type "cgroup", recording a mountEntry for every mount option that names
// a known controller.
func readMountedControllers(known map[string]bool) ([]mountEntry, error) {
	f, err := os.Open(mountsFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", mountsFile)
	}
	defer f.Close()

	var mounted []mountEntry
	s := bufio.NewScanner(f)
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) < 4 {
			continue
		}
		path, fstype, optstr := fields[1], fields[2], fields[3]
		if fstype != "cgroup" {
			continue
		}
		for _, opt := range strings.Split(optstr, ",") {
			if known[opt] {
				mounted = append(mounted, mountEntry{controller: opt, path: path})
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", mountsFile)
	}
	return mounted, nil
}
