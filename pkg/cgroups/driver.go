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

// Package cgroups implements the control-group runtime: the Mount Table,
// the in-memory Group Model, and the Filesystem Driver that reconciles
// the two against the kernel's cgroup filesystem.
package cgroups

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/intel/libcgroup/pkg/log"
)

var driverLog = log.NewLogger("cgroups")

// controllerPath resolves (groupName, controllerName) to the filesystem
// directory for that group under that controller, consulting the Mount
// Table under its reader lock.
func controllerPath(groupName, controller string) (string, error) {
	mount, ok := GetMountPath(controller)
	if !ok {
		return "", newErr(KindSubsysNotMounted)
	}
	if groupName == "" {
		return mount, nil
	}
	return filepath.Join(mount, groupName), nil
}

// Create creates the filesystem directory and attribute files for every
// controller in g, in insertion order. Attribute-write failures are
// non-fatal: the first one is remembered and returned only if no earlier
// fatal (path or ownership) error occurred; every failure seen is
// accumulated into a *multierror.Error for diagnostics.
func Create(g *Group, ignoreOwnership bool) (err error) {
	defer func() { observe("create", err) }()

	if !IsInitialized() {
		return newErr(KindNotInitialized)
	}
	if g == nil {
		return newErr(KindNotAllowed)
	}
	for _, c := range g.Controllers {
		if _, ok := GetMountPath(c.Name); !ok {
			return newErr(KindSubsysNotMounted)
		}
	}

	var remembered error
	var diag *multierror.Error

	for _, c := range g.Controllers {
		dir, err := controllerPath(g.Name, c.Name)
		if err != nil {
			return err
		}

		if err := mkdirP(dir); err != nil {
			return err
		}

		if !ignoreOwnership {
			if err := chownRecursive(dir, g.AdminUID, g.AdminGID); err != nil {
				return err
			}
		}

		for _, a := range c.Values {
			path := filepath.Join(dir, a.Name)
			if err := setControlValue(path, a.Value); err != nil {
				diag = multierror.Append(diag, errors.Wrapf(err, "writing %s", path))
				if remembered == nil {
					remembered = err
				}
				continue
			}
		}

		if !ignoreOwnership {
			tasksPath := filepath.Join(dir, "tasks")
			if err := os.Chown(tasksPath, g.TasksUID, g.TasksGID); err != nil {
				return wrapErr(KindOther, err)
			}
		}
	}

	if diag != nil && diag.Len() > 0 {
		driverLog.Debug("create(%s): %d non-fatal attribute write failure(s): %v", g.Name, diag.Len(), diag)
	}

	return remembered
}

// Modify writes attribute values for every controller in g without
// creating directories or touching ownership. An attribute file that
// cannot be opened yields KindValueNotExist; a permission failure is
// instead disambiguated, by probing the sibling "tasks" file, into
// KindSubsysNotMounted or KindNotAllowed, per spec Open Question (b).
func Modify(g *Group) (err error) {
	defer func() { observe("modify", err) }()

	if !IsInitialized() {
		return newErr(KindNotInitialized)
	}
	if g == nil {
		return newErr(KindNotAllowed)
	}
	for _, c := range g.Controllers {
		if _, ok := GetMountPath(c.Name); !ok {
			return newErr(KindSubsysNotMounted)
		}
	}

	for _, c := range g.Controllers {
		dir, err := controllerPath(g.Name, c.Name)
		if err != nil {
			return err
		}
		for _, a := range c.Values {
			path := filepath.Join(dir, a.Name)
			if err := setControlValue(path, a.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Read populates g (which must already have Name set) from the
// filesystem: for every mounted controller whose group directory exists,
// it adds a Controller block, captures tasks/admin ownership, and scans
// the directory for attribute files whose basename's first dot-separated
// segment matches the controller name.
func Read(g *Group) (err error) {
	defer func() { observe("read", err) }()

	if !IsInitialized() {
		return newErr(KindNotInitialized)
	}
	if g == nil {
		return newErr(KindNotAllowed)
	}

	for _, name := range MountedControllers() {
		dir, err := controllerPath(g.Name, name)
		if err != nil {
			continue
		}
		var dirSt unix.Stat_t
		if err := unix.Stat(dir, &dirSt); err != nil {
			continue
		}

		tasksPath := filepath.Join(dir, "tasks")
		var st unix.Stat_t
		if err := unix.Stat(tasksPath, &st); err != nil {
			return wrapErr(KindOther, err)
		}
		g.TasksUID, g.TasksGID = int(st.Uid), int(st.Gid)
		g.AdminUID, g.AdminGID = int(dirSt.Uid), int(dirSt.Gid)

		c, err := g.AddController(name)
		if err != nil {
			return err
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			return wrapErr(KindOther, err)
		}
		for _, e := range entries {
			if e.IsDir() || !e.Type().IsRegular() {
				continue
			}
			base := e.Name()
			dot := strings.Index(base, ".")
			if dot < 0 {
				continue
			}
			if base[:dot] != name {
				continue
			}
			token, err := readFirstToken(filepath.Join(dir, base))
			if err != nil {
				continue
			}
			if err := AddValue(c, base, token); err != nil {
				return err
			}
		}
	}

	if len(g.Controllers) == 0 {
		return newErr(KindNotExists)
	}
	return nil
}

// readFirstToken opens path and returns the first whitespace-delimited
// token in it.
func readFirstToken(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	s.Split(bufio.ScanWords)
	if s.Scan() {
		return s.Text(), nil
	}
	return "", s.Err()
}

// Delete migrates every task in g up to its parent group, one controller
// at a time, then rmdirs the now-empty group directory. If
// ignoreMigration is set, a failed migration is not reported and the
// rmdir is still attempted, and an rmdir that finds the directory
// already gone counts as success.
func Delete(g *Group, ignoreMigration bool) (err error) {
	defer func() { observe("delete", err) }()

	if !IsInitialized() {
		return newErr(KindNotInitialized)
	}
	if g == nil {
		return newErr(KindNotAllowed)
	}
	for _, c := range g.Controllers {
		if _, ok := GetMountPath(c.Name); !ok {
			return newErr(KindSubsysNotMounted)
		}
	}

	var firstErr error
	for _, c := range g.Controllers {
		dir, err := controllerPath(g.Name, c.Name)
		if err != nil {
			continue
		}
		parentDir := filepath.Join(dir, "..", "tasks")

		if err := migrateTasks(filepath.Join(dir, "tasks"), parentDir); err != nil {
			if !ignoreMigration {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}

		if err := os.Remove(dir); err != nil {
			if ignoreMigration && os.IsNotExist(err) {
				continue
			}
			if firstErr == nil {
				firstErr = wrapErr(KindOther, err)
			}
		}
	}

	return firstErr
}

// migrateTasks streams decimal task ids out of srcTasks and appends each
// one to dstTasks.
func migrateTasks(srcTasks, dstTasks string) error {
	src, err := os.Open(srcTasks)
	if err != nil {
		return wrapErr(KindOther, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(dstTasks, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return wrapErr(KindOther, err)
	}
	defer dst.Close()

	s := bufio.NewScanner(src)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		if _, err := fmt.Fprintf(dst, "%s", line); err != nil {
			return wrapErr(KindOther, err)
		}
	}
	return s.Err()
}

// Attach appends tid to the "tasks" pseudo-file of every controller in
// g; a nil g means every currently-mounted controller.
func Attach(g *Group, tid int) (err error) {
	defer func() { observe("attach", err) }()

	if !IsInitialized() {
		return newErr(KindNotInitialized)
	}

	controllers := MountedControllers()
	if g != nil {
		for _, c := range g.Controllers {
			if _, ok := GetMountPath(c.Name); !ok {
				return newErr(KindSubsysNotMounted)
			}
		}
		controllers = make([]string, len(g.Controllers))
		for i, c := range g.Controllers {
			controllers[i] = c.Name
		}
	}

	name := ""
	if g != nil {
		name = g.Name
	}

	for _, controller := range controllers {
		dir, err := controllerPath(name, controller)
		if err != nil {
			continue
		}
		tasksPath := filepath.Join(dir, "tasks")
		f, err := os.OpenFile(tasksPath, os.O_WRONLY, 0)
		if err != nil {
			return newErr(classifyOpenErr(err))
		}
		_, werr := fmt.Fprintf(f, "%d", tid)
		cerr := f.Close()
		if werr != nil {
			return wrapErr(KindOther, werr)
		}
		if cerr != nil {
			return wrapErr(KindOther, cerr)
		}
	}
	return nil
}

// AttachCurrent attaches the calling thread (not the calling process) to
// g, using the Linux thread id rather than the process id.
func AttachCurrent(g *Group) error {
	if !IsInitialized() {
		return newErr(KindNotInitialized)
	}
	return Attach(g, unix.Gettid())
}

// FindParent resolves name's logical parent group. If name's directory
// sits at a hierarchy mount point (its device id differs from its
// parent's), the group is a hierarchy root and the parent is ".";
// otherwise the parent is the textual dirname of name (".." if name has
// no slash).
func FindParent(name string) (string, error) {
	if !IsInitialized() {
		return "", newErr(KindNotInitialized)
	}

	controllers := MountedControllers()
	if len(controllers) == 0 {
		return "", newErr(KindNotMounted)
	}

	dir, err := controllerPath(name, controllers[0])
	if err != nil {
		return "", err
	}
	parentDir := filepath.Join(dir, "..")

	childDev, err := statDev(dir)
	if err != nil {
		return "", wrapErr(KindOther, err)
	}
	parentDev, err := statDev(parentDir)
	if err != nil {
		return "", wrapErr(KindOther, err)
	}

	if parentDev != childDev {
		return ".", nil
	}

	if !strings.Contains(name, "/") {
		return "..", nil
	}
	return filepath.Dir(name), nil
}

// CreateFromParent locates g's logical parent, reads its controllers,
// deep-copies them into g, and creates g.
func CreateFromParent(g *Group, ignoreOwnership bool) error {
	if !IsInitialized() {
		return newErr(KindNotInitialized)
	}
	if g == nil {
		return newErr(KindNotAllowed)
	}

	parentName, err := FindParent(g.Name)
	if err != nil {
		return err
	}

	parent := NewGroup(parentName)
	if err := Read(parent); err != nil {
		return err
	}

	if err := CopyGroup(g, parent); err != nil {
		return err
	}

	return Create(g, ignoreOwnership)
}

// GetCurrentControllerPath reads /proc/<pid>/cgroup and returns the
// group path whose comma-separated controller list contains an exact
// token equal to controller.
func GetCurrentControllerPath(pid int, controller string) (string, error) {
	if !IsInitialized() {
		return "", newErr(KindNotInitialized)
	}
	if controller == "" {
		return "", newErr(KindOther)
	}

	path := fmt.Sprintf("/proc/%d/cgroup", pid)
	f, err := os.Open(path)
	if err != nil {
		return "", newErr(KindNotExists)
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		fields := strings.SplitN(s.Text(), ":", 3)
		if len(fields) != 3 {
			continue
		}
		for _, token := range strings.Split(fields[1], ",") {
			if token == controller {
				return fields[2], nil
			}
		}
	}
	if err := s.Err(); err != nil {
		return "", wrapErr(KindOther, err)
	}
	return "", newErr(KindNotExists)
}
