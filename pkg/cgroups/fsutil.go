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
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	dirMode  = os.FileMode(0775)
	fileMode = os.FileMode(0664)
)

// mkdirP emulates "mkdir -p": it creates path one segment at a time,
// chdir-ing into each newly created segment as it goes, and restores the
// caller's original working directory on every exit path. EEXIST on any
// segment is tolerated; EPERM maps to KindNotOwner, anything else to
// KindNotAllowed.
func mkdirP(path string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return wrapErr(KindOther, err)
	}
	defer os.Chdir(cwd)

	segments := strings.Split(filepath.Clean(path), string(os.PathSeparator))
	start := 0
	if filepath.IsAbs(path) {
		start = 1
		if err := os.Chdir(string(os.PathSeparator)); err != nil {
			return wrapErr(KindOther, err)
		}
	}

	for _, seg := range segments[start:] {
		if seg == "" {
			continue
		}
		if err := os.Mkdir(seg, dirMode); err != nil {
			if !os.IsExist(err) {
				if os.IsPermission(err) {
					return newErr(KindNotOwner)
				}
				return newErr(KindNotAllowed)
			}
		}
		if err := os.Chdir(seg); err != nil {
			return wrapErr(KindOther, err)
		}
	}
	return nil
}

// chownRecursive walks the tree rooted at path, chowning it to owner:group
// and setting directories to dirMode, regular files to fileMode.
func chownRecursive(path string, uid, gid int) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := os.Chown(p, uid, gid); err != nil {
			return wrapErr(KindOther, err)
		}
		if info.IsDir() {
			return os.Chmod(p, dirMode)
		}
		if info.Mode().IsRegular() {
			return os.Chmod(p, fileMode)
		}
		return nil
	})
}

// setControlValue writes val to the attribute file at path. It mirrors
// the original cg_set_control_value disambiguation: if the file cannot
// be opened due to EPERM, it probes whether the controller's "tasks" file
// exists in the same directory to distinguish "group exists but attribute
// is off-limits" (KindNotAllowed) from "controller is not actually
// mounted at this path" (KindSubsysNotMounted). Unlike the original, the
// probe never mutates the caller's path string.
func setControlValue(path, val string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsPermission(err) {
			tasksPath := filepath.Join(filepath.Dir(path), "tasks")
			if _, terr := os.Open(tasksPath); terr != nil && os.IsNotExist(terr) {
				return newErr(KindSubsysNotMounted)
			}
			return newErr(KindNotAllowed)
		}
		return newErr(KindValueNotExist)
	}
	defer f.Close()

	if _, err := f.WriteString(val); err != nil {
		return wrapErr(KindOther, err)
	}
	return nil
}

// statDev returns the device id of path, for comparing whether two
// directories live on the same mounted filesystem.
func statDev(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, err
	}
	return uint64(st.Dev), nil
}

// classifyOpenErr maps an os.Open-style error on a "tasks" pseudo-file to
// the Kind taxonomy used by Attach.
func classifyOpenErr(err error) Kind {
	switch {
	case os.IsPermission(err):
		return KindNotOwner
	case os.IsNotExist(err):
		return KindNotExists
	default:
		return KindNotAllowed
	}
}
