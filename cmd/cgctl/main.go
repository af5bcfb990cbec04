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

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/intel/libcgroup/pkg/cgroups"
	"github.com/intel/libcgroup/pkg/rules"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: cgctl <command> [args...]\n\n"+
		"commands:\n"+
		"  mounts                                   list mounted controllers\n"+
		"  create <group> <controller>[,...]        create a group under the given controllers\n"+
		"  delete <group> <controller>               delete a group, migrating its tasks to the parent\n"+
		"  attach <group> <controller> <pid>         attach pid to a group\n"+
		"  tasks  <group> <controller>               list the pids attached to a group\n"+
		"  stat   <group> <controller>               dump a group's <controller>.stat file\n"+
		"  classify <uid> <gid> <pid> [rulesfile]     classify (uid, gid, pid) against a rules file\n")
}

func main() {
	if err := cgroups.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "cgctl: warning: mount table discovery failed: %v\n", err)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "mounts":
		err = cmdMounts()
	case "create":
		err = cmdCreate(os.Args[2:])
	case "delete":
		err = cmdDelete(os.Args[2:])
	case "attach":
		err = cmdAttach(os.Args[2:])
	case "tasks":
		err = cmdTasks(os.Args[2:])
	case "stat":
		err = cmdStat(os.Args[2:])
	case "classify":
		err = cmdClassify(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "cgctl: %v\n", err)
		os.Exit(1)
	}
}

func cmdMounts() error {
	for _, name := range cgroups.MountedControllers() {
		path, _ := cgroups.GetMountPath(name)
		fmt.Printf("%-12s %s\n", name, path)
	}
	return nil
}

func cmdCreate(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: create <group> <controller>[,...]")
	}
	g := cgroups.NewGroup(args[0])
	for _, name := range strings.Split(args[1], ",") {
		if _, err := g.AddController(name); err != nil {
			return err
		}
	}
	return cgroups.Create(g, false)
}

func cmdDelete(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: delete <group> <controller>")
	}
	g := cgroups.NewGroup(args[0])
	if _, err := g.AddController(args[1]); err != nil {
		return err
	}
	return cgroups.Delete(g, true)
}

func cmdAttach(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: attach <group> <controller> <pid>")
	}
	pid, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid pid %q: %v", args[2], err)
	}
	g := cgroups.NewGroup(args[0])
	if _, err := g.AddController(args[1]); err != nil {
		return err
	}
	return cgroups.Attach(g, pid)
}

func cmdTasks(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: tasks <group> <controller>")
	}
	it, err := cgroups.BeginTasks(args[0], args[1])
	if err != nil {
		return err
	}
	defer it.End()

	for {
		pid, err := it.Next()
		if err != nil {
			if cgroups.KindOf(err) == cgroups.KindEOF {
				return nil
			}
			return err
		}
		fmt.Println(pid)
	}
}

func cmdStat(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: stat <group> <controller>")
	}
	it, err := cgroups.BeginStats(args[0], args[1])
	if err != nil {
		return err
	}
	defer it.End()

	for {
		s, err := it.Next()
		if err != nil {
			if cgroups.KindOf(err) == cgroups.KindEOF {
				return nil
			}
			return err
		}
		fmt.Printf("%s = %s\n", s.Name, s.Value)
	}
}

func cmdClassify(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: classify <uid> <gid> <pid> [rulesfile]")
	}
	uid, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid uid %q: %v", args[0], err)
	}
	gid, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid gid %q: %v", args[1], err)
	}
	pid, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid pid %q: %v", args[2], err)
	}

	if len(args) == 4 {
		rules.RulesPath = args[3]
	}
	return rules.ChangeCgroup(uid, gid, pid)
}
