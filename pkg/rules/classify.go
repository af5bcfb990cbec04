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

package rules

import (
	"github.com/intel/libcgroup/pkg/cgroups"
)

// UseCache, when passed to ChangeCgroupFlags, makes classification scan
// the cached rule list instead of re-parsing RulesPath.
const UseCache = 1 << 0

// RulesPath is the well-known absolute path of the rules file.
var RulesPath = "/etc/cgrules.conf"

// ChangeCgroup classifies (uid, gid, pid) against the rules file and
// attaches pid accordingly. Equivalent to ChangeCgroupFlags with
// flags = 0.
func ChangeCgroup(uid, gid, pid int) error {
	return ChangeCgroupFlags(uid, gid, pid, 0)
}

// ChangeCgroupFlags classifies (uid, gid, pid) against either the cached
// rule list (flags&UseCache != 0) or a fresh match-mode parse of
// RulesPath, then attaches pid to the destination(s) named by the
// winning rule and its continuations. A failing attach aborts the
// remaining continuations.
func ChangeCgroupFlags(uid, gid, pid, flags int) (err error) {
	defer func() { observeClassify(err) }()

	if !cgroups.IsInitialized() {
		return &cgroups.Error{Kind: cgroups.KindNotInitialized}
	}

	var rule *Rule

	if flags&UseCache != 0 {
		rule = findMatchingRule(Cached.Head(), uid, gid)
		if rule == nil {
			return nil
		}
	} else {
		matched, err := Match(RulesPath, uid, gid)
		if err != nil {
			return err
		}
		if matched == nil {
			return nil
		}
		rule = matched
	}

	for r := rule; r != nil; r = r.Next {
		if r != rule && !r.Continuation {
			break
		}
		if err := attachRule(r, pid); err != nil {
			return err
		}
	}
	return nil
}

// findMatchingRule walks a cached list looking for the first
// non-continuation rule whose principal matches (uid, gid).
func findMatchingRule(head *Rule, uid, gid int) *Rule {
	for r := head; r != nil; r = r.Next {
		if r.Continuation {
			continue
		}
		if matchesWithGroups(r.Principal, uid, gid) {
			return r
		}
	}
	return nil
}

// attachRule builds a transient group from r's destination and
// controller list -- expanding WildcardAll to every currently mounted
// controller, captured at the moment of classification, and otherwise
// taking the rule's controller names verbatim -- and attaches pid to it.
// A named controller that is not mounted is caught by Attach itself,
// which aborts the rule's remaining continuations with
// KindSubsysNotMounted.
func attachRule(r *Rule, pid int) error {
	names := r.Controllers
	if len(names) == 1 && names[0] == WildcardAll {
		names = cgroups.MountedControllers()
	}

	g := cgroups.NewGroup(r.Destination)
	for _, name := range names {
		if _, err := g.AddController(name); err != nil {
			return err
		}
	}

	return cgroups.Attach(g, pid)
}
