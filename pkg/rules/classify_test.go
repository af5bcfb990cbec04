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
	"testing"

	"github.com/intel/libcgroup/pkg/cgroups"
)

func TestChangeCgroupFlagsRejectsUninitializedMountTable(t *testing.T) {
	if cgroups.IsInitialized() {
		t.Skip("mount table unexpectedly initialized in this process")
	}
	if err := ChangeCgroupFlags(0, 0, 1, UseCache); cgroups.KindOf(err) != cgroups.KindNotInitialized {
		t.Errorf("expected KindNotInitialized, got %v", err)
	}
}

func TestFindMatchingRulePrefersEarlierEntry(t *testing.T) {
	wild := &Rule{Principal: Principal{UID: invalidID, GID: invalidID, Wildcard: true}, Destination: "/wild"}
	alice := &Rule{Principal: Principal{UID: 1000, GID: invalidID, RawName: "alice"}, Destination: "/alice"}
	wild.Next = alice

	if got := findMatchingRule(wild, 1000, 1000); got != wild {
		t.Errorf("expected the earlier wildcard rule to win, got %+v", got)
	}

	alice.Next = nil
	wild2 := &Rule{Principal: Principal{UID: invalidID, GID: invalidID, Wildcard: true}, Destination: "/wild"}
	alice.Next = wild2
	if got := findMatchingRule(alice, 1000, 1000); got != alice {
		t.Errorf("expected the user-specific rule to win when listed first, got %+v", got)
	}
}

func TestFindMatchingRuleSkipsContinuations(t *testing.T) {
	alice := &Rule{Principal: Principal{UID: 1000, GID: invalidID}, Destination: "/g1"}
	cont := &Rule{Principal: alice.Principal, Destination: "/g2", Continuation: true}
	alice.Next = cont

	if got := findMatchingRule(alice, 999, 999); got != nil {
		t.Errorf("expected no match for an unrelated uid, got %+v", got)
	}
	if got := findMatchingRule(alice, 1000, 1000); got != alice {
		t.Errorf("expected alice's rule to match directly, not its continuation, got %+v", got)
	}
}

func TestPrincipalMatchesWildcard(t *testing.T) {
	p := Principal{UID: invalidID, GID: invalidID, Wildcard: true}
	if !p.Matches(0, 0) || !p.Matches(12345, 12345) {
		t.Errorf("expected wildcard principal to match any uid/gid")
	}
}

func TestPrincipalMatchesUID(t *testing.T) {
	p := Principal{UID: 42, GID: invalidID}
	if !p.Matches(42, 0) {
		t.Errorf("expected uid match")
	}
	if p.Matches(43, 0) {
		t.Errorf("expected uid mismatch to fail")
	}
}
