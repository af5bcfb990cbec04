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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddControllerRejectsDuplicate(t *testing.T) {
	g := NewGroup("/foo")
	if _, err := g.AddController("cpu"); err != nil {
		t.Fatalf("AddController: %v", err)
	}
	if _, err := g.AddController("cpu"); KindOf(err) != KindControllerExists {
		t.Fatalf("expected KindControllerExists, got %v", err)
	}
}

func TestAddValueRejectsDuplicate(t *testing.T) {
	g := NewGroup("/foo")
	c, _ := g.AddController("cpu")
	if err := AddValue(c, "cpu.shares", "512"); err != nil {
		t.Fatalf("AddValue: %v", err)
	}
	if err := AddValue(c, "cpu.shares", "1024"); KindOf(err) != KindValueExists {
		t.Fatalf("expected KindValueExists, got %v", err)
	}
	if v, ok := c.Value("cpu.shares"); !ok || v != "512" {
		t.Fatalf("expected unmodified value 512, got %q, %v", v, ok)
	}
}

func TestControllerLookupMissing(t *testing.T) {
	g := NewGroup("/foo")
	if g.Controller("cpu") != nil {
		t.Fatalf("expected nil for an unregistered controller")
	}
}

func TestCopyGroupDeepCopiesControllers(t *testing.T) {
	src := NewGroup("/src")
	c, _ := src.AddController("memory")
	_ = AddValue(c, "memory.limit_in_bytes", "1048576")

	dst := NewGroup("/dst")
	if err := CopyGroup(dst, src); err != nil {
		t.Fatalf("CopyGroup: %v", err)
	}

	want := []*Controller{{Name: "memory", Values: []Attribute{{Name: "memory.limit_in_bytes", Value: "1048576"}}}}
	if diff := cmp.Diff(want, dst.Controllers); diff != "" {
		t.Fatalf("unexpected copied controllers (-want +got):\n%s", diff)
	}

	// mutating the source after the copy must not affect dst.
	_ = AddValue(c, "memory.swappiness", "60")
	if len(dst.Controllers[0].Values) != 1 {
		t.Fatalf("expected copy to be independent of later mutations to src")
	}
}

func TestCopyGroupRejectsSelfCopy(t *testing.T) {
	g := NewGroup("/foo")
	if err := CopyGroup(g, g); KindOf(err) != KindFail {
		t.Fatalf("expected KindFail copying a group onto itself, got %v", err)
	}
}

func TestFreeReleasesControllers(t *testing.T) {
	g := NewGroup("/foo")
	_, _ = g.AddController("cpu")
	Free(g)
	if g.Controllers != nil {
		t.Fatalf("expected Free to clear Controllers")
	}
	Free(nil)
}
