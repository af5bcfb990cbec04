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
	"testing"

	"github.com/intel/libcgroup/pkg/platform/idxset"
)

// withMountTable swaps the process-wide Mount Table for the duration of
// a test, restoring the previous one on cleanup.
func withMountTable(t *testing.T, mounts map[string]string) {
	t.Helper()
	prev := defaultMountTable

	table := &MountTable{used: idxset.NewDenseSet(), initialized: true}
	i := 0
	for name, path := range mounts {
		table.entries[i] = mountEntry{controller: name, path: path}
		table.used.Add(i)
		i++
	}
	defaultMountTable = table

	t.Cleanup(func() { defaultMountTable = prev })
}

func TestOperationsRejectUninitializedMountTable(t *testing.T) {
	prev := defaultMountTable
	defaultMountTable = &MountTable{used: idxset.NewDenseSet()}
	t.Cleanup(func() { defaultMountTable = prev })

	g := NewGroup("demo")
	g.AddController("cpu")

	for name, err := range map[string]error{
		"Create": Create(g, true),
		"Modify": Modify(g),
		"Read":   Read(NewGroup("demo")),
		"Delete": Delete(g, true),
		"Attach": Attach(g, 1),
	} {
		if KindOf(err) != KindNotInitialized {
			t.Errorf("%s: expected KindNotInitialized, got %v", name, err)
		}
	}

	if _, err := FindParent("demo"); KindOf(err) != KindNotInitialized {
		t.Errorf("FindParent: expected KindNotInitialized, got %v", err)
	}
	if err := CreateFromParent(g, true); KindOf(err) != KindNotInitialized {
		t.Errorf("CreateFromParent: expected KindNotInitialized, got %v", err)
	}
	if _, err := GetCurrentControllerPath(1, "cpu"); KindOf(err) != KindNotInitialized {
		t.Errorf("GetCurrentControllerPath: expected KindNotInitialized, got %v", err)
	}
	if err := AttachCurrent(g); KindOf(err) != KindNotInitialized {
		t.Errorf("AttachCurrent: expected KindNotInitialized, got %v", err)
	}
}

func TestCreateWritesAttributeAndDirectory(t *testing.T) {
	root := t.TempDir()
	withMountTable(t, map[string]string{"cpu": filepath.Join(root, "cpu")})
	if err := os.MkdirAll(filepath.Join(root, "cpu"), 0775); err != nil {
		t.Fatal(err)
	}

	g := NewGroup("demo")
	c, err := g.AddController("cpu")
	if err != nil {
		t.Fatalf("AddController: %v", err)
	}
	if err := AddValue(c, "cpu.shares", "512"); err != nil {
		t.Fatalf("AddValue: %v", err)
	}

	if err := Create(g, true); err != nil {
		t.Fatalf("Create: %v", err)
	}

	groupDir := filepath.Join(root, "cpu", "demo")
	if info, err := os.Stat(groupDir); err != nil || !info.IsDir() {
		t.Fatalf("expected group dir to exist, got err=%v", err)
	}

	data, err := os.ReadFile(filepath.Join(groupDir, "cpu.shares"))
	if err != nil {
		t.Fatalf("reading cpu.shares: %v", err)
	}
	if strings.TrimSpace(string(data)) != "512" {
		t.Errorf("expected cpu.shares content %q, got %q", "512", string(data))
	}
}

func TestCreateIdempotent(t *testing.T) {
	root := t.TempDir()
	withMountTable(t, map[string]string{"cpu": filepath.Join(root, "cpu")})
	if err := os.MkdirAll(filepath.Join(root, "cpu"), 0775); err != nil {
		t.Fatal(err)
	}

	g := NewGroup("demo")
	c, _ := g.AddController("cpu")
	AddValue(c, "cpu.shares", "512")

	if err := Create(g, true); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if err := Create(g, true); err != nil {
		t.Fatalf("second Create: %v", err)
	}
}

func TestAttachAndReadTasks(t *testing.T) {
	root := t.TempDir()
	groupDir := filepath.Join(root, "cpu", "demo")
	if err := os.MkdirAll(groupDir, 0775); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(groupDir, "tasks"), nil, 0664); err != nil {
		t.Fatal(err)
	}
	withMountTable(t, map[string]string{"cpu": filepath.Join(root, "cpu")})

	g := NewGroup("demo")
	g.AddController("cpu")

	if err := Attach(g, 12345); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(groupDir, "tasks"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "12345") {
		t.Errorf("expected tasks file to contain 12345, got %q", string(data))
	}
}

func TestDeleteMigratesTasksThenRemoves(t *testing.T) {
	root := t.TempDir()
	parentDir := filepath.Join(root, "cpu")
	groupDir := filepath.Join(parentDir, "demo")
	if err := os.MkdirAll(groupDir, 0775); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(parentDir, "tasks"), nil, 0664); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(groupDir, "tasks"), []byte("999\n"), 0664); err != nil {
		t.Fatal(err)
	}
	withMountTable(t, map[string]string{"cpu": parentDir})

	g := NewGroup("demo")
	g.AddController("cpu")

	if err := Delete(g, false); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := os.Stat(groupDir); !os.IsNotExist(err) {
		t.Errorf("expected group dir to be removed, stat err=%v", err)
	}
	data, err := os.ReadFile(filepath.Join(parentDir, "tasks"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "999") {
		t.Errorf("expected parent tasks to contain migrated pid 999, got %q", string(data))
	}
}

func TestModifyMissingValueNotExist(t *testing.T) {
	root := t.TempDir()
	withMountTable(t, map[string]string{"cpu": filepath.Join(root, "cpu")})
	if err := os.MkdirAll(filepath.Join(root, "cpu", "demo"), 0775); err != nil {
		t.Fatal(err)
	}

	g := NewGroup("demo")
	c, _ := g.AddController("cpu")
	AddValue(c, "cpu.shares", "512")

	err := Modify(g)
	if KindOf(err) != KindValueNotExist {
		t.Fatalf("expected KindValueNotExist for a nonexistent attribute file, got %v", err)
	}
}
