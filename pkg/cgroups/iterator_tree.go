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
)

// FileType classifies a tree-walk entry.
type FileType int

const (
	// FileTypeOther covers anything that is not a plain directory or
	// regular file (symlinks left unresolved, device nodes, errors).
	FileTypeOther FileType = iota
	FileTypeDir
	FileTypeFile
)

// TreeEntry is one record yielded by a TreeIterator: a single visited
// path within the walk, with its logical depth relative to the root.
type TreeEntry struct {
	Name     string
	Parent   string
	FullPath string
	Depth    int
	Type     FileType

	// Err carries the underlying OS error for an entry that could not
	// be stat'd or read; the walk continues past it rather than
	// aborting.
	Err error
}

// TreeIterator is a depth-limited, symlink-following (logical) walk of a
// controller's group subtree. It never chdirs; every entry is lstat'd,
// and a symlink is additionally stat'd to follow it.
type TreeIterator struct {
	maxDepth  int
	baseLevel int
	stack     []walkFrame
	done      bool
}

type walkFrame struct {
	path   string
	parent string
	depth  int
}

// BeginTree opens a tree walk rooted at (controller, basePath). If
// maxDepth > 0, entries strictly beyond the root's depth plus maxDepth
// are suppressed: the walk does not descend into directories at that
// depth, so those entries are never yielded. Next returns KindEOF once
// every entry within the bound has been visited.
func BeginTree(controller, basePath string, maxDepth int) (*TreeIterator, error) {
	root, err := controllerPath(basePath, controller)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(root); err != nil {
		return nil, newErr(KindOther)
	}

	it := &TreeIterator{
		maxDepth: maxDepth,
		stack: []walkFrame{{
			path:   root,
			parent: filepath.Dir(root),
			depth:  0,
		}},
	}
	if maxDepth > 0 {
		it.baseLevel = maxDepth
	}
	return it, nil
}

// Next advances the walk and returns the next entry. It returns
// KindEOF when the walk is exhausted.
func (it *TreeIterator) Next() (*TreeEntry, error) {
	if it.done {
		return nil, newErr(KindEOF)
	}
	if len(it.stack) == 0 {
		it.done = true
		return nil, newErr(KindEOF)
	}

	frame := it.stack[0]
	it.stack = it.stack[1:]

	entry := &TreeEntry{
		Name:     filepath.Base(frame.path),
		Parent:   filepath.Base(frame.parent),
		FullPath: frame.path,
		Depth:    frame.depth,
		Type:     FileTypeOther,
	}

	info, err := os.Lstat(frame.path)
	if err != nil {
		entry.Err = err
		return entry, nil
	}

	resolved := info
	if info.Mode()&os.ModeSymlink != 0 {
		if real, err := os.Stat(frame.path); err == nil {
			resolved = real
		}
	}

	switch {
	case resolved.IsDir():
		entry.Type = FileTypeDir
		if it.maxDepth <= 0 || frame.depth < it.baseLevel {
			children, err := os.ReadDir(frame.path)
			if err != nil {
				entry.Err = err
				break
			}
			for _, c := range children {
				it.stack = append(it.stack, walkFrame{
					path:   filepath.Join(frame.path, c.Name()),
					parent: frame.path,
					depth:  frame.depth + 1,
				})
			}
		}
	case resolved.Mode().IsRegular():
		entry.Type = FileTypeFile
	}

	return entry, nil
}

// End releases the iterator, marking it exhausted. The in-memory walk
// holds no OS handles, so there is nothing to close.
func (it *TreeIterator) End() error {
	it.done = true
	it.stack = nil
	return nil
}
