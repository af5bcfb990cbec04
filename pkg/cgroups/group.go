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

// Attribute is a single named control-file value, the basename of a
// pseudo-file under a group directory and the opaque text stored there.
type Attribute struct {
	Name  string
	Value string
}

// Controller is an ordered set of attribute values for a single named
// controller (e.g. "cpu", "memory").
type Controller struct {
	Name   string
	Values []Attribute
}

// Value returns the attribute named n and whether it was found.
func (c *Controller) Value(n string) (string, bool) {
	for _, a := range c.Values {
		if a.Name == n {
			return a.Value, true
		}
	}
	return "", false
}

// Group is the in-memory aggregate of a named cgroup: its slash-delimited
// relative path, its task/admin ownership, and its ordered controllers.
// A Group is owned exclusively by its caller; the Driver never retains a
// reference to one past the call it was passed to.
type Group struct {
	Name string

	TasksUID int
	TasksGID int
	AdminUID int
	AdminGID int

	Controllers []*Controller
}

// NewGroup allocates an empty group for the given relative name.
func NewGroup(name string) *Group {
	return &Group{Name: name}
}

// Controller returns the named controller block, or nil.
func (g *Group) Controller(name string) *Controller {
	for _, c := range g.Controllers {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AddController appends a new, empty Controller block named name. It
// fails with KindControllerExists if one by that name is already present.
func (g *Group) AddController(name string) (*Controller, error) {
	if g.Controller(name) != nil {
		return nil, newErr(KindControllerExists)
	}
	c := &Controller{Name: name}
	g.Controllers = append(g.Controllers, c)
	return c, nil
}

// AddValue appends attribute (name, value) to c. Duplicate names are
// rejected with KindValueExists.
func AddValue(c *Controller, name, value string) error {
	if _, ok := c.Value(name); ok {
		return newErr(KindValueExists)
	}
	c.Values = append(c.Values, Attribute{Name: name, Value: value})
	return nil
}

// CopyControllerValues deep-copies src's name and attributes into dst.
func CopyControllerValues(dst, src *Controller) {
	dst.Name = src.Name
	dst.Values = make([]Attribute, len(src.Values))
	copy(dst.Values, src.Values)
}

// CopyGroup releases dst's controllers and deep-copies each controller
// block from src. Copying a group onto itself is rejected.
func CopyGroup(dst, src *Group) error {
	if dst == src {
		return newErr(KindFail)
	}
	dst.Controllers = make([]*Controller, len(src.Controllers))
	for i, sc := range src.Controllers {
		dc := &Controller{}
		CopyControllerValues(dc, sc)
		dst.Controllers[i] = dc
	}
	return nil
}

// Free releases g's owned storage. Mutating Group Model operations never
// touch the filesystem; they only shape the in-memory object.
func Free(g *Group) {
	if g == nil {
		return
	}
	g.Controllers = nil
}
