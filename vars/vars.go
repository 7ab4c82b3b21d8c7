// Copyright 2024 The Flecs-Go Authors.
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

// Package vars is the rule's variable table (C2): every distinct variable
// by name and kind, its dependency depth, and its occurrence count.
package vars

import (
	"fmt"
	"math"

	goerrors "gopkg.in/src-d/go-errors.v1"
)

// MaxVariables is the hard cap on distinct variables in a single rule.
const MaxVariables = 256

// ErrTooManyVariables is returned by Create once the cap is exceeded.
var ErrTooManyVariables = goerrors.NewKind("too many variables in rule (max %d)")

// Kind classifies what a variable ranges over.
type Kind int

const (
	// Unknown variables haven't yet been constrained to a kind; a later
	// typed lookup promotes them (the "kind upgrade rule").
	Unknown Kind = iota
	// Table variables range over archetypes, used for bulk iteration when
	// a variable appears only as a term's subject.
	Table
	// Entity variables range over individual entities; required whenever
	// a variable appears as a predicate or object, or is bridged from a
	// Table variable by an Each instruction.
	Entity
)

func (k Kind) String() string {
	switch k {
	case Table:
		return "Table"
	case Entity:
		return "Entity"
	default:
		return "Unknown"
	}
}

// Variable is one distinct name in a rule.
type Variable struct {
	ID          int
	Name        string
	Kind        Kind
	Depth       int // dependency depth; math.MaxInt32 means unconstrained
	Occurrences int
	marked      bool // cycle-detection guard used during depth propagation
}

// Unconstrained is the sentinel depth for a variable that hasn't been
// reached from the root via any join.
const Unconstrained = math.MaxInt32

// Table records every distinct variable of a rule.
type Table struct {
	vars     []*Variable
	byName   map[string][]*Variable // a name may have both a Table and Entity variable
	rootName string                 // spelling used by the rule's source expression, "." by default
	anonSeq  int
}

// New returns an empty variable table.
func New() *Table {
	return &Table{byName: make(map[string][]*Variable), rootName: "."}
}

// SetRootName records which spelling ("." or "This") the originating
// expression used for the root variable, for nicer diagnostics.
func (t *Table) SetRootName(name string) {
	if name == "This" || name == "." {
		t.rootName = name
	}
}

// RootName returns whichever spelling was recorded via SetRootName.
func (t *Table) RootName() string { return t.rootName }

func canonicalName(name string) string {
	if name == "This" {
		return "."
	}
	return name
}

// Find looks up an existing variable by exact name and kind. Unknown
// matches any kind. Returns nil if absent.
func (t *Table) Find(kind Kind, name string) *Variable {
	name = canonicalName(name)
	for _, v := range t.byName[name] {
		if kind == Unknown || v.Kind == Unknown || v.Kind == kind {
			return v
		}
	}
	return nil
}

// Ensure returns the variable for (kind, name), creating it if absent, and
// promotes an existing Unknown variable to kind if a typed lookup occurs.
func (t *Table) Ensure(kind Kind, name string) (*Variable, error) {
	name = canonicalName(name)
	if v := t.Find(kind, name); v != nil {
		if kind != Unknown && v.Kind == Unknown {
			v.Kind = kind
		}
		return v, nil
	}
	return t.Create(kind, name)
}

// Create appends a new variable, unconditionally. Anonymous variables
// (name == "") get a synthetic name.
func (t *Table) Create(kind Kind, name string) (*Variable, error) {
	if len(t.vars) >= MaxVariables {
		return nil, ErrTooManyVariables.New(MaxVariables)
	}
	name = canonicalName(name)
	if name == "" {
		t.anonSeq++
		name = fmt.Sprintf("_%d", t.anonSeq)
	}
	v := &Variable{
		ID:    len(t.vars),
		Name:  name,
		Kind:  kind,
		Depth: Unconstrained,
	}
	t.vars = append(t.vars, v)
	t.byName[name] = append(t.byName[name], v)
	return v, nil
}

// All returns every variable in creation order.
func (t *Table) All() []*Variable { return t.vars }

// Count returns the number of distinct variables.
func (t *Table) Count() int { return len(t.vars) }

// Mark sets/clears the cycle-detection guard on v, for use by the
// dependency orderer's depth propagation.
func (v *Variable) Mark(on bool) { v.marked = on }

// Marked reports the cycle-detection guard's current state.
func (v *Variable) Marked() bool { return v.marked }
