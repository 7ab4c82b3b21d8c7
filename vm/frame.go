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

// Package vm is the register/frame model (C5) and backtracking instruction
// interpreter (C6) that execute a compile.Program against a store.Store.
package vm

import (
	"github.com/jtferson/flecs/id"
	"github.com/jtferson/flecs/store"
)

// Reg is one variable's binding: either a Table-kind handle or an
// Entity-kind concrete id, never both meaningfully at once.
type Reg struct {
	Table  store.Table
	Entity id.Id
	bound  bool
}

// Bound reports whether this register currently holds a value.
func (r Reg) Bound() bool { return r.bound }

// frame is one register row: a full snapshot of every variable's current
// binding, plus the matched-column array: the column each Select matched,
// indexed by its output register (exposed by Runner.Columns).
type frame struct {
	regs    []Reg
	columns []int
}

func newFrame(n int) frame {
	f := frame{regs: make([]Reg, n), columns: make([]int, n)}
	for i := range f.columns {
		f.columns[i] = -1
	}
	return f
}

func (f frame) clone() frame {
	nf := frame{regs: make([]Reg, len(f.regs)), columns: make([]int, len(f.columns))}
	copy(nf.regs, f.regs)
	copy(nf.columns, f.columns)
	return nf
}
