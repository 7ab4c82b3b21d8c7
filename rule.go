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

package rules

import (
	"context"

	"github.com/jtferson/flecs/compile"
	"github.com/jtferson/flecs/term"
)

// Rule is a compiled term list, ready to be iterated against any World
// whose Store the terms were compiled against.
type Rule struct {
	program *compile.Program
	terms   []term.Term
}

// VarCount returns the number of distinct variables the rule declares.
func (r *Rule) VarCount() int { return r.program.VarCount() }

// OpCount returns the number of instructions the rule compiled to.
func (r *Rule) OpCount() int { return r.program.OpCount() }

// VarName returns the name of the variable with the given register id, or
// "" if id is out of range.
func (r *Rule) VarName(id int) string { return r.program.VarName(id) }

// Disassemble renders the rule's compiled program in the §6 debug format.
func (r *Rule) Disassemble() string { return r.program.Disassemble() }

// TermCount returns the number of source terms the rule was compiled from.
func (r *Rule) TermCount() int { return r.program.TermCount }

// Iter opens a fresh iterator over the rule against world.
func (r *Rule) Iter(ctx context.Context, world *World) *Iterator {
	return newIterator(ctx, r, world)
}
