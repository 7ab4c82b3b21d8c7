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

	opentracing "github.com/opentracing/opentracing-go"

	"github.com/jtferson/flecs/id"
	"github.com/jtferson/flecs/vars"
	"github.com/jtferson/flecs/vm"
)

// Iterator walks the bindings a compiled Rule finds against a World (C7).
// Each Next call advances to the next satisfying row; GetVar/SetVar read or
// pre-bind a named variable by its current register binding.
type Iterator struct {
	ctx    context.Context
	rule   *Rule
	world  *World
	runner *vm.Runner
	span   opentracing.Span
	done   bool
}

func newIterator(ctx context.Context, rule *Rule, world *World) *Iterator {
	span, spanCtx := opentracing.StartSpanFromContext(ctx, "rules.Rule.Iter")
	return &Iterator{
		ctx:    spanCtx,
		rule:   rule,
		world:  world,
		runner: vm.NewRunner(rule.program, world.Store),
		span:   span,
	}
}

// Next advances to the next satisfying binding, returning false once the
// search space is exhausted.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	if !it.runner.Next() {
		it.done = true
		return false
	}
	return true
}

// Free releases the iterator's tracing span. Iterators hold no other
// resources that need releasing.
func (it *Iterator) Free() {
	if it.span != nil {
		it.span.Finish()
		it.span = nil
	}
}

// GetVar returns the current entity binding of the named variable. Only
// Entity-kind variables carry a concrete id; a Table-kind-only variable
// (one that never appears as a predicate or object) has no single id to
// return and reports ok=false together with ErrUnknownVariable.
func (it *Iterator) GetVar(name string) (id.Id, bool, error) {
	v := it.rule.program.Vars.Find(vars.Entity, name)
	if v == nil {
		return id.None, false, ErrUnknownVariable.New(name)
	}
	reg := it.runner.Var(v.ID)
	return reg.Entity, reg.Bound(), nil
}

// SetVar pre-binds the named variable to e before the first Next call.
// The value is read only by ops that test the variable without producing
// it (With, Not, transitive membership tests); a variable produced by a
// Select, Each, SubSet or SuperSet is overwritten there, so SetVar does not
// narrow it. Calling it after iteration has started has no effect.
func (it *Iterator) SetVar(name string, e id.Id) error {
	v := it.rule.program.Vars.Find(vars.Entity, name)
	if v == nil {
		return ErrUnknownVariable.New(name)
	}
	it.runner.Bind(v.ID, e)
	return nil
}

// Count returns how many entities the current row represents: the size of
// the root variable's table if it is Table-kind, 1 if it is a single bound
// entity, 0 if the rule has no root variable at all (a boolean rule).
func (it *Iterator) Count() int {
	if it.rule.program.ThisVar < 0 {
		return 0
	}
	if it.rule.program.ThisIsTable {
		reg := it.runner.Var(it.rule.program.ThisVar)
		if reg.Table == nil {
			return 0
		}
		return len(it.world.Store.TableEntities(reg.Table))
	}
	reg := it.runner.Var(it.rule.program.ThisVar)
	if !reg.Bound() {
		return 0
	}
	return 1
}

// Entities returns the root variable's current entities: every row of its
// table if Table-kind, or a single-element slice if Entity-kind.
func (it *Iterator) Entities() []id.Id {
	if it.rule.program.ThisVar < 0 {
		return nil
	}
	reg := it.runner.Var(it.rule.program.ThisVar)
	if it.rule.program.ThisIsTable {
		if reg.Table == nil {
			return nil
		}
		return it.world.Store.TableEntities(reg.Table)
	}
	if !reg.Bound() {
		return nil
	}
	return []id.Id{reg.Entity}
}

// Variables returns every distinct variable name the rule declares, in
// register-id order.
func (it *Iterator) Variables() []string {
	all := it.rule.program.Vars.All()
	names := make([]string, len(all))
	for i, v := range all {
		names[i] = v.Name
	}
	return names
}

// Columns returns the matched-column array of the current row, indexed by
// register id, mirroring the original engine's per-row column cache.
func (it *Iterator) Columns() []int { return it.runner.Columns() }

// Subjects returns the current entity binding of every Entity-kind
// variable the rule declares, keyed by name.
func (it *Iterator) Subjects() map[string]id.Id {
	out := make(map[string]id.Id)
	for _, v := range it.rule.program.Vars.All() {
		if v.Kind != vars.Entity {
			continue
		}
		reg := it.runner.Var(v.ID)
		if reg.Bound() {
			out[v.Name] = reg.Entity
		}
	}
	return out
}
