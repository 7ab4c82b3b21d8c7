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

package vm

import (
	"github.com/jtferson/flecs/compile"
	"github.com/jtferson/flecs/id"
	"github.com/jtferson/flecs/store"
	"github.com/jtferson/flecs/term"
)

// Runner is the backtracking interpreter (C6) over one compiled Program. It
// is the suspendable, per-search execution state: a flat instruction
// pointer, a redo flag, one register frame per distinct frame index the
// program uses, and one opCtx per instruction for ops that enumerate
// alternatives (Select, Each, SubSet, SuperSet).
type Runner struct {
	prog *compile.Program
	st   store.Store

	frames    []frame
	ctxs      []opCtx
	ip        int
	redo      bool
	exhausted bool
	started   bool
}

// NewRunner prepares a fresh interpreter over prog against st. Nothing runs
// until the first Next call.
func NewRunner(prog *compile.Program, st store.Store) *Runner {
	maxFrame := 0
	for _, op := range prog.Ops {
		if op.Frame > maxFrame {
			maxFrame = op.Frame
		}
	}
	r := &Runner{
		prog:   prog,
		st:     st,
		frames: make([]frame, maxFrame+1),
		ctxs:   make([]opCtx, len(prog.Ops)),
	}
	n := prog.VarCount()
	for i := range r.frames {
		r.frames[i] = newFrame(n)
	}
	return r
}

// Bind pre-sets register reg to e before the first Next call, letting a
// caller seed a rule variable from the outside (ecs_iter_set_var in the
// original engine). It is a no-op once iteration has started.
//
// The seeded value is only ever consulted by an op that reads a register
// without also re-deriving it (With, Not, and closure tests resolving
// their InReg/TestReg). A register that is itself the OutReg of an
// enumerating op — Select, Each, SubSet, SuperSet — is unconditionally
// overwritten by that op's own first pass, so Bind has no effect on a
// variable whose binding flows entirely through enumeration; it is only
// useful for a variable referenced purely as a predicate/object/test
// operand.
func (r *Runner) Bind(reg int, e id.Id) {
	if r.started || reg < 0 {
		return
	}
	r.frames[0].regs[reg] = Reg{Entity: e, bound: true}
}

// Next advances to the next satisfying binding. It returns false once the
// search space is exhausted; subsequent calls keep returning false.
func (r *Runner) Next() bool {
	if r.exhausted {
		return false
	}
	redo := r.started
	r.started = true

	for {
		op := r.prog.Ops[r.ip]

		if op.Kind == compile.Yield {
			if !redo {
				return true
			}
			r.ip = op.OnFail
			redo = true
			continue
		}

		ok := r.dispatch(&op, redo)
		if ok {
			next := op.OnPass
			if next < 0 {
				r.exhausted = true
				return false
			}
			nextOp := r.prog.Ops[next]
			if nextOp.Frame > op.Frame {
				r.frames[nextOp.Frame] = r.frames[op.Frame].clone()
			}
			r.ip = next
			redo = false
		} else {
			// Only a backward edge asks its target for its next alternative;
			// a forward fail edge (an Optional's SetJmp skipping its block,
			// a closure prelude's SetJmp) enters its target fresh.
			next := op.OnFail
			redo = next <= r.ip
			if next >= 0 && !redo && r.prog.Ops[next].Frame > op.Frame {
				r.frames[r.prog.Ops[next].Frame] = r.frames[op.Frame].clone()
			}
			r.ip = next
		}

		if r.ip < 0 {
			r.exhausted = true
			return false
		}
	}
}

// Var returns the current binding of register reg in the frame the program
// is currently paused at (only meaningful right after Next returns true).
func (r *Runner) Var(reg int) Reg {
	op := r.prog.Ops[r.ip]
	return r.frames[op.Frame].regs[reg]
}

// Columns returns a copy of the matched-column array for the frame the
// program is currently paused at.
func (r *Runner) Columns() []int {
	op := r.prog.Ops[r.ip]
	cols := make([]int, len(r.frames[op.Frame].columns))
	copy(cols, r.frames[op.Frame].columns)
	return cols
}

func (r *Runner) dispatch(op *compile.Op, redo bool) bool {
	ctx := &r.ctxs[r.ip]
	f := &r.frames[op.Frame]

	switch op.Kind {
	case compile.Input:
		// Input's OnFail is always -1, the sole op through which Next
		// reaches ip<0: it must fail on redo, or an exhausted backtrack
		// loops back to OnPass and re-yields the first match forever.
		return !redo

	case compile.Select:
		return r.dispatchSelect(op, ctx, f, redo)

	case compile.Each:
		return r.dispatchEach(op, ctx, f, redo)

	case compile.With:
		if redo {
			return false
		}
		return r.testWith(op, f)

	case compile.Store:
		if redo {
			return true
		}
		val, ok := resolveOperand(op.InReg, op.HasLiteralSubject, op.LiteralSubject, f)
		if !ok {
			return false
		}
		f.regs[op.OutReg] = Reg{Entity: val, bound: true}
		return true

	case compile.SetJmp, compile.Jump:
		return !redo

	case compile.SubSet, compile.SuperSet:
		return r.dispatchClosure(op, ctx, f, redo)

	case compile.Not:
		if op.Marker {
			return !redo
		}
		if redo {
			return false
		}
		e, ok := resolveOperand(op.InReg, op.HasLiteralSubject, op.LiteralSubject, f)
		if !ok {
			return true
		}
		table, _, ok2 := r.st.ResolveEntity(e)
		if !ok2 {
			return true
		}
		mask := reifyMask(op.Pair, *f)
		_, _, found := findColumnFrom(r.st.TableType(table), mask, op.Pair.SameVar, 0)
		return !found

	default:
		return false
	}
}

// dispatchSelect scans the id-record's matching tables, then within each
// table runs find-next-column (§4.6) from the record's reported column,
// advancing past prior matches on redo and skipping columns that fail the
// pair's same-var constraint. A table with no column satisfying same-var is
// passed over entirely, matching the original engine's behavior of only
// ever presenting a subject whose table genuinely satisfies the filter.
func (r *Runner) dispatchSelect(op *compile.Op, ctx *opCtx, f *frame, redo bool) bool {
	// On redo, drop this op's own earlier bindings so the filter is reified
	// from the previous op's registers, exactly as on the first pass.
	if redo {
		*f = r.frames[r.prog.Ops[r.ip-1].Frame].clone()
	}
	mask := reifyMask(op.Pair, *f)
	if !redo {
		ctx.tables = nil
		if rec, ok := r.st.LookupIdRecord(mask); ok {
			ctx.tables = rec.Tables()
		}
		ctx.tIdx = -1
		ctx.col = -1
	}
	if ctx.tIdx < 0 {
		ctx.tIdx = 0
	}

	for ctx.tIdx < len(ctx.tables) {
		tr := ctx.tables[ctx.tIdx]
		start := ctx.col + 1
		if start < tr.Column {
			start = tr.Column
		}
		matched, col, found := findColumnFrom(r.st.TableType(tr.Table), mask, op.Pair.SameVar, start)
		if found {
			ctx.col = col
			f.regs[op.OutReg] = Reg{Table: tr.Table, bound: true}
			f.columns[op.OutReg] = col
			bindWildcards(op.Pair, matched, f)
			return true
		}
		ctx.tIdx++
		ctx.col = -1
	}
	return false
}

func (r *Runner) dispatchEach(op *compile.Op, ctx *opCtx, f *frame, redo bool) bool {
	if !redo {
		ctx.entities = nil
		if reg := f.regs[op.InReg]; reg.bound {
			ctx.entities = r.st.TableEntities(reg.Table)
		}
		ctx.eIdx = -1
	}
	ctx.eIdx++
	if ctx.eIdx >= len(ctx.entities) {
		return false
	}
	f.regs[op.OutReg] = Reg{Entity: ctx.entities[ctx.eIdx], bound: true}
	return true
}

func (r *Runner) testWith(op *compile.Op, f *frame) bool {
	e, ok := resolveOperand(op.InReg, op.HasLiteralSubject, op.LiteralSubject, f)
	if !ok {
		return false
	}
	table, _, ok2 := r.st.ResolveEntity(e)
	if !ok2 {
		return false
	}
	mask := reifyMask(op.Pair, *f)
	matched, _, found := findColumnFrom(r.st.TableType(table), mask, op.Pair.SameVar, 0)
	if !found {
		return false
	}
	bindWildcards(op.Pair, matched, f)
	return true
}

func (r *Runner) dispatchClosure(op *compile.Op, ctx *opCtx, f *frame, redo bool) bool {
	rel := op.Pair.PredLit
	ascending := op.Kind == compile.SuperSet

	if op.OutReg < 0 {
		if redo {
			return false
		}
		known, ok := resolveOperand(op.InReg, op.HasLiteralSubject, op.LiteralSubject, f)
		if !ok {
			return false
		}
		test, ok2 := resolveOperand(op.TestReg, op.HasLiteralTest, op.LiteralTest, f)
		if !ok2 {
			return false
		}
		return transitiveContains(r.st, rel, ascending, op.Pair.Inclusive, known, test)
	}

	// The inclusive prelude (see emitClosureExpand) reaches this op through
	// its SetJmp's forward fail edge, a plain closure through the previous
	// op's pass edge; both arrive with redo=false and (re)start the
	// enumeration from the current known value. A backward edge (redo=true)
	// resumes the pending stack.
	known, ok := resolveOperand(op.InReg, op.HasLiteralSubject, op.LiteralSubject, f)
	if !ok {
		return false
	}
	if !redo || !ctx.started || ctx.seed != known {
		ctx.visited = map[id.Id]bool{known: true}
		ctx.stack = closureNeighbors(r.st, rel, ascending, known)
		ctx.started = true
		ctx.seed = known
	}

	for len(ctx.stack) > 0 {
		next := ctx.stack[len(ctx.stack)-1]
		ctx.stack = ctx.stack[:len(ctx.stack)-1]
		if ctx.visited[next] {
			continue
		}
		ctx.visited[next] = true
		f.regs[op.OutReg] = Reg{Entity: next, bound: true}
		for _, m := range closureNeighbors(r.st, rel, ascending, next) {
			if !ctx.visited[m] {
				ctx.stack = append(ctx.stack, m)
			}
		}
		return true
	}
	return false
}

func closureNeighbors(st store.Store, rel id.Id, ascending bool, e id.Id) []id.Id {
	if ascending {
		return parentsOf(st, e, rel)
	}
	return childrenOf(st, e, rel)
}

func transitiveContains(st store.Store, rel id.Id, ascending, inclusive bool, known, test id.Id) bool {
	if inclusive && known == test {
		return true
	}
	visited := map[id.Id]bool{known: true}
	stack := closureNeighbors(st, rel, ascending, known)
	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[next] {
			continue
		}
		if next == test {
			return true
		}
		visited[next] = true
		stack = append(stack, closureNeighbors(st, rel, ascending, next)...)
	}
	return false
}

func resolveOperand(reg int, hasLit bool, lit term.Operand, f *frame) (id.Id, bool) {
	if hasLit {
		return lit.Lit, true
	}
	if reg < 0 {
		return 0, false
	}
	r := f.regs[reg]
	return r.Entity, r.bound
}

// bindWildcards reifies any still-unbound predicate/object variable in p
// from the concrete id a Select or With just matched against.
func bindWildcards(p term.Pair, matched id.Id, f *frame) {
	if p.PredIsVar && !f.regs[p.PredReg].bound {
		val := matched
		if matched.IsPair() {
			val = matched.Relation()
		}
		f.regs[p.PredReg] = Reg{Entity: val, bound: true}
	}
	if p.HasObject && p.ObjIsVar && !f.regs[p.ObjReg].bound && matched.IsPair() {
		f.regs[p.ObjReg] = Reg{Entity: matched.Object(), bound: true}
	}
}
