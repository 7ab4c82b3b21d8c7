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

package compile

import (
	goerrors "gopkg.in/src-d/go-errors.v1"

	"github.com/jtferson/flecs/id"
	"github.com/jtferson/flecs/order"
	"github.com/jtferson/flecs/store"
	"github.com/jtferson/flecs/term"
	"github.com/jtferson/flecs/vars"
)

// ErrEmptyRule is returned by Emit for a term list with no terms.
var ErrEmptyRule = goerrors.NewKind("rule has no terms")

// ErrAllNotRule is returned by Emit when every term carries the Not
// operator: a rule that can never positively bind anything has no Select
// or With to seed iteration from.
var ErrAllNotRule = goerrors.NewKind("rule cannot only have terms with Not operator")

// IsATrait is the well-known relation used for implicit inheritance
// substitution. Storage-layer code is expected to register it as
// Transitive + TransitiveSelf (reflexive).
var IsATrait = id.NewEntity(1, 0)

// emitter holds the mutable state threaded through a single Emit call.
type emitter struct {
	vt    *vars.Table
	st    store.Store
	ops   []Op
	frame int

	writtenTable  map[int]bool // var id -> its Table-kind register has been produced
	writtenEntity map[int]bool // var id -> its Entity-kind register has been produced
	synthetic     map[int]bool // var id -> introduced by wildcard-subject expansion, not user-named
}

// Emit runs the program emitter (C4) over a normalized term list, producing
// a Program the VM can interpret. expr is retained only for diagnostics.
func Emit(terms []term.Term, expr string, st store.Store) (*Program, error) {
	if len(terms) == 0 {
		return nil, ErrEmptyRule.New()
	}
	allNot := true
	for _, t := range terms {
		if t.Normalized().Operator != term.Not {
			allNot = false
			break
		}
	}
	if allNot {
		return nil, ErrAllNotRule.New()
	}

	vt := vars.New()
	em := &emitter{
		vt:            vt,
		st:            st,
		writtenTable:  make(map[int]bool),
		writtenEntity: make(map[int]bool),
		synthetic:     make(map[int]bool),
	}

	expanded, err := em.expandWildcardSubjects(terms)
	if err != nil {
		return nil, err
	}

	ord, err := order.Compute(expanded, vt)
	if err != nil {
		return nil, err
	}

	pairs := make([]term.Pair, len(expanded))
	for i, t := range expanded {
		p, err := term.ToPair(t, i, vt, st)
		if err != nil {
			return nil, err
		}
		pairs[i] = p
	}

	// ip 0: Input. Redo here (on_fail == -1) terminates the whole search.
	em.ops = append(em.ops, Op{Kind: Input, InReg: -1, OutReg: -1, OnPass: 1, OnFail: -1, Frame: 0, TermIndex: -1})

	if err := em.emitLiteralSubjectBucket(expanded, pairs); err != nil {
		return nil, err
	}
	if err := em.emitSubjectVariableBucket(expanded, pairs, ord, false); err != nil {
		return nil, err
	}
	if err := em.emitSubjectVariableBucket(expanded, pairs, ord, true); err != nil {
		return nil, err
	}
	if err := em.emitNotBucket(expanded, pairs); err != nil {
		return nil, err
	}
	if err := em.emitOptionalBucket(expanded, pairs); err != nil {
		return nil, err
	}
	em.emitEachClosures(ord)
	em.emitYield()

	thisVar, thisIsTable := -1, false
	if v := vt.Find(vars.Entity, term.RootName); v != nil && em.writtenEntity[v.ID] {
		thisVar, thisIsTable = v.ID, false
	} else if v := vt.Find(vars.Table, term.RootName); v != nil && em.writtenTable[v.ID] {
		thisVar, thisIsTable = v.ID, true
	}

	return &Program{
		Ops:         em.ops,
		Vars:        vt,
		ThisVar:     thisVar,
		ThisIsTable: thisIsTable,
		TermCount:   len(terms),
		Expr:        expr,
	}, nil
}

// expandWildcardSubjects rewrites any term whose subject is a literal
// wildcard entity into a fresh anonymous Table variable, so the rest of the
// emitter only ever deals with "subject is a variable" or "subject is a
// concrete entity".
func (em *emitter) expandWildcardSubjects(terms []term.Term) ([]term.Term, error) {
	out := make([]term.Term, len(terms))
	for i, t := range terms {
		nt := t.Normalized()
		if !nt.Subject.IsVar && nt.Subject.Lit.HasAnyWildcard() {
			v, err := em.vt.Create(vars.Table, "")
			if err != nil {
				return nil, err
			}
			em.synthetic[v.ID] = true
			nt.Subject = term.Variable(v.Name)
		}
		out[i] = nt
	}
	return out, nil
}

// append appends op with the standard linear on_pass/on_fail convention
// (forward to the next instruction, backward to the previous one) and
// returns its ip. Callers needing different control flow (transitive
// triplets, Not, Optional) overwrite OnPass/OnFail on the returned ops
// afterward.
func (em *emitter) append(op Op) int {
	ip := len(em.ops)
	op.OnPass = ip + 1
	if ip == 0 {
		op.OnFail = -1
	} else {
		op.OnFail = ip - 1
	}
	em.ops = append(em.ops, op)
	return ip
}

func (em *emitter) entityRegFor(name string) int {
	v, _ := em.vt.Ensure(vars.Entity, name)
	return v.ID
}

// emitLiteralSubjectBucket lowers every And term whose subject is a
// concrete entity (emission bucket 2).
func (em *emitter) emitLiteralSubjectBucket(terms []term.Term, pairs []term.Pair) error {
	for i, t := range terms {
		if t.Subject.IsVar || t.Operator != term.And {
			continue
		}
		em.frame++
		em.emitLiteralTest(i, t, pairs[i], t.Subject)
	}
	return nil
}

// emitSubjectVariableBucket lowers every And term grouped by subject
// variable, in the orderer's sorted sequence. wildcardOnly selects bucket 4
// (wildcard-subject terms, synthetic variables) vs bucket 3 (named subject
// variables).
func (em *emitter) emitSubjectVariableBucket(terms []term.Term, pairs []term.Pair, ord *order.Ordering, wildcardOnly bool) error {
	for _, v := range ord.Sorted {
		if v.Kind != vars.Table {
			continue
		}
		if em.synthetic[v.ID] != wildcardOnly {
			continue
		}
		first := true
		for i, t := range terms {
			if t.Operator != term.And || !t.Subject.IsVar || t.Subject.Var != v.Name {
				continue
			}
			em.frame++
			if first {
				em.emitFirstSubjectOccurrence(i, t, pairs[i], v)
				first = false
			} else {
				entityReg := em.entityRegFor(v.Name)
				em.emitTestAgainstReg(i, pairs[i], entityReg, false, term.Operand{})
			}
		}
	}
	return nil
}

// emitFirstSubjectOccurrence binds a subject variable for the first time.
// Three shapes, depending on the term's transitive sub-case:
//
//   - not transitive, or no object position: a plain Select producing
//     the Table-kind register, immediately bridged to its Entity-kind
//     counterpart via Each.
//   - sub-case 3 (subject unknown, object known): the subject is bound
//     directly to the transitive closure of the known object (a SubSet
//     enumeration into the subject's Entity-kind register), skipping the
//     Table-kind form entirely — a direct Select would only find entities
//     with a literal edge to the object, missing indirect ones.
//   - sub-case 4 (neither known): a Select over any direct edge of the
//     relation binds only the subject (bridged via Each), then SuperSet
//     enumerates the subject's full transitive closure into the object.
func (em *emitter) emitFirstSubjectOccurrence(termIdx int, t term.Term, p term.Pair, subjVar *vars.Variable) {
	if p.Transitive && p.HasObject {
		oKnown := !p.ObjIsVar || em.writtenEntity[p.ObjReg]
		if oKnown {
			entityReg := em.entityRegFor(subjVar.Name)
			if p.ObjIsVar {
				em.emitSubSetExpand(termIdx, p, p.ObjReg, false, term.Operand{}, entityReg)
			} else {
				em.emitSubSetExpand(termIdx, p, -1, true, term.Literal(p.ObjLit), entityReg)
			}
			em.writtenEntity[entityReg] = true
			return
		}

		// Sub-case 4: neither side known. Select subjects with any direct
		// edge, then enumerate each subject's closure into the object.
		selectPair := p
		selectPair.ObjLit = id.Wildcard
		selectPair.ObjIsVar = false
		em.append(Op{Kind: Select, Pair: selectPair, InReg: -1, OutReg: subjVar.ID, Frame: em.frame, TermIndex: termIdx})
		em.writtenTable[subjVar.ID] = true

		entityReg := em.entityRegFor(subjVar.Name)
		em.append(Op{Kind: Each, InReg: subjVar.ID, OutReg: entityReg, Frame: em.frame, TermIndex: -1})
		em.writtenEntity[entityReg] = true

		em.emitSuperSetExpand(termIdx, p, entityReg, false, term.Operand{}, p.ObjReg)
		em.writtenEntity[p.ObjReg] = true
		return
	}

	em.append(Op{Kind: Select, Pair: p, InReg: -1, OutReg: subjVar.ID, Frame: em.frame, TermIndex: termIdx})
	em.writtenTable[subjVar.ID] = true

	entityReg := em.entityRegFor(subjVar.Name)
	em.append(Op{Kind: Each, InReg: subjVar.ID, OutReg: entityReg, Frame: em.frame, TermIndex: -1})
	em.writtenEntity[entityReg] = true
}

// emitLiteralTest lowers a term whose subject is a concrete entity into a
// presence test against that entity, with an implicit IsA fallback when the
// entity does not directly carry the requested id: the emitter queries the
// store (the subject is concrete, so this is knowable now) and, if absent,
// substitutes a SuperSet along IsA before retrying the test against each
// ancestor.
func (em *emitter) emitLiteralTest(termIdx int, t term.Term, p term.Pair, subj term.Operand) {
	if em.st != nil && !subj.Lit.HasAnyWildcard() {
		if table, _, ok := em.st.ResolveEntity(subj.Lit); ok {
			if !containsMask(em.st.TableType(table), p.Mask()) {
				em.emitIsAFallback(termIdx, p, subj)
				return
			}
		}
	}
	em.emitTestAgainstReg(termIdx, p, -1, true, subj)
}

func containsMask(tableType []id.Id, mask id.Id) bool {
	for _, tid := range tableType {
		if mask.Matches(tid) {
			return true
		}
	}
	return false
}

// emitIsAFallback expands subj along IsA and retries p against each
// ancestor, succeeding if any ancestor carries p.
func (em *emitter) emitIsAFallback(termIdx int, p term.Pair, subj term.Operand) {
	anon, _ := em.vt.Create(vars.Entity, "")
	em.synthetic[anon.ID] = true
	isaPair := term.Pair{HasObject: false, PredLit: IsATrait, Transitive: true, Inclusive: false, TermIndex: termIdx}

	em.emitSuperSetExpand(termIdx, isaPair, -1, true, subj, anon.ID)
	em.writtenEntity[anon.ID] = true

	em.emitTestAgainstReg(termIdx, p, anon.ID, false, term.Operand{})
}

// emitTestAgainstReg lowers a term whose subject is already bound (an
// entity register or a concrete literal). Three shapes:
//
//   - not transitive, or no object: a plain presence test (With).
//   - transitive, object already known too (sub-case 1, both known): a
//     transitive membership test (SubSet in test mode).
//   - transitive, object unknown (sub-case 2, subject known/object
//     unknown): the object is bound by enumerating the subject's full
//     transitive closure (SuperSet), not tested by With.
func (em *emitter) emitTestAgainstReg(termIdx int, p term.Pair, subjReg int, hasLitSubj bool, litSubj term.Operand) {
	if p.Transitive && p.HasObject {
		oKnown := !p.ObjIsVar || em.writtenEntity[p.ObjReg]
		if oKnown {
			op := Op{
				Kind: SubSet, Pair: p, OutReg: -1, InReg: -1,
				TestReg: subjReg, HasLiteralTest: hasLitSubj, LiteralTest: litSubj,
				Frame: em.frame, TermIndex: termIdx,
			}
			if p.ObjIsVar {
				op.InReg = p.ObjReg
			} else {
				op.HasLiteralSubject = true
				op.LiteralSubject = term.Literal(p.ObjLit)
			}
			em.append(op)
			return
		}
		em.emitSuperSetExpand(termIdx, p, subjReg, hasLitSubj, litSubj, p.ObjReg)
		em.writtenEntity[p.ObjReg] = true
		return
	}
	op := Op{Kind: With, Pair: p, InReg: subjReg, OutReg: -1, Frame: em.frame, TermIndex: termIdx}
	if hasLitSubj {
		op.HasLiteralSubject = true
		op.LiteralSubject = litSubj
	}
	em.append(op)
}

// emitSuperSetExpand enumerates the transitive closure (ancestors or, via
// the inclusive prelude, ancestors-plus-self) of a known subject into
// objReg. Used both for transitive sub-case 2 (subject known, object
// unknown) and to finish sub-case 4 (neither known, after a direct Select
// has bound the subject).
func (em *emitter) emitSuperSetExpand(termIdx int, p term.Pair, subjReg int, hasLitSubj bool, litSubj term.Operand, objReg int) {
	em.emitClosureExpand(SuperSet, termIdx, p, subjReg, hasLitSubj, litSubj, objReg)
}

// emitSubSetExpand is the symmetric case: subject unknown, object known
// (transitive sub-case 3). It enumerates descendants of the known object
// into subjReg.
func (em *emitter) emitSubSetExpand(termIdx int, p term.Pair, knownReg int, hasLitKnown bool, litKnown term.Operand, outReg int) {
	em.emitClosureExpand(SubSet, termIdx, p, knownReg, hasLitKnown, litKnown, outReg)
}

// emitClosureExpand emits a transitive closure enumeration, optionally
// preceded by a Store/SetJmp inclusive prelude that yields the reflexive
// self-pair once before falling through to strict closure enumeration.
func (em *emitter) emitClosureExpand(kind Kind, termIdx int, p term.Pair, knownReg int, hasLitKnown bool, litKnown term.Operand, outReg int) {
	prevIP := len(em.ops) - 1

	if !p.Inclusive {
		op := Op{Kind: kind, Pair: p, OutReg: outReg, Frame: em.frame, TermIndex: termIdx}
		if hasLitKnown {
			op.HasLiteralSubject, op.LiteralSubject = true, litKnown
		} else {
			op.InReg = knownReg
		}
		em.append(op)
		return
	}

	storeIP := len(em.ops)
	storeOp := Op{Kind: Store, OutReg: outReg, Frame: em.frame, TermIndex: termIdx}
	if hasLitKnown {
		storeOp.HasLiteralSubject, storeOp.LiteralSubject = true, litKnown
	} else {
		storeOp.InReg = knownReg
	}
	em.ops = append(em.ops, storeOp)

	jmpIP := storeIP + 1
	em.ops = append(em.ops, Op{Kind: SetJmp, Frame: em.frame, TermIndex: -1, SetJmpSlot: jmpIP})

	closureIP := jmpIP + 1
	closureOp := Op{Kind: kind, Pair: p, OutReg: outReg, Frame: em.frame, TermIndex: termIdx}
	if hasLitKnown {
		closureOp.HasLiteralSubject, closureOp.LiteralSubject = true, litKnown
	} else {
		closureOp.InReg = knownReg
	}
	em.ops = append(em.ops, closureOp)

	afterIP := closureIP + 1 // the next op appended by the caller

	em.ops[storeIP].OnPass = jmpIP
	em.ops[storeIP].OnFail = prevIP
	em.ops[jmpIP].OnPass = afterIP
	em.ops[jmpIP].OnFail = closureIP
	em.ops[closureIP].OnPass = afterIP
	em.ops[closureIP].OnFail = prevIP
}

// emitNotBucket lowers every Not term (bucket 5). The dependency orderer
// guarantees every variable a Not term references is already bound, so the
// wrapped sub-program is always a single presence test; that test is folded
// into the leading Not op itself (its result is inverted) rather than
// emitted as a separate With between two Not markers, and the trailing Not
// op is kept purely as a structural marker so the disassembly still shows
// the paired leading/trailing shape.
func (em *emitter) emitNotBucket(terms []term.Term, pairs []term.Pair) error {
	for i, t := range terms {
		if t.Operator != term.Not {
			continue
		}
		subjReg, hasLit, lit := em.resolveBoundSubject(t.Subject)

		leadIP := len(em.ops)
		lead := Op{Kind: Not, Pair: pairs[i], InReg: subjReg, Frame: em.frame, TermIndex: i}
		if hasLit {
			lead.HasLiteralSubject, lead.LiteralSubject = true, lit
		}
		em.ops = append(em.ops, lead)

		trailIP := leadIP + 1
		em.ops = append(em.ops, Op{Kind: Not, InReg: -1, OutReg: -1, Frame: em.frame, TermIndex: i, Marker: true})

		afterIP := trailIP + 1
		em.ops[leadIP].OnPass = trailIP // not present: succeed, fall through
		em.ops[leadIP].OnFail = leadIP - 1
		em.ops[trailIP].OnPass = afterIP
		em.ops[trailIP].OnFail = leadIP - 1
	}
	return nil
}

// emitOptionalBucket lowers every Optional term (bucket 6) last. Each
// optional body executes at most once per outer match: a SetJmp/Jump pair
// ensures that once the wrapped test has run (regardless of outcome), a
// later backtrack into this point skips straight past the block instead of
// retrying it or eliminating the whole row on failure.
//
// The body is always a single With, also for a transitive predicate: an
// optional transitive term matches direct edges only, and when none
// matches, its object variable stays unbound for that row.
func (em *emitter) emitOptionalBucket(terms []term.Term, pairs []term.Pair) error {
	for i, t := range terms {
		if t.Operator != term.Optional {
			continue
		}
		subjReg, hasLit, lit := em.resolveBoundSubject(t.Subject)

		setjmpIP := len(em.ops)
		em.ops = append(em.ops, Op{Kind: SetJmp, InReg: -1, OutReg: -1, Frame: em.frame, TermIndex: -1, SetJmpSlot: setjmpIP})
		em.frame++

		bodyIP := setjmpIP + 1
		body := Op{Kind: With, Pair: pairs[i], InReg: subjReg, Frame: em.frame, TermIndex: i}
		if hasLit {
			body.HasLiteralSubject, body.LiteralSubject = true, lit
		}
		em.ops = append(em.ops, body)

		jumpIP := bodyIP + 1
		em.ops = append(em.ops, Op{Kind: Jump, InReg: -1, OutReg: -1, Frame: em.frame, TermIndex: -1, SetJmpSlot: setjmpIP})

		afterIP := jumpIP + 1
		em.ops[setjmpIP].OnPass = bodyIP
		em.ops[setjmpIP].OnFail = afterIP
		em.ops[bodyIP].OnPass = jumpIP
		em.ops[bodyIP].OnFail = setjmpIP
		em.ops[jumpIP].OnPass = afterIP
		em.ops[jumpIP].OnFail = setjmpIP - 1

		if t.HasObject && t.Object.IsVar {
			em.writtenEntity[em.entityRegFor(t.Object.Var)] = true
		}
	}
	return nil
}

// resolveBoundSubject returns the register/literal form of a Not or
// Optional term's subject, which by this point in emission is always
// already bound.
func (em *emitter) resolveBoundSubject(subj term.Operand) (reg int, hasLit bool, lit term.Operand) {
	if !subj.IsVar {
		return -1, true, subj
	}
	if v := em.vt.Find(vars.Entity, subj.Var); v != nil {
		return v.ID, false, term.Operand{}
	}
	return -1, true, subj
}

// emitEachClosures is bucket 7: any Entity-kind variable whose Table-kind
// counterpart has been written but whose own Each bridge was, for whatever
// reason, not emitted alongside it yet. The common path (subjects bridged
// immediately on first occurrence) leaves this bucket empty; it exists for
// dual-kind variables introduced only via a later closure pass.
func (em *emitter) emitEachClosures(ord *order.Ordering) {
	for _, v := range ord.Sorted {
		if v.Kind != vars.Entity || em.writtenEntity[v.ID] {
			continue
		}
		tv := em.vt.Find(vars.Table, v.Name)
		if tv == nil || !em.writtenTable[tv.ID] {
			continue
		}
		em.frame++
		em.append(Op{Kind: Each, InReg: tv.ID, OutReg: v.ID, Frame: em.frame, TermIndex: -1})
		em.writtenEntity[v.ID] = true
	}
}

func (em *emitter) emitYield() {
	em.frame++
	ip := len(em.ops)
	em.ops = append(em.ops, Op{Kind: Yield, InReg: -1, OutReg: -1, OnPass: -2, OnFail: ip - 1, Frame: em.frame, TermIndex: -1})
}
