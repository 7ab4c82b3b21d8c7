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

// Package order implements the dependency orderer (C3): it elects a root
// variable, computes join depths, and sorts variables so the most
// constrained / least dependent variable is resolved first.
package order

import (
	"sort"

	goerrors "gopkg.in/src-d/go-errors.v1"

	"github.com/jtferson/flecs/term"
	"github.com/jtferson/flecs/vars"
)

// ErrUnconstrainedVariable is raised when a variable can't be reached from
// the elected root via any join.
var ErrUnconstrainedVariable = goerrors.NewKind("unconstrained variable '%s'")

// ErrMissingNotVariable is raised when a Not term references a variable
// that no other term introduces.
var ErrMissingNotVariable = goerrors.NewKind("missing predicate/object variable '%s' in Not term")

// ErrMalformedTerm covers structurally invalid terms, including a Not term
// whose predicate/object is a bare wildcard rather than a variable (a
// wildcard can never be "already bound", so it has no legal meaning inside
// a negation — mirrors the original engine's rejection of this case).
var ErrMalformedTerm = goerrors.NewKind("malformed term: %s")

// Ordering is the result of C3: the elected root and the full variable
// list in tie-break sorted (emission) order.
type Ordering struct {
	Root   *vars.Variable // nil if the rule has no root (a boolean rule)
	Sorted []*vars.Variable
}

func touch(v *vars.Variable) { v.Occurrences++ }

// Compute runs the four-pass dependency ordering over terms, populating vt
// with every variable the terms reference (subjects as Table-kind,
// predicate/object as Entity-kind) and their dependency depths.
func Compute(terms []term.Term, vt *vars.Table) (*Ordering, error) {
	norm := make([]term.Term, len(terms))
	for i, t := range terms {
		norm[i] = t.Normalized()
	}

	if err := validateNotTerms(norm); err != nil {
		return nil, err
	}

	subjectVars, root, err := collectSubjects(norm, vt)
	if err != nil {
		return nil, err
	}

	if err := seedLiteralSubjectTerms(norm, vt); err != nil {
		return nil, err
	}

	propagateDepths(norm, subjectVars, root)

	if err := closure(norm, vt, subjectVars); err != nil {
		return nil, err
	}

	for _, v := range vt.All() {
		if v.Depth == vars.Unconstrained {
			return nil, ErrUnconstrainedVariable.New(v.Name)
		}
	}

	sorted := append([]*vars.Variable(nil), vt.All()...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if ka, kb := kindWeight(a.Kind), kindWeight(b.Kind); ka != kb {
			return ka < kb
		}
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		if a.Occurrences != b.Occurrences {
			return a.Occurrences > b.Occurrences
		}
		return a.ID > b.ID
	})

	return &Ordering{Root: root, Sorted: sorted}, nil
}

func kindWeight(k vars.Kind) int {
	switch k {
	case vars.Table:
		return 0
	case vars.Entity:
		return 1
	default:
		return 2
	}
}

// collectSubjects is pass 1: every term whose subject is a variable
// contributes that name as a Table-kind variable and increments its
// occurrence count. The root is the highest-occurrence variable, or the
// distinguished "." if present.
func collectSubjects(terms []term.Term, vt *vars.Table) (map[string]*vars.Variable, *vars.Variable, error) {
	subjectVars := make(map[string]*vars.Variable)
	var rootCandidate *vars.Variable
	haveDotRoot := false

	for _, t := range terms {
		if !t.Subject.IsVar {
			continue
		}
		v, err := vt.Ensure(vars.Table, t.Subject.Var)
		if err != nil {
			return nil, nil, err
		}
		touch(v)
		subjectVars[v.Name] = v
		if v.Name == term.RootName {
			haveDotRoot = true
			rootCandidate = v
		}
	}

	if !haveDotRoot {
		for _, v := range subjectVars {
			if rootCandidate == nil || v.Occurrences > rootCandidate.Occurrences ||
				(v.Occurrences == rootCandidate.Occurrences && v.ID < rootCandidate.ID) {
				rootCandidate = v
			}
		}
	}
	if rootCandidate != nil {
		rootCandidate.Depth = 0
	}
	return subjectVars, rootCandidate, nil
}

// seedLiteralSubjectTerms is pass 2: for any term whose subject is a
// literal entity, the variables in its predicate/object are immediately
// assigned depth 0.
func seedLiteralSubjectTerms(terms []term.Term, vt *vars.Table) error {
	for _, t := range terms {
		if t.Subject.IsVar {
			continue
		}
		for _, op := range predicateObjectOperands(t) {
			if !op.IsVar {
				continue
			}
			v, err := vt.Ensure(vars.Entity, op.Var)
			if err != nil {
				return err
			}
			touch(v)
			v.Depth = 0
		}
	}
	return nil
}

func predicateObjectOperands(t term.Term) []term.Operand {
	ops := []term.Operand{t.Predicate}
	if t.HasObject {
		ops = append(ops, t.Object)
	}
	return ops
}

// propagateDepths is pass 3: depth of a non-root subject variable v is
// 1 + min(depth(u)) over other subject variables u co-appearing with v in
// some term (as its subject, predicate or object). The marked guard breaks
// cycles: if the recursion returns while still marked, that contribution
// is skipped.
func propagateDepths(terms []term.Term, subjectVars map[string]*vars.Variable, root *vars.Variable) {
	// termsByVar maps a variable's name to every term that mentions it, as
	// subject or as predicate/object, so depth(v) can reach the subject
	// variables v is joined with in either direction.
	termsByVar := make(map[string][]term.Term)
	for _, t := range terms {
		if t.Subject.IsVar {
			termsByVar[t.Subject.Var] = append(termsByVar[t.Subject.Var], t)
		}
		for _, op := range predicateObjectOperands(t) {
			if op.IsVar && !(t.Subject.IsVar && op.Var == t.Subject.Var) {
				termsByVar[op.Var] = append(termsByVar[op.Var], t)
			}
		}
	}

	var depth func(v *vars.Variable) int
	depth = func(v *vars.Variable) int {
		if root != nil && v.Name == root.Name {
			return 0
		}
		if v.Depth != vars.Unconstrained {
			return v.Depth
		}
		if v.Marked() {
			return vars.Unconstrained
		}
		v.Mark(true)
		best := vars.Unconstrained
		for _, t := range termsByVar[v.Name] {
			for _, op := range append([]term.Operand{t.Subject}, predicateObjectOperands(t)...) {
				if !op.IsVar {
					continue
				}
				u, ok := subjectVars[op.Var]
				if !ok || u.Name == v.Name {
					continue
				}
				d := depth(u)
				if d != vars.Unconstrained && d+1 < best {
					best = d + 1
				}
			}
		}
		v.Mark(false)
		if best != vars.Unconstrained {
			v.Depth = best
		}
		return v.Depth
	}

	for _, v := range subjectVars {
		depth(v)
	}
}

// closure is pass 4: crawl predicate/object variables reachable from each
// subject to ensure every reachable variable has been added to vt, with a
// depth derived from the subject's own depth.
func closure(terms []term.Term, vt *vars.Table, subjectVars map[string]*vars.Variable) error {
	for _, t := range terms {
		if !t.Subject.IsVar {
			continue
		}
		subj, ok := subjectVars[t.Subject.Var]
		if !ok || subj.Depth == vars.Unconstrained {
			continue
		}
		for _, op := range predicateObjectOperands(t) {
			if !op.IsVar {
				continue
			}
			v, err := vt.Ensure(vars.Entity, op.Var)
			if err != nil {
				return err
			}
			touch(v)
			if v.Depth == vars.Unconstrained || subj.Depth < v.Depth {
				v.Depth = subj.Depth
			}
		}
	}
	return nil
}

// validateNotTerms enforces that every variable referenced by a Not term
// already exists as some other term's variable, and that no Not term
// carries a bare wildcard literal in a position that requires a bound
// value.
func validateNotTerms(terms []term.Term) error {
	introducedBy := make(map[string]int) // variable name -> first term index that is not itself a Not
	for i, t := range terms {
		if t.Operator == term.Not {
			continue
		}
		for _, op := range append([]term.Operand{t.Subject}, predicateObjectOperands(t)...) {
			if op.IsVar {
				if _, ok := introducedBy[op.Var]; !ok {
					introducedBy[op.Var] = i
				}
			}
		}
	}

	for _, t := range terms {
		if t.Operator != term.Not {
			continue
		}
		for _, op := range append([]term.Operand{t.Subject}, predicateObjectOperands(t)...) {
			if op.IsVar {
				if _, ok := introducedBy[op.Var]; !ok {
					return ErrMissingNotVariable.New(op.Var)
				}
				continue
			}
			if op.Lit.HasAnyWildcard() {
				return ErrMalformedTerm.New("Not term cannot carry a bare wildcard literal")
			}
		}
	}
	return nil
}
