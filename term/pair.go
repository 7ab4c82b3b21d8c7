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

package term

import (
	"github.com/jtferson/flecs/id"
	"github.com/jtferson/flecs/store"
	"github.com/jtferson/flecs/vars"
)

// Pair is a term lowered for the VM: predicate and object each carry either
// a concrete id or a variable register index, plus flags recording which
// positions are variables and the predicate's transitivity properties.
type Pair struct {
	PredIsVar bool
	PredReg   int
	PredLit   id.Id

	HasObject bool
	ObjIsVar  bool
	ObjReg    int
	ObjLit    id.Id

	// SameVar is true when both predicate and object reference the same
	// variable register (e.g. `_X(., _X)`); the VM uses it to additionally
	// require relation == object in the matched column.
	SameVar bool

	Transitive bool
	Final      bool
	Inclusive  bool // reflexive closure of Transitive

	// TermIndex is the originating term index, or -1 for scaffolding.
	TermIndex int
}

// ToPair lowers a normalized term into a compiled Pair (term_to_pair, C1).
// vt supplies register ids for variable operands; st supplies the
// transitive/final/inclusive traits of a literal predicate.
func ToPair(t Term, termIndex int, vt *vars.Table, st store.Store) (Pair, error) {
	p := Pair{HasObject: t.HasObject, TermIndex: termIndex}

	if t.Predicate.IsVar {
		v, err := vt.Ensure(vars.Entity, t.Predicate.Var)
		if err != nil {
			return Pair{}, err
		}
		p.PredIsVar = true
		p.PredReg = v.ID
	} else {
		p.PredLit = t.Predicate.Lit
		if st != nil && !p.PredLit.HasAnyWildcard() {
			p.Transitive = st.HasTrait(p.PredLit, store.Transitive)
			p.Final = st.HasTrait(p.PredLit, store.Final)
			p.Inclusive = st.HasTrait(p.PredLit, store.TransitiveSelf)
		}
	}

	if t.HasObject {
		if t.Object.IsVar {
			v, err := vt.Ensure(vars.Entity, t.Object.Var)
			if err != nil {
				return Pair{}, err
			}
			p.ObjIsVar = true
			p.ObjReg = v.ID
		} else {
			// A literal object of id.None is preserved as "pair with no
			// object", distinct from a wildcard object.
			p.ObjLit = t.Object.Lit
		}
	}

	if p.PredIsVar && p.ObjIsVar && p.PredReg == p.ObjReg {
		p.SameVar = true
	}

	return p, nil
}

// Mask reconstructs the static portion of the filter id for this pair: for
// a unary pair it is just the predicate; for a pair-with-object it is
// Pair(predicate, object), using Wildcard for any variable-bound position
// that isn't yet known at compile time.
func (p Pair) Mask() id.Id {
	pred := p.PredLit
	if p.PredIsVar {
		pred = id.Wildcard
	}
	if !p.HasObject {
		return pred
	}
	obj := p.ObjLit
	if p.ObjIsVar {
		obj = id.Wildcard
	}
	return id.Pair(pred, obj)
}
