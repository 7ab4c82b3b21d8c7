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

// Package term is the normalized representation of a single rule
// constraint (C1 in the design): predicate, subject and object, each
// either a concrete id or a variable, plus the operator and subject
// selector flags. The term parser (source text to Term list) is out of
// scope here; this package only models the parsed result.
package term

import (
	"github.com/spf13/cast"

	"github.com/jtferson/flecs/id"
)

// RootName is the canonical spelling of the anonymous root "this" variable.
// "This" is accepted as an alias and resolves to the same variable.
const RootName = "."

// ThisAlias is the long-form spelling accepted for RootName.
const ThisAlias = "This"

// Operand is either a literal id or a named variable. Exactly one of the
// two is meaningful, selected by IsVar.
type Operand struct {
	IsVar bool
	Var   string
	Lit   id.Id
}

// Variable builds a variable operand.
func Variable(name string) Operand { return Operand{IsVar: true, Var: name} }

// Literal builds a literal operand.
func Literal(v id.Id) Operand { return Operand{Lit: v} }

// LiteralAny builds a literal operand from a loosely-typed value: callers
// building terms by hand rarely already have an id.Id in scope, and are just
// as likely to hand in an int, int64, uint64, or a numeric string. This is
// the one boundary where the core still accepts that; everything downstream
// of term construction deals only in strict id.Id values.
func LiteralAny(v interface{}) (Operand, error) {
	low, err := cast.ToUint64E(v)
	if err != nil {
		return Operand{}, err
	}
	return Operand{Lit: id.Id(low)}, nil
}

// IsZero reports whether the operand was never set (used to detect an
// omitted subject, which defaults to the root variable).
func (o Operand) IsZero() bool { return !o.IsVar && o.Lit == id.None }

func (o Operand) String() string {
	if o.IsVar {
		return "$" + o.Var
	}
	return o.Lit.String()
}

// Operator selects how a term participates in the conjunction.
type Operator int

const (
	And      Operator = iota // default: the term must match
	Not                      // the term must not match
	Optional                 // the term may or may not match
)

func (op Operator) String() string {
	switch op {
	case Not:
		return "Not"
	case Optional:
		return "Optional"
	default:
		return "And"
	}
}

// SubjectFlags are selector modifiers on a term's subject.
type SubjectFlags uint8

const (
	// Self matches the subject entity itself.
	Self SubjectFlags = 1 << iota
	// SuperSet matches along transitive ancestors of the subject.
	SuperSet
	// SubSet matches along transitive descendants of the subject.
	SubSet
	// Nothing means the term matches no source at all (a pure filter with
	// no subject binding side effect).
	Nothing
)

// SelfUp is the common union: match self and all supersets (IsA ancestors).
const SelfUp = Self | SuperSet

// Has reports whether f contains all bits of mask.
func (f SubjectFlags) Has(mask SubjectFlags) bool { return f&mask == mask }

// Term is a single constraint: "subject has id predicate[, object]".
type Term struct {
	Predicate Operand
	Subject   Operand
	Object    Operand
	// HasObject distinguishes a term with no object position at all from
	// one whose object is the literal id.None ("no object", §3).
	HasObject    bool
	Operator     Operator
	SubjectFlags SubjectFlags
}

// Normalized returns a copy of t with an omitted subject defaulted to the
// root variable, per §3 ("default is the implicit This variable").
func (t Term) Normalized() Term {
	if t.Subject.IsZero() {
		t.Subject = Variable(RootName)
	}
	if t.Subject.IsVar && t.Subject.Var == ThisAlias {
		t.Subject.Var = RootName
	}
	return t
}

// IsUnary reports whether the term has no object position (a plain "has id"
// filter rather than a pair filter).
func (t Term) IsUnary() bool { return !t.HasObject }
