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

// Package compile is the program emitter (C4): it lowers an ordered term
// list into a flat instruction list the VM interprets. It also owns the
// dependency ordering call (C3, via the order package) since emission
// order depends directly on it.
package compile

import "github.com/jtferson/flecs/term"

// Kind is the tag of a compiled instruction.
type Kind int

const (
	Input Kind = iota
	Select
	With
	SubSet
	SuperSet
	Store
	Each
	SetJmp
	Jump
	Not
	Yield
)

func (k Kind) String() string {
	switch k {
	case Input:
		return "Input"
	case Select:
		return "Select"
	case With:
		return "With"
	case SubSet:
		return "SubSet"
	case SuperSet:
		return "SuperSet"
	case Store:
		return "Store"
	case Each:
		return "Each"
	case SetJmp:
		return "SetJmp"
	case Jump:
		return "Jump"
	case Not:
		return "Not"
	case Yield:
		return "Yield"
	default:
		return "?"
	}
}

// Op is one program instruction. Not every field is meaningful for every
// Kind; see the package doc and §4.4 of the design for the semantics of
// each kind.
type Op struct {
	Kind Kind

	// Pair is the compiled filter this op tests/produces, for Select,
	// With, SubSet, SuperSet and the Not sub-program's wrapped terms.
	Pair term.Pair

	// InReg/OutReg are variable register ids (indexes into the frame's
	// register row), -1 if unused by this Kind.
	InReg  int
	OutReg int

	// TestReg/HasLiteralTest/LiteralTest carry the "other side" of a
	// transitive membership test, when SubSet/SuperSet are used to ask
	// "is X already in Y's transitive set?" rather than to enumerate a
	// new register (OutReg == -1 in that mode).
	TestReg        int
	HasLiteralTest bool
	LiteralTest    term.Operand

	// LiteralSubject is set when the originating term had a concrete
	// entity subject rather than a variable one.
	HasLiteralSubject bool
	LiteralSubject    term.Operand

	// OnPass/OnFail are plain instruction pointers for every Kind,
	// including Jump; -1 ends the search.
	OnPass int
	OnFail int

	// Frame is this op's register-frame index; frame indices are
	// monotonically non-decreasing and only increase on data-yielding ops.
	Frame int

	// TermIndex is the originating term's index in the input list, or -1
	// for scaffolding ops (Each, SetJmp, Jump, the Input/Yield bookends).
	TermIndex int

	// SetJmpSlot is the ip of the SetJmp this op is paired with (its own ip
	// on a SetJmp). The VM does not read it.
	SetJmpSlot int

	// Marker is true for the trailing half of a Not pair: a structural
	// no-op kept only so the disassembly still shows the paired
	// leading/trailing shape; the actual inverted test lives on the leading
	// op.
	Marker bool
}
