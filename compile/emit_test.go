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
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jtferson/flecs/id"
	"github.com/jtferson/flecs/memstore"
	"github.com/jtferson/flecs/store"
	"github.com/jtferson/flecs/term"
)

func TestEmitRejectsEmptyRule(t *testing.T) {
	_, err := Emit(nil, "", nil)
	require.Error(t, err)
}

func TestEmitRejectsAllNotRule(t *testing.T) {
	terms := []term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(id.NewEntity(1, 0)), Operator: term.Not},
	}
	_, err := Emit(terms, "", nil)
	require.Error(t, err)
}

func TestEmitStartsWithInputAndEndsWithYield(t *testing.T) {
	terms := []term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(id.NewEntity(1, 0))},
	}
	prog, err := Emit(terms, "", nil)
	require.NoError(t, err)
	require.Equal(t, Input, prog.Ops[0].Kind)
	require.Equal(t, 1, prog.Ops[0].OnPass)
	require.Equal(t, -1, prog.Ops[0].OnFail)
	require.Equal(t, Yield, prog.Ops[len(prog.Ops)-1].Kind)
}

func TestEmitBridgesTableSubjectWithEach(t *testing.T) {
	terms := []term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(id.NewEntity(1, 0))},
	}
	prog, err := Emit(terms, "", nil)
	require.NoError(t, err)
	var sawSelect, sawEach bool
	for _, op := range prog.Ops {
		if op.Kind == Select {
			sawSelect = true
		}
		if op.Kind == Each {
			sawEach = true
		}
	}
	require.True(t, sawSelect)
	require.True(t, sawEach)
}

func TestEmitNotProducesPairedMarkers(t *testing.T) {
	terms := []term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(id.NewEntity(1, 0))},
		{Subject: term.Variable("."), Predicate: term.Literal(id.NewEntity(2, 0)), Operator: term.Not},
	}
	prog, err := Emit(terms, "", nil)
	require.NoError(t, err)
	var notOps []Op
	for _, op := range prog.Ops {
		if op.Kind == Not {
			notOps = append(notOps, op)
		}
	}
	require.Len(t, notOps, 2)
	require.False(t, notOps[0].Marker)
	require.True(t, notOps[1].Marker)
}

func TestEmitOptionalRewritesExitToSkipBlock(t *testing.T) {
	terms := []term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(id.NewEntity(1, 0))},
		{Subject: term.Variable("."), Predicate: term.Literal(id.NewEntity(2, 0)), Operator: term.Optional},
	}
	prog, err := Emit(terms, "", nil)
	require.NoError(t, err)
	var sawSetJmp, sawJump bool
	var setjmpIP, jumpOnFail int
	for ip, op := range prog.Ops {
		if op.Kind == SetJmp {
			sawSetJmp = true
			setjmpIP = ip
		}
		if op.Kind == Jump {
			sawJump = true
			jumpOnFail = op.OnFail
		}
	}
	require.True(t, sawSetJmp)
	require.True(t, sawJump)
	// Backtracking out of the block goes past the SetJmp, not back into it.
	require.Less(t, jumpOnFail, setjmpIP)
}

func TestEmitInclusiveTransitiveEmitsStorePrelude(t *testing.T) {
	ms := memstore.New()
	isa := id.NewEntity(1, 0)
	ms.SetTrait(isa, store.Transitive)
	ms.SetTrait(isa, store.TransitiveSelf)

	character := id.NewEntity(2, 0)
	terms := []term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(isa), Object: term.Literal(character), HasObject: true},
	}
	prog, err := Emit(terms, "", ms)
	require.NoError(t, err)

	var sawStore, sawSubSet bool
	for _, op := range prog.Ops {
		if op.Kind == Store {
			sawStore = true
		}
		if op.Kind == SubSet {
			sawSubSet = true
		}
	}
	require.True(t, sawStore)
	require.True(t, sawSubSet)
}

func TestEmitRejectsTooManyVariables(t *testing.T) {
	terms := make([]term.Term, 0, 300)
	terms = append(terms, term.Term{Subject: term.Variable("."), Predicate: term.Literal(id.NewEntity(1, 0))})
	for i := 0; i < 300; i++ {
		terms = append(terms, term.Term{
			Subject:   term.Literal(id.NewEntity(uint32(1000+i), 0)),
			Predicate: term.Variable("."),
			Object:    term.Variable(fmt.Sprintf("V%d", i)),
			HasObject: true,
		})
	}
	_, err := Emit(terms, "", nil)
	require.Error(t, err)
}

func TestDisassembleIncludesExpressionHeader(t *testing.T) {
	terms := []term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(id.NewEntity(1, 0))},
	}
	prog, err := Emit(terms, "Tag(.)", nil)
	require.NoError(t, err)
	out := prog.Disassemble()
	require.Contains(t, out, "# Tag(.)")
}
