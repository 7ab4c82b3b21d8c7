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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jtferson/flecs/compile"
	"github.com/jtferson/flecs/id"
	"github.com/jtferson/flecs/memstore"
	"github.com/jtferson/flecs/term"
)

func TestRunnerExhaustsThenStaysFalse(t *testing.T) {
	ms := memstore.New()
	tag := id.NewEntity(1, 0)
	e := ms.NewEntity()
	ms.Add(e, tag)

	prog, err := compile.Emit([]term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(tag)},
	}, "", ms)
	require.NoError(t, err)

	r := NewRunner(prog, ms)
	require.True(t, r.Next())
	require.False(t, r.Next())
	require.False(t, r.Next())
}

func TestRunnerEnumeratesAllMatchingEntities(t *testing.T) {
	ms := memstore.New()
	tag := id.NewEntity(1, 0)
	var entities []id.Id
	for i := 0; i < 4; i++ {
		e := ms.NewEntity()
		ms.Add(e, tag)
		entities = append(entities, e)
	}

	prog, err := compile.Emit([]term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(tag)},
	}, "", ms)
	require.NoError(t, err)

	r := NewRunner(prog, ms)
	var got []id.Id
	for r.Next() {
		reg := r.Var(prog.ThisVar)
		got = append(got, reg.Entity)
	}
	require.ElementsMatch(t, entities, got)
}

func TestBindIsNoOpOnceIterationHasStarted(t *testing.T) {
	ms := memstore.New()
	tag := id.NewEntity(1, 0)
	other := id.NewEntity(2, 0)
	e1 := ms.NewEntity()
	e2 := ms.NewEntity()
	ms.Add(e1, tag)
	ms.Add(e2, tag)

	prog, err := compile.Emit([]term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(tag)},
	}, "", ms)
	require.NoError(t, err)

	r := NewRunner(prog, ms)
	require.True(t, r.Next())
	before := r.Var(prog.ThisVar).Entity

	r.Bind(prog.ThisVar, other) // no-op: iteration already started
	require.Equal(t, before, r.Var(prog.ThisVar).Entity)
}
