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

package order

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jtferson/flecs/id"
	"github.com/jtferson/flecs/term"
	"github.com/jtferson/flecs/vars"
)

func idv(low uint32) id.Id { return id.NewEntity(low, 0) }

func TestRootElectionPrefersDotWhenPresent(t *testing.T) {
	terms := []term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(idv(1))},
		{Subject: term.Variable("Y"), Predicate: term.Literal(idv(2)), Object: term.Variable("."), HasObject: true},
	}
	vt := vars.New()
	ord, err := Compute(terms, vt)
	require.NoError(t, err)
	require.NotNil(t, ord.Root)
	require.Equal(t, term.RootName, ord.Root.Name)
	require.Equal(t, 0, ord.Root.Depth)
}

func TestRootElectionFallsBackToHighestOccurrence(t *testing.T) {
	terms := []term.Term{
		{Subject: term.Variable("X"), Predicate: term.Literal(idv(1))},
		{Subject: term.Variable("X"), Predicate: term.Literal(idv(2))},
		{Subject: term.Variable("Y"), Predicate: term.Literal(idv(3)), Object: term.Variable("X"), HasObject: true},
	}
	vt := vars.New()
	ord, err := Compute(terms, vt)
	require.NoError(t, err)
	require.Equal(t, "X", ord.Root.Name)
}

func TestUnconstrainedVariableIsRejected(t *testing.T) {
	// Z is never joined to the root `.` by any shared predicate/object, so
	// it can never acquire a finite depth.
	terms := []term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(idv(1))},
		{Subject: term.Variable("Z"), Predicate: term.Variable("Z")},
	}
	vt := vars.New()
	_, err := Compute(terms, vt)
	require.Error(t, err)
}

func TestDepthPropagationAcrossJoin(t *testing.T) {
	// `.`  has predicate HomePlanet with object variable O; O is itself used
	// as a subject in another term. O's depth should be 1 (joined to root at
	// depth 0).
	terms := []term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(idv(1)), Object: term.Variable("O"), HasObject: true},
		{Subject: term.Variable("O"), Predicate: term.Literal(idv(2))},
	}
	vt := vars.New()
	_, err := Compute(terms, vt)
	require.NoError(t, err)
	var o *vars.Variable
	for _, v := range vt.All() {
		if v.Name == "O" && v.Kind == vars.Table {
			o = v
		}
	}
	require.NotNil(t, o)
	require.Equal(t, 1, o.Depth)
}

func TestTieBreakOrdersTableBeforeEntityAndShallowFirst(t *testing.T) {
	terms := []term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(idv(1)), Object: term.Variable("O"), HasObject: true},
	}
	vt := vars.New()
	ord, err := Compute(terms, vt)
	require.NoError(t, err)
	require.True(t, len(ord.Sorted) >= 2)
	for i := 1; i < len(ord.Sorted); i++ {
		a, b := ord.Sorted[i-1], ord.Sorted[i]
		if a.Kind != b.Kind {
			require.LessOrEqual(t, kindWeight(a.Kind), kindWeight(b.Kind))
		} else {
			require.LessOrEqual(t, a.Depth, b.Depth)
		}
	}
}

func TestNotTermMustReferenceExistingVariable(t *testing.T) {
	terms := []term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(idv(1))},
		{Subject: term.Variable("."), Predicate: term.Variable("Fresh"), Operator: term.Not},
	}
	vt := vars.New()
	_, err := Compute(terms, vt)
	require.Error(t, err)
}

func TestNotTermRejectsBareWildcard(t *testing.T) {
	terms := []term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(idv(1))},
		{Subject: term.Variable("."), Predicate: term.Literal(id.Wildcard), Operator: term.Not},
	}
	vt := vars.New()
	_, err := Compute(terms, vt)
	require.Error(t, err)
}
