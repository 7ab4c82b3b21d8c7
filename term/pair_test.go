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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jtferson/flecs/id"
	"github.com/jtferson/flecs/memstore"
	"github.com/jtferson/flecs/store"
	"github.com/jtferson/flecs/vars"
)

func TestToPairLowersVariablesToRegisters(t *testing.T) {
	vt := vars.New()
	tm := Term{
		Subject:   Variable("."),
		Predicate: Variable("P"),
		Object:    Variable("O"),
		HasObject: true,
	}.Normalized()

	p, err := ToPair(tm, 0, vt, nil)
	require.NoError(t, err)
	require.True(t, p.PredIsVar)
	require.True(t, p.ObjIsVar)
	require.NotEqual(t, p.PredReg, p.ObjReg)
}

func TestToPairDetectsSameVar(t *testing.T) {
	vt := vars.New()
	tm := Term{
		Subject:   Variable("."),
		Predicate: Variable("X"),
		Object:    Variable("X"),
		HasObject: true,
	}.Normalized()

	p, err := ToPair(tm, 0, vt, nil)
	require.NoError(t, err)
	require.True(t, p.SameVar)
	require.Equal(t, p.PredReg, p.ObjReg)
}

func TestToPairReadsTransitiveTraitsFromStore(t *testing.T) {
	ms := memstore.New()
	isa := id.NewEntity(1, 0)
	ms.SetTrait(isa, store.Transitive)
	ms.SetTrait(isa, store.TransitiveSelf)

	vt := vars.New()
	tm := Term{Subject: Variable("."), Predicate: Literal(isa), Object: Variable("O"), HasObject: true}.Normalized()

	p, err := ToPair(tm, 0, vt, ms)
	require.NoError(t, err)
	require.True(t, p.Transitive)
	require.True(t, p.Inclusive)
	require.False(t, p.Final)
}

func TestMaskForUnaryAndPairTerms(t *testing.T) {
	pred := id.NewEntity(1, 0)
	obj := id.NewEntity(2, 0)

	unary := Pair{PredLit: pred}
	require.Equal(t, pred, unary.Mask())

	withObj := Pair{PredLit: pred, HasObject: true, ObjLit: obj}
	require.Equal(t, id.Pair(pred, obj), withObj.Mask())

	withVarObj := Pair{PredLit: pred, HasObject: true, ObjIsVar: true}
	require.Equal(t, id.Pair(pred, id.Wildcard), withVarObj.Mask())
}
