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
)

func TestNormalizedDefaultsSubjectToRoot(t *testing.T) {
	tm := Term{Predicate: Literal(id.NewEntity(1, 0))}
	norm := tm.Normalized()
	require.True(t, norm.Subject.IsVar)
	require.Equal(t, RootName, norm.Subject.Var)
}

func TestNormalizedFoldsThisAliasToRoot(t *testing.T) {
	tm := Term{Subject: Variable(ThisAlias), Predicate: Literal(id.NewEntity(1, 0))}
	norm := tm.Normalized()
	require.Equal(t, RootName, norm.Subject.Var)
}

func TestIsUnary(t *testing.T) {
	unary := Term{Predicate: Literal(id.NewEntity(1, 0))}
	require.True(t, unary.IsUnary())

	withObj := Term{Predicate: Literal(id.NewEntity(1, 0)), Object: Literal(id.NewEntity(2, 0)), HasObject: true}
	require.False(t, withObj.IsUnary())
}

func TestLiteralAnyAcceptsLooselyTypedValues(t *testing.T) {
	cases := []interface{}{42, int64(42), uint64(42), "42"}
	for _, v := range cases {
		op, err := LiteralAny(v)
		require.NoError(t, err)
		require.False(t, op.IsVar)
		require.Equal(t, id.Id(42), op.Lit)
	}
}

func TestLiteralAnyRejectsUnparseable(t *testing.T) {
	_, err := LiteralAny("not-a-number")
	require.Error(t, err)
}

func TestSubjectFlagsHas(t *testing.T) {
	require.True(t, SelfUp.Has(Self))
	require.True(t, SelfUp.Has(SuperSet))
	require.False(t, SelfUp.Has(SubSet))
}
