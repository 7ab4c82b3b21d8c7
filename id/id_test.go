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

package id

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPairEncodingIsGenerationFree(t *testing.T) {
	rel := NewEntity(10, 3)
	obj := NewEntity(20, 7)
	p := Pair(rel, obj)

	require.True(t, p.IsPair())
	require.Equal(t, rel.Low(), p.Relation())
	require.Equal(t, obj.Low(), p.Object())
}

func TestWildcardMatching(t *testing.T) {
	pattern := Pair(Wildcard, NewEntity(5, 0))
	require.True(t, pattern.Matches(Pair(NewEntity(1, 0), NewEntity(5, 0))))
	require.False(t, pattern.Matches(Pair(NewEntity(1, 0), NewEntity(6, 0))))

	require.True(t, Id(Wildcard).Matches(NewEntity(99, 4)))
}

func TestMatchesIsGenerationFreeAcrossRecycle(t *testing.T) {
	literal := NewEntity(42, 0)
	recycled := NewEntity(42, 1) // same slot, generation advanced
	require.True(t, literal.Matches(recycled))
}

func TestPlainAndPairNeverMatch(t *testing.T) {
	plain := NewEntity(1, 0)
	pair := Pair(NewEntity(1, 0), NewEntity(2, 0))
	require.False(t, plain.Matches(pair))
	require.False(t, pair.Matches(plain))
}

func TestNoneIsDistinctFromWildcard(t *testing.T) {
	require.NotEqual(t, None, Wildcard)
	require.False(t, None.IsWildcard())
}

func TestHasAnyWildcard(t *testing.T) {
	require.True(t, Id(Wildcard).HasAnyWildcard())
	require.True(t, Pair(Wildcard, NewEntity(1, 0)).HasAnyWildcard())
	require.True(t, Pair(NewEntity(1, 0), Wildcard).HasAnyWildcard())
	require.False(t, Pair(NewEntity(1, 0), NewEntity(2, 0)).HasAnyWildcard())
}
