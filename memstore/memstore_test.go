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

package memstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jtferson/flecs/id"
	"github.com/jtferson/flecs/store"
)

func TestAddMovesEntityBetweenArchetypes(t *testing.T) {
	s := New()
	e := s.NewEntity()
	tagA := s.NewEntity()
	tagB := s.NewEntity()

	s.Add(e, tagA)
	table, row, ok := s.ResolveEntity(e)
	require.True(t, ok)
	require.Equal(t, []id.Id{tagA}, s.TableType(table))
	require.Equal(t, 0, row)

	s.Add(e, tagB)
	table2, _, ok := s.ResolveEntity(e)
	require.True(t, ok)
	require.ElementsMatch(t, []id.Id{tagA, tagB}, s.TableType(table2))
}

func TestRemoveFromTableSwapsLastEntityIntoHole(t *testing.T) {
	s := New()
	tag := s.NewEntity()
	e1 := s.NewEntity()
	e2 := s.NewEntity()
	e3 := s.NewEntity()
	s.Add(e1, tag)
	s.Add(e2, tag)
	s.Add(e3, tag)

	// Move e1 to a different archetype, vacating its row; e3 (the last
	// entity in the tag archetype) should be swapped into the hole.
	otherTag := s.NewEntity()
	s.Add(e1, otherTag)

	table, _, ok := s.ResolveEntity(e2)
	require.True(t, ok)
	entities := s.TableEntities(table)
	require.Contains(t, entities, e2)
	require.Contains(t, entities, e3)
	require.NotContains(t, entities, e1)
	_, row, ok := s.ResolveEntity(e3)
	require.True(t, ok)
	require.Equal(t, 0, row)
}

func TestLookupIdRecordIsWildcardAware(t *testing.T) {
	s := New()
	rel := s.NewEntity()
	obj1 := s.NewEntity()
	obj2 := s.NewEntity()
	e1 := s.NewEntity()
	e2 := s.NewEntity()
	s.AddPair(e1, rel, obj1)
	s.AddPair(e2, rel, obj2)

	rec, ok := s.LookupIdRecord(id.Pair(rel, id.Wildcard))
	require.True(t, ok)
	require.Len(t, rec.Tables(), 2)
}

func TestLookupIdRecordOmitsTagsNoLiveEntityCarries(t *testing.T) {
	s := New()
	unusedTag := s.NewEntity()
	e := s.NewEntity()
	s.Add(e, s.NewEntity())

	rec, ok := s.LookupIdRecord(unusedTag)
	require.False(t, ok)
	require.Nil(t, rec)
}

func TestHasTrait(t *testing.T) {
	s := New()
	rel := s.NewEntity()
	require.False(t, s.HasTrait(rel, store.Transitive))
	s.SetTrait(rel, store.Transitive)
	require.True(t, s.HasTrait(rel, store.Transitive))
	require.False(t, s.HasTrait(rel, store.Final))
}

func TestLookupIdRecordDeterministicAcrossCalls(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		e := s.NewEntity()
		s.Add(e, id.NewEntity(uint32(100+i), 0))
	}
	rec1, _ := s.LookupIdRecord(id.Wildcard)
	rec2, _ := s.LookupIdRecord(id.Wildcard)
	require.Equal(t, rec1.Tables(), rec2.Tables())
}
