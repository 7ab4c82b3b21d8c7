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

// Package memstore is a minimal in-memory store.Store implementation: a
// reference archetype store used by the test suite and the example
// program, modeled on the teacher's in-memory database/table pair. It is
// not a competing storage engine — no indexing beyond a linear scan over
// tables to answer LookupIdRecord — only enough to exercise the rule
// engine end to end.
package memstore

import (
	"sort"
	"sync"

	"github.com/jtferson/flecs/id"
	"github.com/jtferson/flecs/store"
)

// table is an archetype: the set of ids every contained entity shares, and
// the entities themselves in row order.
type table struct {
	typ      []id.Id
	entities []id.Id
}

func typeKey(typ []id.Id) string {
	b := make([]byte, 0, len(typ)*9)
	for _, t := range typ {
		for i := 0; i < 8; i++ {
			b = append(b, byte(t>>(8*uint(i))))
		}
		b = append(b, '|')
	}
	return string(b)
}

// Store is a reference in-memory ECS archetype store.
type Store struct {
	mu sync.RWMutex

	nextLow uint32
	tables  map[string]*table
	entity  map[id.Id]*table // entity low id -> its current table
	row     map[id.Id]int    // entity low id -> row within that table

	traits map[id.Id]map[store.Trait]bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		// Low id 1 is the compiler's built-in IsA relation
		// (compile.IsATrait), so the first NewEntity returns low id 2.
		nextLow: 1,
		tables:  make(map[string]*table),
		entity: make(map[id.Id]*table),
		row:    make(map[id.Id]int),
		traits: make(map[id.Id]map[store.Trait]bool),
	}
}

// NewEntity creates a fresh entity with no components, generation 0.
func (s *Store) NewEntity() id.Id {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLow++
	e := id.NewEntity(s.nextLow, 0)
	s.placeLocked(e, nil)
	return e
}

// SetTrait marks predicate as carrying trait, consulted by the compiler
// when lowering a literal predicate.
func (s *Store) SetTrait(predicate id.Id, trait store.Trait) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.traits[predicate]
	if !ok {
		m = make(map[store.Trait]bool)
		s.traits[predicate] = m
	}
	m[trait] = true
}

// Add adds componentOrPair to e's type, moving it to the matching archetype
// (creating one if none exists yet).
func (s *Store) Add(e id.Id, componentOrPair id.Id) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.entity[e.Low()]
	newType := []id.Id{componentOrPair}
	if cur != nil {
		newType = mergeType(cur.typ, componentOrPair)
	}
	s.placeLocked(e, newType)
}

// AddPair is a convenience for Add(e, id.Pair(relation, object)).
func (s *Store) AddPair(e id.Id, relation, object id.Id) {
	s.Add(e, id.Pair(relation, object))
}

func mergeType(existing []id.Id, add id.Id) []id.Id {
	for _, t := range existing {
		if t == add {
			return existing
		}
	}
	out := append(append([]id.Id(nil), existing...), add)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Store) placeLocked(e id.Id, typ []id.Id) {
	low := e.Low()
	if old := s.entity[low]; old != nil {
		s.removeFromTableLocked(old, low)
	}
	key := typeKey(typ)
	t, ok := s.tables[key]
	if !ok {
		t = &table{typ: typ}
		s.tables[key] = t
	}
	s.row[low] = len(t.entities)
	t.entities = append(t.entities, e)
	s.entity[low] = t
}

func (s *Store) removeFromTableLocked(t *table, low id.Id) {
	r := s.row[low]
	last := len(t.entities) - 1
	moved := t.entities[last]
	t.entities[r] = moved
	t.entities = t.entities[:last]
	if r < len(t.entities) {
		s.row[moved.Low()] = r
	}
	delete(s.row, low)
}

// ResolveEntity implements store.Store.
func (s *Store) ResolveEntity(e id.Id) (store.Table, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.entity[e.Low()]
	if !ok {
		return nil, 0, false
	}
	return t, s.row[e.Low()], true
}

// LookupIdRecord implements store.Store with a linear scan over every
// table, matching mask (which may carry wildcards) against each id in a
// table's type.
func (s *Store) LookupIdRecord(mask id.Id) (store.IdRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var recs []store.TableRecord
	// Deterministic order: sort table keys so repeated calls against an
	// unchanged store always enumerate tables the same way.
	keys := make([]string, 0, len(s.tables))
	for k := range s.tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t := s.tables[k]
		if len(t.entities) == 0 {
			continue
		}
		for col, tid := range t.typ {
			if mask.Matches(tid) {
				recs = append(recs, store.TableRecord{Table: t, Column: col})
				break
			}
		}
	}
	if len(recs) == 0 {
		return nil, false
	}
	return idRecord{tables: recs}, true
}

// TableType implements store.Store.
func (s *Store) TableType(t store.Table) []id.Id {
	return t.(*table).typ
}

// TableEntities implements store.Store.
func (s *Store) TableEntities(t store.Table) []id.Id {
	return t.(*table).entities
}

// HasTrait implements store.Store.
func (s *Store) HasTrait(entity id.Id, trait store.Trait) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.traits[entity][trait]
}

type idRecord struct {
	tables []store.TableRecord
}

func (r idRecord) Tables() []store.TableRecord { return r.tables }
