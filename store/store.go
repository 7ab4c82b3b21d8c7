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

// Package store is the narrow, consumer-side contract the rule engine uses
// to read an ECS archetype store (C8 in the design). It is the entire
// surface the compiler and VM require; everything else about how entities,
// archetypes and components are actually stored belongs to a storage layer
// outside this module's scope.
package store

import "github.com/jtferson/flecs/id"

// Table is an opaque handle to an archetype. The engine never inspects a
// Table's internals directly; it only ever round-trips the handle returned
// by the store back into the store's own methods.
type Table interface{}

// TableRecord is one entry of an id record: the archetype that carries the
// pattern, and the column offset (0-based) where it first occurs in that
// table's type.
type TableRecord struct {
	Table  Table
	Column int
}

// IdRecord is the inverted index entry for one id (possibly wildcarded):
// the ordered, non-empty tables that carry it.
type IdRecord interface {
	// Tables returns the table records for this id pattern, in a stable,
	// reproducible order across repeated calls against an unchanged store.
	Tables() []TableRecord
}

// Trait is a boolean property queried on a predicate entity.
type Trait int

const (
	// Transitive marks a predicate as closed under composition: R(x,y) and
	// R(y,z) imply R(x,z) should be discoverable by the engine's subset/
	// superset expansion.
	Transitive Trait = iota
	// Final marks a predicate as not itself subject to IsA substitution
	// during lowering.
	Final
	// TransitiveSelf marks a transitive predicate as also reflexive:
	// R(x,x) holds for any x appearing in R's domain or range.
	TransitiveSelf
)

// Store is the read-only interface the rule engine consumes.
type Store interface {
	// ResolveEntity returns the table and row for a live entity, or
	// ok=false if the entity no longer exists (a stale literal, §7).
	ResolveEntity(e id.Id) (table Table, row int, ok bool)

	// LookupIdRecord returns the id record for mask (which may contain
	// wildcards), or ok=false if nothing in the store carries it.
	LookupIdRecord(mask id.Id) (rec IdRecord, ok bool)

	// TableType returns a table's ordered list of ids (its archetype type).
	TableType(t Table) []id.Id

	// TableEntities returns the entities currently stored in t, in the same
	// order as their rows (row i corresponds to TableEntities(t)[i]).
	TableEntities(t Table) []id.Id

	// HasTrait reports whether entity carries the given trait (queried on
	// a predicate entity to decide transitive/final/inclusive lowering).
	HasTrait(entity id.Id, trait Trait) bool
}
