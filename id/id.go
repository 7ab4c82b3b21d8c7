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

// Package id defines the 64-bit identifier used throughout the rule engine:
// plain entity ids, the (relation, object) pair encoding, and the wildcard
// sentinel that stands for "any concrete id in this position".
package id

import "fmt"

// Id is a 64-bit identifier. It is either:
//   - a plain entity id: a 32-bit low part plus a 31-bit generation, or
//   - a pair id: PairFlag (bit 63) set, with the relation's low 31 bits
//     packed into bits 32-62 and the object's low 32 bits into bits 0-31.
//
// Pair encoding is deliberately generation-free: only the low 31 bits of
// the relation and the low 32 bits of the object survive. This is what lets a stored literal id in a
// compiled rule keep matching an entity across a delete/recreate cycle of
// the same id slot (the "recycled-id mismatch" run-time case in the error
// model).
type Id uint64

const (
	// PairFlag marks an Id as a pair rather than a plain entity id.
	PairFlag Id = 1 << 63

	lowMask  Id = 0xFFFFFFFF
	genShift    = 32
	genMask  Id = 0x7FFFFFFF
)

// Wildcard is the sentinel low-id value meaning "matches any concrete id in
// this position". It is never a real entity's low id.
const Wildcard Id = Id(lowMask)

// None is the explicit "no object" literal: distinct from Wildcard, it means
// a term has no object position at all (a unary filter).
const None Id = 0

// NewEntity builds a plain entity id from a low id and a generation.
func NewEntity(low uint32, generation uint32) Id {
	return Id(generation&uint32(genMask))<<genShift | Id(low)
}

// Low returns the low 32 bits (the bare id, generation stripped).
func (i Id) Low() Id { return i & lowMask }

// Generation returns the generation field of a plain entity id.
func (i Id) Generation() uint32 {
	return uint32((i >> genShift) & genMask)
}

// IsPair reports whether i is a (relation, object) pair rather than a plain id.
func (i Id) IsPair() bool { return i&PairFlag != 0 }

// Pair encodes relation and object (generation-free: the relation's low 31
// bits and the object's low 32 bits) into a single pair Id.
func Pair(relation, object Id) Id {
	return PairFlag | (relation.Low() << genShift) | object.Low()
}

// Relation returns the relation half of a pair id. Only valid if IsPair().
// The shift brings PairFlag (bit 63) down to bit 31 alongside relation's own
// top bit, so the mask here is genMask, not lowMask, to strip the tag rather
// than fold it into the result.
func (i Id) Relation() Id {
	return (i >> genShift) & genMask
}

// Object returns the object half of a pair id. Only valid if IsPair().
func (i Id) Object() Id {
	return i & lowMask
}

// IsWildcard reports whether i, used as a plain id, is the wildcard sentinel.
func (i Id) IsWildcard() bool {
	return !i.IsPair() && i.Low() == Wildcard
}

// RelationIsWildcard reports whether a pair's relation half is wildcard.
// Relation() only ever returns a genMask-width value (see Relation), so the
// relation half's wildcard sentinel is genMask, not the 32-bit Wildcard used
// for plain ids and the object half.
func (i Id) RelationIsWildcard() bool {
	return i.IsPair() && i.Relation() == genMask
}

// ObjectIsWildcard reports whether a pair's object half is wildcard.
func (i Id) ObjectIsWildcard() bool {
	return i.IsPair() && i.Object() == Wildcard
}

// HasAnyWildcard reports whether i (plain or pair) contains a wildcard in
// any position.
func (i Id) HasAnyWildcard() bool {
	if i.IsPair() {
		return i.RelationIsWildcard() || i.ObjectIsWildcard()
	}
	return i.IsWildcard()
}

// Matches reports whether a concrete candidate id satisfies pattern, treating
// any wildcard component of pattern as matching anything in that position.
// Matching is always generation-free for pair components and for the
// candidate's own generation, by design (see package doc).
func (i Id) Matches(candidate Id) bool {
	if i.IsPair() != candidate.IsPair() {
		return false
	}
	if !i.IsPair() {
		if i.IsWildcard() {
			return true
		}
		return i.Low() == candidate.Low()
	}
	relOK := i.RelationIsWildcard() || i.Relation() == candidate.Relation()
	objOK := i.ObjectIsWildcard() || i.Object() == candidate.Object()
	return relOK && objOK
}

func (i Id) String() string {
	if i.IsPair() {
		return fmt.Sprintf("(%s,%s)", fmtComponent(i.Relation()), fmtComponent(i.Object()))
	}
	if i.IsWildcard() {
		return "*"
	}
	return fmt.Sprintf("%d", uint64(i.Low()))
}

func fmtComponent(c Id) string {
	// c may come from either Relation() (genMask-width) or Object()/Low()
	// (full 32-bit), so both sentinel values print as wildcard.
	if c == Wildcard || c == genMask {
		return "*"
	}
	return fmt.Sprintf("%d", uint64(c))
}
