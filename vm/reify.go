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
	"github.com/jtferson/flecs/id"
	"github.com/jtferson/flecs/store"
	"github.com/jtferson/flecs/term"
)

// reifyMask builds the concrete (or still-partially-wildcarded) filter id
// for p against the current frame: a variable predicate/object that is
// already bound contributes its concrete value; one that is still unbound
// contributes Wildcard. This is what lets a term whose predicate or object
// was bound by an earlier term (in dependency order) narrow a later Select
// or With instead of scanning every table carrying the bare relation.
func reifyMask(p term.Pair, f frame) id.Id {
	pred := p.PredLit
	if p.PredIsVar {
		if r := f.regs[p.PredReg]; r.bound {
			pred = r.Entity
		} else {
			pred = id.Wildcard
		}
	}
	if !p.HasObject {
		return pred
	}
	obj := p.ObjLit
	if p.ObjIsVar {
		if r := f.regs[p.ObjReg]; r.bound {
			obj = r.Entity
		} else {
			obj = id.Wildcard
		}
	}
	return id.Pair(pred, obj)
}

// findColumnFrom is the find-next-column search (§4.6): scan tableType from
// column from onward for the next id matching mask. When sameVar is set, a
// candidate column must additionally have its pair's relation equal its
// object (the same-var constraint for a pair term whose predicate and
// object reference the same variable register, e.g. `_X(., _X)`); a column
// that matches the mask but fails same-var is skipped rather than accepted.
func findColumnFrom(tableType []id.Id, mask id.Id, sameVar bool, from int) (matched id.Id, column int, found bool) {
	for i := from; i < len(tableType); i++ {
		tid := tableType[i]
		if !mask.Matches(tid) {
			continue
		}
		if sameVar && (!tid.IsPair() || tid.Relation() != tid.Object()) {
			continue
		}
		return tid, i, true
	}
	return 0, 0, false
}

// parentsOf returns the direct objects of relation rel for entity e (e's
// ancestors one hop up), read off e's own table type.
func parentsOf(st store.Store, e id.Id, rel id.Id) []id.Id {
	table, _, ok := st.ResolveEntity(e)
	if !ok {
		return nil
	}
	var out []id.Id
	for _, tid := range st.TableType(table) {
		if tid.IsPair() && !tid.RelationIsWildcard() && tid.Relation() == rel.Low() {
			out = append(out, tid.Object())
		}
	}
	return out
}

// childrenOf returns every entity that directly relates to e via rel (e's
// descendants one hop down), via the inverted id index.
func childrenOf(st store.Store, e id.Id, rel id.Id) []id.Id {
	rec, ok := st.LookupIdRecord(id.Pair(rel, e))
	if !ok {
		return nil
	}
	var out []id.Id
	for _, tr := range rec.Tables() {
		out = append(out, st.TableEntities(tr.Table)...)
	}
	return out
}
