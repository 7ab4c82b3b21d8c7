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
)

// opCtx is the mutable, per-instruction iteration state that persists
// across Next() calls: which table Select is currently on, which entity
// Each is currently on, the DFS stack/visited set for SubSet/SuperSet. It
// is what lets the VM suspend mid-search and resume cleanly.
type opCtx struct {
	// Select: tIdx is the current table within tables; col is the last
	// matched column within that table, -1 until a match has been found, so
	// a redo resumes the find-next-column scan one past it (same table) or
	// moves on to the next table once the current one is exhausted.
	tables []store.TableRecord
	tIdx   int
	col    int

	// Each
	entities []id.Id
	eIdx     int

	// SubSet/SuperSet enumeration. seed is the known value the stack/visited
	// set were built from, so a later dispatch can tell a true continuation
	// (same seed) from a fresh restart with a new known value apart from
	// the interpreter's own redo flag, which this op can't rely on (see
	// dispatchClosure).
	stack   []id.Id
	visited map[id.Id]bool
	started bool
	seed    id.Id

	// SetJmp: whether this is the first (self-yield) pass.
	firstPass bool
}
