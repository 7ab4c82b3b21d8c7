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

package rules

import (
	goerrors "gopkg.in/src-d/go-errors.v1"
)

// ErrUnknownVariable is returned by Iterator.GetVar/SetVar for a name the
// compiled rule never bound.
var ErrUnknownVariable = goerrors.NewKind("unknown variable '%s'")

// ErrStaleEntity names the case of a literal id stored in a compiled rule
// that no longer resolves to a live entity at iteration time. No code path
// returns it: an op testing such a literal treats it as an entity with no
// components.
var ErrStaleEntity = goerrors.NewKind("entity %s no longer exists")

// ErrCompile wraps any error surfaced by the dependency orderer or emitter
// with the source expression that failed, so a caller sees what rule failed
// to compile without needing to know the internal package that raised it.
var ErrCompile = goerrors.NewKind("failed to compile rule %q")
