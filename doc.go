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

// Package rules implements a declarative rule query engine over an
// Entity-Component-System store: terms over entities, components and
// binary relationships are compiled into a flat instruction program and
// executed by a backtracking interpreter that enumerates every satisfying
// variable binding, including joins, transitive relationships, implicit
// IsA inheritance, negation and optional terms.
//
// A caller builds a World around their own store.Store, compiles a term
// list with an Engine, then iterates the resulting Rule:
//
//	world := rules.NewWorld(myStore)
//	engine := rules.NewEngine(myStore)
//	rule, err := engine.Compile(ctx, terms, "IsA(This, Character)")
//	it := rule.Iter(ctx, world)
//	defer it.Free()
//	for it.Next() {
//	    // it.GetVar(".") etc.
//	}
package rules
