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
	"context"
	"sync"

	"github.com/mitchellh/hashstructure"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/jtferson/flecs/compile"
	"github.com/jtferson/flecs/store"
	"github.com/jtferson/flecs/term"
)

// RuleCache memoizes compiled rules by the structural hash of their term
// list, mirroring the teacher engine's PreparedDataCache: compiling the
// same expression repeatedly (a hot rule re-evaluated every frame, say)
// should not re-run the orderer and emitter each time.
type RuleCache struct {
	rules map[uint64]*Rule
	mu    *sync.Mutex
}

// NewRuleCache returns an empty cache.
func NewRuleCache() *RuleCache {
	return &RuleCache{rules: make(map[uint64]*Rule), mu: &sync.Mutex{}}
}

func (c *RuleCache) get(key uint64) (*Rule, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rules[key]
	return r, ok
}

func (c *RuleCache) put(key uint64, r *Rule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules[key] = r
}

// Engine compiles term lists into Rules, against a fixed Store for trait
// lookups (HasTrait drives the transitive/final/inclusive lowering).
type Engine struct {
	Store store.Store
	Cache *RuleCache
}

// NewEngine returns an Engine compiling rules against st.
func NewEngine(st store.Store) *Engine {
	return &Engine{Store: st, Cache: NewRuleCache()}
}

// Compile runs C3 (dependency ordering) and C4 (emission) over terms,
// returning a Rule ready to iterate. expr is an optional source expression
// retained for diagnostics and the §6 disassembly header. Identical term
// lists (by structural hash) return the cached Rule instead of recompiling.
func (e *Engine) Compile(ctx context.Context, terms []term.Term, expr string) (*Rule, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "rules.Engine.Compile")
	defer span.Finish()

	key, err := hashstructure.Hash(terms, nil)
	if err != nil {
		return nil, errors.Wrap(err, "hashing rule terms")
	}
	if r, ok := e.Cache.get(key); ok {
		return r, nil
	}

	prog, err := compile.Emit(terms, expr, e.Store)
	if err != nil {
		return nil, ErrCompile.Wrap(err, expr)
	}

	r := &Rule{program: prog, terms: terms}
	e.Cache.put(key, r)
	return r, nil
}
