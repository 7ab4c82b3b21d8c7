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

package main

import (
	"context"
	"fmt"

	rules "github.com/jtferson/flecs"
	"github.com/jtferson/flecs/compile"
	"github.com/jtferson/flecs/id"
	"github.com/jtferson/flecs/memstore"
	"github.com/jtferson/flecs/store"
	"github.com/jtferson/flecs/term"
)

// This is an example of how to build a world and run rule queries against
// it. It seeds the Star Wars IsA graph used throughout the design notes:
// Character IsA Thing, with Human/Droid/Creature IsA Character, a
// HomePlanet relation, and a couple of tag components.
//
// > go run ./cmd/rulequery
// Creatures and their kin (IsA Character, inclusive):
//   character
//   droid
//   human
//   creature
// Home planets:
//   yoda -> dagobah
//   luke -> tatooine
//   rey -> tatooine

type world struct {
	ms *memstore.Store

	isA, homePlanet                          id.Id
	thing, character, creature, human, droid id.Id
	yoda, luke, r2d2, rey                    id.Id
	tatooine, dagobah                        id.Id
	names                                    map[id.Id]string
}

func buildWorld() *world {
	ms := memstore.New()
	w := &world{ms: ms, names: map[id.Id]string{}}

	w.isA = compile.IsATrait
	ms.SetTrait(w.isA, store.Transitive)
	ms.SetTrait(w.isA, store.TransitiveSelf)

	w.thing = w.newEntity("thing")
	w.character = w.newEntity("character")
	w.creature = w.newEntity("creature")
	w.human = w.newEntity("human")
	w.droid = w.newEntity("droid")
	ms.AddPair(w.character, w.isA, w.thing)
	ms.AddPair(w.creature, w.isA, w.character)
	ms.AddPair(w.human, w.isA, w.character)
	ms.AddPair(w.droid, w.isA, w.character)

	w.homePlanet = w.newEntity("HomePlanet")
	w.tatooine = w.newEntity("tatooine")
	w.dagobah = w.newEntity("dagobah")

	w.yoda = w.newEntity("yoda")
	w.luke = w.newEntity("luke")
	w.r2d2 = w.newEntity("r2d2")
	w.rey = w.newEntity("rey")
	ms.Add(w.yoda, w.creature)
	ms.Add(w.luke, w.human)
	ms.Add(w.r2d2, w.droid)
	ms.Add(w.rey, w.human)

	ms.AddPair(w.luke, w.homePlanet, w.tatooine)
	ms.AddPair(w.rey, w.homePlanet, w.tatooine)
	ms.AddPair(w.yoda, w.homePlanet, w.dagobah)

	return w
}

func (w *world) newEntity(name string) id.Id {
	e := w.ms.NewEntity()
	w.names[e] = name
	return e
}

func (w *world) name(e id.Id) string {
	if n, ok := w.names[e]; ok {
		return n
	}
	return e.String()
}

func main() {
	w := buildWorld()
	ctx := context.Background()
	engine := rules.NewEngine(w.ms)
	instance := rules.NewWorld(w.ms)

	fmt.Println("Creatures and their kin (IsA Character, inclusive):")
	kin, err := engine.Compile(ctx, []term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(w.isA), Object: term.Literal(w.character), HasObject: true},
	}, "IsA(., character)")
	if err != nil {
		panic(err)
	}
	it := kin.Iter(ctx, instance)
	for it.Next() {
		for _, e := range it.Entities() {
			fmt.Printf("  %s\n", w.name(e))
		}
	}
	it.Free()

	fmt.Println("Home planets:")
	homes, err := engine.Compile(ctx, []term.Term{
		{Subject: term.Variable("."), Predicate: term.Literal(w.homePlanet), Object: term.Variable("Planet"), HasObject: true},
	}, "HomePlanet(., $Planet)")
	if err != nil {
		panic(err)
	}
	it = homes.Iter(ctx, instance)
	for it.Next() {
		for _, e := range it.Entities() {
			planet, ok, err := it.GetVar("Planet")
			if err != nil {
				panic(err)
			}
			if !ok {
				continue
			}
			fmt.Printf("  %s -> %s\n", w.name(e), w.name(planet))
		}
	}
	it.Free()
}
