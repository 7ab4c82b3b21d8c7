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

// Package rules is the public surface of the rule query engine: Engine
// compiles term lists into Rules, and Rule.Iter walks a World's Store
// producing variable bindings (C7).
package rules

import (
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/jtferson/flecs/store"
)

// World wraps a caller-supplied Store with the identity and logging
// conventions the rest of the engine assumes: every World has a stable id
// for log correlation across long-running processes hosting more than one
// world, and a logger pre-tagged with that id (see Log). The engine itself
// writes no log lines.
type World struct {
	ID    uuid.UUID
	Store store.Store
	log   *logrus.Entry
}

// NewWorld wraps st, minting a fresh world identity.
func NewWorld(st store.Store) *World {
	w := &World{ID: uuid.NewV4(), Store: st}
	w.log = logrus.WithField("world", w.ID.String())
	return w
}

// Log returns the world's structured logger, pre-tagged with the world id.
func (w *World) Log() *logrus.Entry { return w.log }
