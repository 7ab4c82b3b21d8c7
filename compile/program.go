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

package compile

import (
	"fmt"
	"strings"

	"github.com/jtferson/flecs/vars"
)

// Program is the ordered array of operations a compiled rule evaluates.
type Program struct {
	Ops []Op

	// Vars is the rule's variable table, immutable after compilation.
	Vars *vars.Table

	// ThisVar is the register id bound to the root "." variable's Entity
	// form if present, the Table form if only that exists, or -1 if the
	// rule has no root variable at all (a boolean, "true"/"false" rule).
	ThisVar     int
	ThisIsTable bool

	// TermCount is the number of source terms the rule was compiled from
	// (excludes scaffolding ops).
	TermCount int

	// Expr is the optional source expression text, retained only for
	// diagnostics (errors and Disassemble headers).
	Expr string
}

// VarCount returns the number of distinct variables in the rule.
func (p *Program) VarCount() int { return p.Vars.Count() }

// OpCount returns the number of instructions in the program.
func (p *Program) OpCount() int { return len(p.Ops) }

// VarName returns the name of the variable with the given register id.
func (p *Program) VarName(id int) string {
	for _, v := range p.Vars.All() {
		if v.ID == id {
			return v.Name
		}
	}
	return ""
}

// Disassemble renders a per-instruction disassembly of the program, per
// the §6 debug interface format:
//
//	<ip>: [S:<frame>, P:<pass>, F:<fail>] <mnemonic> O:<out> I:<in> F:(pred,obj)
//
// Jump targets are printed as the ip they actually land on (not the
// SetJmp slot id), matching the original disassembler's behavior of
// printing resolved targets rather than raw label handles.
func (p *Program) Disassemble() string {
	var b strings.Builder
	if p.Expr != "" {
		fmt.Fprintf(&b, "# %s\n", p.Expr)
	}
	for ip, op := range p.Ops {
		fmt.Fprintf(&b, "%3d: [S:%d, P:%d, F:%d] %-8s O:%-3d I:%-3d F:%s\n",
			ip, op.Frame, op.OnPass, op.OnFail, op.Kind.String(), op.OutReg, op.InReg, op.Pair.Mask())
	}
	return b.String()
}
