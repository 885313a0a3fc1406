// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reachability

import "github.com/awslabs/ar-plc-tools/analysis/lang"

// calleeVisitor collects the names called by a statement: called function blocks and functions called inside
// expressions. It implements lang.StmtOp; nested bodies are reached through lang.WalkStatements.
type calleeVisitor struct {
	calls []callSite
}

type callSite struct {
	name string
	line int
}

func (v *calleeVisitor) expr(e lang.Expression) {
	for _, c := range lang.FuncCalls(e) {
		v.calls = append(v.calls, callSite{name: c.Name, line: c.Line})
	}
}

func (v *calleeVisitor) DoAssign(s *lang.Assign) {
	v.expr(s.Target)
	v.expr(s.Value)
}

func (v *calleeVisitor) DoCall(s *lang.Call) {
	v.calls = append(v.calls, callSite{name: s.Name, line: s.Line})
	for _, a := range s.Args {
		v.expr(a.Value)
	}
}

func (v *calleeVisitor) DoIf(s *lang.If) {
	v.expr(s.Cond)
}

func (v *calleeVisitor) DoCase(s *lang.Case) {
	v.expr(s.Scrutinee)
	for _, arm := range s.Arms {
		for _, l := range arm.Labels {
			v.expr(l)
		}
	}
}

func (v *calleeVisitor) DoExprStmt(s *lang.ExprStmt) {
	v.expr(s.Value)
}

func (v *calleeVisitor) DoComment(*lang.Comment) {}

// callSites returns the call sites of a routine body, in source order
func callSites(body []lang.Statement, maxDepth int) ([]callSite, error) {
	v := &calleeVisitor{}
	err := lang.WalkStatements(body, maxDepth, func(s lang.Statement, _ int) error {
		lang.StmtSwitch(v, s)
		return nil
	})
	return v.calls, err
}
