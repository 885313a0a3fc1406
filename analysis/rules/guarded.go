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

package rules

import (
	"fmt"

	"github.com/awslabs/ar-plc-tools/analysis/lang"
	"github.com/awslabs/ar-plc-tools/analysis/taint"
)

// guardedCheck is a check of the expressions of one statement, given the guards in effect
type guardedCheck func(s lang.Statement, guards taint.Guards) []Violation

// walkGuarded runs check on every statement of every routine
func walkGuarded(c *Context, check guardedCheck) ([]Violation, error) {
	var res []Violation
	for _, f := range c.Program.Functions {
		err := taint.WalkGuarded(f.Body, c.MaxDepth(), func(s lang.Statement, g taint.Guards) {
			res = append(res, check(s, g)...)
		})
		if err != nil {
			return nil, fmt.Errorf("in %s: %w", f.Name, err)
		}
	}
	return res, nil
}

func checkDivisions(c *Context) ([]Violation, error) {
	return walkGuarded(c, func(s lang.Statement, guards taint.Guards) []Violation {
		if statusWordChecked(guards) {
			return nil
		}
		var res []Violation
		for _, e := range readExprs(s) {
			lang.InspectExpr(e, func(x lang.Expression) bool {
				b, ok := x.(*lang.BinaryOp)
				if !ok || !b.Op.IsDivision() {
					return true
				}
				if divisorChecked(guards, b.Right) {
					return true
				}
				res = append(res, Violation{
					Line:       s.StmtLine(),
					Reason:     fmt.Sprintf("Division '%s' without status-word / zero-divisor guard", lang.ExprText(b)),
					Suggestion: "Wrap division inside IF SW.OV=0 AND SW.OS=0 AND divisor<>0 THEN ...",
				})
				// the operands of a reported division are not reported again
				return false
			})
		}
		return res
	})
}

// statusWordChecked returns true if the guards require both the overflow (SW.OV) and the stored overflow (SW.OS)
// bits of the status word to be cleared
func statusWordChecked(guards taint.Guards) bool {
	ov, os := false, false
	for _, g := range guards {
		for _, conj := range lang.Conjuncts(g) {
			ov = ov || isClearedFlag(conj, "SW.OV")
			os = os || isClearedFlag(conj, "SW.OS")
		}
	}
	return ov && os
}

// isClearedFlag returns true for `flag = 0`, `flag = FALSE` and `NOT flag`
func isClearedFlag(e lang.Expression, flag string) bool {
	switch e := e.(type) {
	case *lang.UnaryOp:
		v, ok := e.Operand.(*lang.VariableRef)
		return ok && lang.Canonical(v.Name) == flag
	case *lang.BinaryOp:
		if e.Op != lang.Eq {
			return false
		}
		if v, ok := e.Left.(*lang.VariableRef); ok && lang.Canonical(v.Name) == flag {
			return lang.IsFalse(e.Right)
		}
		if v, ok := e.Right.(*lang.VariableRef); ok && lang.Canonical(v.Name) == flag {
			return lang.IsFalse(e.Left)
		}
	}
	return false
}

func divisorChecked(guards taint.Guards, divisor lang.Expression) bool {
	if n, ok := divisor.(*lang.NumberLiteral); ok {
		return n.Value != 0
	}
	for _, g := range guards {
		if taint.ExcludesZero(g, divisor) {
			return true
		}
	}
	return false
}

var unsafeCopyFunctions = []string{"STRCPY", "MEMCPY", "S_MOVE"}

func checkIndirections(c *Context) ([]Violation, error) {
	m := c.Matcher()
	return walkGuarded(c, func(s lang.Statement, guards taint.Guards) []Violation {
		var res []Violation
		if call, ok := s.(*lang.Call); ok && lang.ContainsAny(call.Name, unsafeCopyFunctions...) {
			res = append(res, unsafeCallViolation(call.Name, call.Line))
		}
		exprs := readExprs(s)
		if a, ok := s.(*lang.Assign); ok {
			exprs = []lang.Expression{a.Target, a.Value}
		}
		for _, e := range exprs {
			lang.InspectExpr(e, func(x lang.Expression) bool {
				switch x := x.(type) {
				case *lang.FuncCall:
					if lang.ContainsAny(x.Name, unsafeCopyFunctions...) {
						res = append(res, unsafeCallViolation(x.Name, s.StmtLine()))
					}
				case *lang.Index:
					if v, ok := unboundedIndex(m, guards, x.Index); ok {
						res = append(res, Violation{
							Line:       s.StmtLine(),
							Reason:     fmt.Sprintf("Array %s indexed by variable '%s' without bounds check", lang.ExprText(x.Base), v),
							Suggestion: "Validate index against array bounds before access (e.g., IF index < LIMIT THEN...).",
						})
					}
				}
				return true
			})
		}
		return res
	})
}

func unsafeCallViolation(name string, line int) Violation {
	return Violation{
		Line:       line,
		Reason:     fmt.Sprintf("Call to potentially unsafe function '%s'", name),
		Suggestion: "Ensure destination buffer size is checked before calling memory copy functions.",
	}
}

// unboundedIndex returns the first variable of a computed index when none of its variables is bounded by the
// guards. Constant indices are always in bounds as far as this check is concerned.
func unboundedIndex(m taint.Matcher, guards taint.Guards, index lang.Expression) (string, bool) {
	vars := lang.Vars(index)
	if len(vars) == 0 {
		return "", false
	}
	if guards.ConstrainsAny(m, vars) {
		return "", false
	}
	if taint.LimitKeywordFallback(taint.GuardSite{Guards: guards, Value: index, Vars: vars}) {
		return "", false
	}
	return vars[0], true
}
