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

package lang

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxDepth is the nesting depth past which recursive walks stop.
const DefaultMaxDepth = 100

// ErrMaxDepth is returned by walks when statement nesting exceeds the configured maximum depth.
var ErrMaxDepth = errors.New("maximum nesting depth exceeded")

// DepthError reports where the nesting limit was hit.
func DepthError(line int, max int) error {
	return fmt.Errorf("line %d: nesting deeper than %d: %w", line, max, ErrMaxDepth)
}

// Vars returns the names of the variables referenced in e, in order of first appearance and without
// duplicates (compared with [Canonical]). Called function names are not variables.
func Vars(e Expression) []string {
	var names []string
	seen := map[string]bool{}
	InspectExpr(e, func(x Expression) bool {
		if v, ok := x.(*VariableRef); ok {
			c := Canonical(v.Name)
			if !seen[c] {
				seen[c] = true
				names = append(names, v.Name)
			}
		}
		return true
	})
	return names
}

// References returns true if e references the variable name.
func References(e Expression, name string) bool {
	c := Canonical(name)
	found := false
	InspectExpr(e, func(x Expression) bool {
		if v, ok := x.(*VariableRef); ok && Canonical(v.Name) == c {
			found = true
		}
		return !found
	})
	return found
}

// FuncCalls returns the calls nested in e, outermost first.
func FuncCalls(e Expression) []*FuncCall {
	var calls []*FuncCall
	InspectExpr(e, func(x Expression) bool {
		if c, ok := x.(*FuncCall); ok {
			calls = append(calls, c)
		}
		return true
	})
	return calls
}

// TargetName returns the name of the variable written by an assignment target: the variable itself, or the
// base of an indexed target. Returns "" for any other shape.
func TargetName(target Expression) string {
	switch t := target.(type) {
	case *VariableRef:
		return t.Name
	case *Index:
		return TargetName(t.Base)
	}
	return ""
}

// Conjuncts splits e along AND: `a AND (b AND c)` returns [a b c].
func Conjuncts(e Expression) []Expression {
	if b, ok := e.(*BinaryOp); ok && b.Op == And {
		return append(Conjuncts(b.Left), Conjuncts(b.Right)...)
	}
	if e == nil {
		return nil
	}
	return []Expression{e}
}

// IsTrue returns true if e is the literal TRUE or a non-zero number.
func IsTrue(e Expression) bool {
	switch x := e.(type) {
	case *BoolLiteral:
		return x.Value
	case *NumberLiteral:
		return x.Value != 0
	}
	return false
}

// IsFalse returns true if e is the literal FALSE or zero.
func IsFalse(e Expression) bool {
	switch x := e.(type) {
	case *BoolLiteral:
		return !x.Value
	case *NumberLiteral:
		return x.Value == 0
	}
	return false
}

// IsLiteral returns true for number, boolean and string constants.
func IsLiteral(e Expression) bool {
	switch e.(type) {
	case *NumberLiteral, *BoolLiteral, *StringLiteral:
		return true
	}
	return false
}

// WalkStatements calls f on every statement of stmts and, recursively, of the bodies of If and Case
// statements, in source order. depth is 0 for stmts. Nesting deeper than maxDepth stops the walk with an
// error wrapping ErrMaxDepth. If f returns an error, the walk stops and returns it.
func WalkStatements(stmts []Statement, maxDepth int, f func(s Statement, depth int) error) error {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return walkStatements(stmts, 0, maxDepth, f)
}

func walkStatements(stmts []Statement, depth int, maxDepth int, f func(Statement, int) error) error {
	for _, s := range stmts {
		if err := f(s, depth); err != nil {
			return err
		}
		var bodies [][]Statement
		switch s := s.(type) {
		case *If:
			bodies = [][]Statement{s.Then, s.Else}
		case *Case:
			for _, arm := range s.Arms {
				bodies = append(bodies, arm.Body)
			}
			bodies = append(bodies, s.Else)
		default:
			continue
		}
		if depth+1 > maxDepth {
			return DepthError(s.StmtLine(), maxDepth)
		}
		for _, body := range bodies {
			if err := walkStatements(body, depth+1, maxDepth, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Assignments returns all the assignments of stmts, including nested ones, in source order. Nesting beyond
// maxDepth is silently ignored.
func Assignments(stmts []Statement, maxDepth int) []*Assign {
	var res []*Assign
	_ = WalkStatements(stmts, maxDepth, func(s Statement, _ int) error {
		if a, ok := s.(*Assign); ok {
			res = append(res, a)
		}
		return nil
	})
	return res
}

// ContainsAny returns true if the upper-cased s contains any of the (upper-case) needles.
func ContainsAny(s string, needles ...string) bool {
	u := strings.ToUpper(s)
	for _, n := range needles {
		if strings.Contains(u, n) {
			return true
		}
	}
	return false
}

// HasSuffixAny returns true if the upper-cased s ends with any of the (upper-case) suffixes.
func HasSuffixAny(s string, suffixes ...string) bool {
	u := strings.ToUpper(s)
	for _, n := range suffixes {
		if strings.HasSuffix(u, n) {
			return true
		}
	}
	return false
}
