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

package taint

import (
	"strings"

	"github.com/awslabs/ar-plc-tools/analysis/lang"
	"github.com/awslabs/ar-plc-tools/internal/funcutil"
)

// Matcher decides whether a guard condition range-constrains a variable.
//
// A guard constrains v when some sub-term of it, looking through AND, OR, XOR and NOT, is
//   - a bounding comparison between v and a number literal: an upper bound (v < 10, v <= 10, 10 > v) or an
//     equality (v = 3). A lower bound alone (v > 0) leaves the value unbounded.
//   - a call to one of the helper predicates with v among its arguments, e.g. IN_RANGE(v, 0, 100).
//
// NOT flips the comparison it applies to: NOT (v > 100) bounds v, NOT (v < 100) does not.
type Matcher struct {
	helpers map[string]bool
}

// NewMatcher returns a matcher recognizing the given helper predicate names (case-insensitive).
func NewMatcher(helpers []string) Matcher {
	m := Matcher{helpers: map[string]bool{}}
	for _, h := range helpers {
		m.helpers[lang.Canonical(h)] = true
	}
	return m
}

// Constrains returns true if guard range-constrains the variable name.
func (m Matcher) Constrains(guard lang.Expression, name string) bool {
	c := lang.Canonical(name)
	return visitTerms(guard, true, func(term lang.Expression, positive bool) bool {
		switch t := term.(type) {
		case *lang.BinaryOp:
			op, other, ok := comparisonOn(t, c, positive)
			if !ok {
				return false
			}
			_, isNumber := other.(*lang.NumberLiteral)
			return isNumber && isBounding(op)
		case *lang.FuncCall:
			return positive && m.helpers[lang.Canonical(t.Name)] && hasVarArg(t, c)
		}
		return false
	})
}

// limitKeywords are the name fragments of constants and helpers that conventionally express a limit
var limitKeywords = []string{"LIMIT", "BOUND", "RANGE", "MIN", "MAX"}

// LimitKeywordFallback is a secondary, text-based sanitizer for guards the structural [Matcher] does not
// recognize. It accepts a guard that compares a value variable against a named limit (v <= SPEED_MAX) or passes
// it to a helper whose name mentions a limit (CHECK_LIMITS(v)). It is meant to be used as a
// Problem.ExtraSanitizer.
func LimitKeywordFallback(site GuardSite) bool {
	for _, g := range site.Guards {
		for _, v := range site.Vars {
			c := lang.Canonical(v)
			found := visitTerms(g, true, func(term lang.Expression, positive bool) bool {
				switch t := term.(type) {
				case *lang.BinaryOp:
					op, other, ok := comparisonOn(t, c, positive)
					return ok && isBounding(op) && !lang.IsLiteral(other) &&
						lang.ContainsAny(lang.ExprText(other), limitKeywords...)
				case *lang.FuncCall:
					return positive && lang.ContainsAny(t.Name, limitKeywords...) && hasVarArg(t, c)
				}
				return false
			})
			if found {
				return true
			}
		}
	}
	return false
}

// IsFlagGate returns true if the guard tests a validation flag: a variable whose name ends with OK or VALID, or
// contains AUTHORIZED, used positively (Speed_OK, Speed_OK = TRUE).
func IsFlagGate(guard lang.Expression) bool {
	return visitTerms(guard, true, func(term lang.Expression, positive bool) bool {
		if !positive {
			return false
		}
		switch t := term.(type) {
		case *lang.VariableRef:
			return isFlagName(t.Name)
		case *lang.BinaryOp:
			if t.Op != lang.Eq {
				return false
			}
			l, lok := t.Left.(*lang.VariableRef)
			r, rok := t.Right.(*lang.VariableRef)
			return (lok && isFlagName(l.Name) && lang.IsTrue(t.Right)) ||
				(rok && isFlagName(r.Name) && lang.IsTrue(t.Left))
		}
		return false
	})
}

func isFlagName(name string) bool {
	return lang.HasSuffixAny(name, "OK", "VALID") || lang.ContainsAny(name, "AUTHORIZED")
}

// ExcludesZero returns true if the guard proves the expression divisor is not zero: divisor <> 0, divisor > 0,
// 0 < divisor, or NOT (divisor = 0). The divisor is compared by its canonical text.
func ExcludesZero(guard lang.Expression, divisor lang.Expression) bool {
	d := lang.Canonical(lang.ExprText(divisor))
	if d == "" {
		return false
	}
	return visitTerms(guard, true, func(term lang.Expression, positive bool) bool {
		t, ok := term.(*lang.BinaryOp)
		if !ok || !t.Op.IsComparison() {
			return false
		}
		op := t.Op
		if !positive {
			op = negate(op)
		}
		var other lang.Expression
		switch {
		case lang.Canonical(lang.ExprText(t.Left)) == d:
			other = t.Right
		case lang.Canonical(lang.ExprText(t.Right)) == d:
			other = t.Left
			op = op.Flip()
		default:
			return false
		}
		if !lang.IsFalse(other) {
			return false
		}
		return op == lang.Neq || op == lang.Gt
	})
}

// visitTerms calls f on every sub-term of e, looking through boolean connectives. positive is false under an odd
// number of NOTs. Returns true as soon as f does.
func visitTerms(e lang.Expression, positive bool, f func(term lang.Expression, positive bool) bool) bool {
	switch t := e.(type) {
	case nil:
		return false
	case *lang.BinaryOp:
		switch t.Op {
		case lang.And, lang.Or, lang.Xor:
			return visitTerms(t.Left, positive, f) || visitTerms(t.Right, positive, f)
		}
	case *lang.UnaryOp:
		return visitTerms(t.Operand, !positive, f)
	}
	return f(e, positive)
}

// comparisonOn normalizes the comparison b so that the variable c is its left operand. It returns the effective
// operator (negated when positive is false) and the other operand.
func comparisonOn(b *lang.BinaryOp, c string, positive bool) (lang.BinaryOperator, lang.Expression, bool) {
	if !b.Op.IsComparison() {
		return 0, nil, false
	}
	op := b.Op
	if !positive {
		op = negate(op)
	}
	if isVar(b.Left, c) {
		return op, b.Right, true
	}
	if isVar(b.Right, c) {
		return op.Flip(), b.Left, true
	}
	return 0, nil, false
}

func isBounding(op lang.BinaryOperator) bool {
	return op == lang.Lt || op == lang.Le || op == lang.Eq
}

func negate(op lang.BinaryOperator) lang.BinaryOperator {
	switch op {
	case lang.Lt:
		return lang.Ge
	case lang.Le:
		return lang.Gt
	case lang.Gt:
		return lang.Le
	case lang.Ge:
		return lang.Lt
	case lang.Eq:
		return lang.Neq
	case lang.Neq:
		return lang.Eq
	}
	return op
}

func isVar(e lang.Expression, c string) bool {
	v, ok := e.(*lang.VariableRef)
	return ok && lang.Canonical(v.Name) == c
}

func hasVarArg(call *lang.FuncCall, c string) bool {
	return funcutil.Exists(call.Args, func(a lang.Expression) bool { return isVar(a, c) })
}

// Guards is the guard context of a statement: the conditions of the enclosing IF then-branches, outermost first.
type Guards []lang.Expression

// Constrains returns true if some guard range-constrains the variable name.
func (g Guards) Constrains(m Matcher, name string) bool {
	return funcutil.Exists(g, func(e lang.Expression) bool { return m.Constrains(e, name) })
}

// ConstrainsAny returns true if some guard range-constrains some of the names.
func (g Guards) ConstrainsAny(m Matcher, names []string) bool {
	return funcutil.Exists(names, func(n string) bool { return g.Constrains(m, n) })
}

// HasFlagGate returns true if some guard tests a validation flag.
func (g Guards) HasFlagGate() bool {
	return funcutil.Exists(g, IsFlagGate)
}

// Text returns the canonical text of the conjunction of the guards.
func (g Guards) Text() string {
	return strings.Join(funcutil.Map(g, func(e lang.Expression) string {
		if b, ok := e.(*lang.BinaryOp); ok && b.Op.Precedence() < lang.And.Precedence() {
			return "(" + lang.ExprText(e) + ")"
		}
		return lang.ExprText(e)
	}), " AND ")
}

// GuardSite is what a sanitizer gets to decide on a value: the guards in effect and the value itself.
type GuardSite struct {
	Guards Guards
	Value  lang.Expression
	// Vars are the variables of Value, in order of appearance
	Vars []string
}

// GuardText returns the canonical text of the guards
func (s GuardSite) GuardText() string {
	return s.Guards.Text()
}

// ValueText returns the canonical text of the value
func (s GuardSite) ValueText() string {
	return lang.ExprText(s.Value)
}
