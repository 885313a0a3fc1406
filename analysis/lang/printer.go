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
	"strconv"
	"strings"
)

// ExprText returns the canonical text of an expression. The output is deterministic: two structurally equal
// expressions always print the same. Sub-expressions are parenthesized only when the operator precedence
// requires it. A nil expression prints as the empty string.
func ExprText(e Expression) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

// Canonical returns the form of a name used for all name comparisons: trimmed and upper-cased.
func Canonical(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

//gocyclo:ignore
func writeExpr(b *strings.Builder, e Expression) {
	switch e := e.(type) {
	case nil:
	case *NumberLiteral:
		b.WriteString(strconv.FormatInt(e.Value, 10))
	case *BoolLiteral:
		if e.Value {
			b.WriteString("TRUE")
		} else {
			b.WriteString("FALSE")
		}
	case *StringLiteral:
		b.WriteByte('\'')
		b.WriteString(e.Value)
		b.WriteByte('\'')
	case *VariableRef:
		b.WriteString(e.Name)
	case *UnaryOp:
		b.WriteString("NOT ")
		_, isBinary := e.Operand.(*BinaryOp)
		writeOperand(b, e.Operand, isBinary)
	case *BinaryOp:
		p := e.Op.Precedence()
		writeOperand(b, e.Left, needsParens(e.Left, p, false))
		b.WriteByte(' ')
		b.WriteString(e.Op.String())
		b.WriteByte(' ')
		writeOperand(b, e.Right, needsParens(e.Right, p, true))
	case *Index:
		writeExpr(b, e.Base)
		b.WriteByte('[')
		writeExpr(b, e.Index)
		b.WriteByte(']')
	case *FuncCall:
		b.WriteString(e.Name)
		b.WriteByte('(')
		for i, a := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, a)
		}
		b.WriteByte(')')
	}
}

func writeOperand(b *strings.Builder, e Expression, parens bool) {
	if parens {
		b.WriteByte('(')
		writeExpr(b, e)
		b.WriteByte(')')
	} else {
		writeExpr(b, e)
	}
}

// needsParens decides whether the operand of a binary operator of precedence p must be parenthesized.
// Operators are left-associative, so a right operand of equal precedence needs parentheses.
func needsParens(operand Expression, p int, right bool) bool {
	bin, ok := operand.(*BinaryOp)
	if !ok {
		return false
	}
	q := bin.Op.Precedence()
	return q < p || (right && q == p)
}
