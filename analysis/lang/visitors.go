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

import "fmt"

// A StmtOp must implement methods for ALL statement variants.
type StmtOp interface {
	DoAssign(*Assign)
	DoCall(*Call)
	DoIf(*If)
	DoCase(*Case)
	DoExprStmt(*ExprStmt)
	DoComment(*Comment)
}

// StmtSwitch dispatches the statement to the method of the visitor for its variant.
func StmtSwitch(visitor StmtOp, stmt Statement) {
	switch stmt := stmt.(type) {
	case *Assign:
		visitor.DoAssign(stmt)
	case *Call:
		visitor.DoCall(stmt)
	case *If:
		visitor.DoIf(stmt)
	case *Case:
		visitor.DoCase(stmt)
	case *ExprStmt:
		visitor.DoExprStmt(stmt)
	case *Comment:
		visitor.DoComment(stmt)
	default:
		panic(fmt.Sprintf("unknown statement type %T", stmt))
	}
}

// An ExprOp must implement methods for ALL expression variants.
type ExprOp interface {
	DoNumber(*NumberLiteral)
	DoBool(*BoolLiteral)
	DoString(*StringLiteral)
	DoVariable(*VariableRef)
	DoUnary(*UnaryOp)
	DoBinary(*BinaryOp)
	DoIndex(*Index)
	DoFuncCall(*FuncCall)
}

// ExprSwitch dispatches the expression to the method of the visitor for its variant.
//
//gocyclo:ignore
func ExprSwitch(visitor ExprOp, e Expression) {
	switch e := e.(type) {
	case *NumberLiteral:
		visitor.DoNumber(e)
	case *BoolLiteral:
		visitor.DoBool(e)
	case *StringLiteral:
		visitor.DoString(e)
	case *VariableRef:
		visitor.DoVariable(e)
	case *UnaryOp:
		visitor.DoUnary(e)
	case *BinaryOp:
		visitor.DoBinary(e)
	case *Index:
		visitor.DoIndex(e)
	case *FuncCall:
		visitor.DoFuncCall(e)
	case nil:
	default:
		panic(fmt.Sprintf("unknown expression type %T", e))
	}
}

// InspectExpr traverses e in pre-order, calling f on every node. If f returns false, the children of that node
// are skipped.
func InspectExpr(e Expression, f func(Expression) bool) {
	if e == nil || !f(e) {
		return
	}
	switch e := e.(type) {
	case *UnaryOp:
		InspectExpr(e.Operand, f)
	case *BinaryOp:
		InspectExpr(e.Left, f)
		InspectExpr(e.Right, f)
	case *Index:
		InspectExpr(e.Base, f)
		InspectExpr(e.Index, f)
	case *FuncCall:
		for _, a := range e.Args {
			InspectExpr(a, f)
		}
	}
}
