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

// Package lang defines the dialect-independent representation of control logic programs: routines,
// statements and expressions. Front ends build values of these types; the analyses only read them.
//
// Statements and expressions are closed sets of variants. Use [StmtSwitch] and [ExprSwitch] with a
// [StmtOp] or [ExprOp] to make sure every variant is handled.
package lang

// Program is an ordered sequence of routines, in source order.
type Program struct {
	Functions []*Function
}

// Function is a single routine (FC, FB, PROGRAM or organization block).
type Function struct {
	Name string
	Kind FunctionKind
	Body []Statement
	Line int
}

// FindKind returns the first routine of the given kind, or nil if there is none.
func (p *Program) FindKind(k FunctionKind) *Function {
	if p == nil {
		return nil
	}
	for _, f := range p.Functions {
		if f.Kind == k {
			return f
		}
	}
	return nil
}

// FindName returns the routine with the given name, compared case-insensitively.
func (p *Program) FindName(name string) *Function {
	if p == nil {
		return nil
	}
	n := Canonical(name)
	for _, f := range p.Functions {
		if Canonical(f.Name) == n {
			return f
		}
	}
	return nil
}

// A Statement is one of *Assign, *Call, *If, *Case, *ExprStmt or *Comment.
type Statement interface {
	StmtLine() int
	stmtNode()
}

// Assign is `Target := Value`. The target is a *VariableRef or an *Index whose base is a *VariableRef.
type Assign struct {
	Target Expression
	Value  Expression
	Line   int
}

// Arg is a call argument. Name is empty for positional arguments. Output marks `name => var` bindings.
type Arg struct {
	Name   string
	Value  Expression
	Output bool
}

// Call is a statement-level call of a function or function block instance.
type Call struct {
	Name string
	Args []Arg
	Line int
}

// If is a conditional. ELSIF chains are represented as a nested If in Else.
type If struct {
	Cond Expression
	Then []Statement
	Else []Statement
	Line int
}

// CaseArm is one labeled arm of a Case. Labels is never empty.
type CaseArm struct {
	Labels []Expression
	Body   []Statement
}

// Case is a multi-way branch on Scrutinee.
type Case struct {
	Scrutinee Expression
	Arms      []CaseArm
	Else      []Statement
	Line      int
}

// ExprStmt is an expression evaluated for its effects, typically a function call.
type ExprStmt struct {
	Value Expression
	Line  int
}

// Comment is a source comment retained by the front end for annotation scanning.
type Comment struct {
	Text string
	Line int
}

func (s *Assign) StmtLine() int   { return s.Line }
func (s *Call) StmtLine() int     { return s.Line }
func (s *If) StmtLine() int       { return s.Line }
func (s *Case) StmtLine() int     { return s.Line }
func (s *ExprStmt) StmtLine() int { return s.Line }
func (s *Comment) StmtLine() int  { return s.Line }

func (*Assign) stmtNode()   {}
func (*Call) stmtNode()     {}
func (*If) stmtNode()       {}
func (*Case) stmtNode()     {}
func (*ExprStmt) stmtNode() {}
func (*Comment) stmtNode()  {}

// An Expression is one of *NumberLiteral, *BoolLiteral, *StringLiteral, *VariableRef, *UnaryOp,
// *BinaryOp, *Index or *FuncCall.
type Expression interface {
	ExprLine() int
	exprNode()
}

// NumberLiteral is an integer constant. Typed and time literals are normalized by the front end.
type NumberLiteral struct {
	Value int64
	Line  int
}

// BoolLiteral is TRUE or FALSE.
type BoolLiteral struct {
	Value bool
	Line  int
}

// StringLiteral is a quoted string constant, without its quotes.
type StringLiteral struct {
	Value string
	Line  int
}

// VariableRef names a variable, possibly dotted (`Motor.Speed`, `SW.OV`) or a direct address (`%MW100`).
type VariableRef struct {
	Name string
}

// UnaryOp is a prefix operation. NOT is the only unary operator; negation is folded by the front ends.
type UnaryOp struct {
	Op      UnaryOperator
	Operand Expression
	Line    int
}

// BinaryOp is an infix operation.
type BinaryOp struct {
	Op    BinaryOperator
	Left  Expression
	Right Expression
	Line  int
}

// Index is an array access `Base[Index]`.
type Index struct {
	Base  Expression
	Index Expression
	Line  int
}

// FuncCall is a call used as a value. Argument names are dropped.
type FuncCall struct {
	Name string
	Args []Expression
	Line int
}

func (e *NumberLiteral) ExprLine() int { return e.Line }
func (e *BoolLiteral) ExprLine() int   { return e.Line }
func (e *StringLiteral) ExprLine() int { return e.Line }
func (e *VariableRef) ExprLine() int   { return 0 }
func (e *UnaryOp) ExprLine() int       { return e.Line }
func (e *BinaryOp) ExprLine() int      { return e.Line }
func (e *Index) ExprLine() int         { return e.Line }
func (e *FuncCall) ExprLine() int      { return e.Line }

func (*NumberLiteral) exprNode() {}
func (*BoolLiteral) exprNode()   {}
func (*StringLiteral) exprNode() {}
func (*VariableRef) exprNode()   {}
func (*UnaryOp) exprNode()       {}
func (*BinaryOp) exprNode()      {}
func (*Index) exprNode()         {}
func (*FuncCall) exprNode()      {}

// UnaryOperator is the operator of a UnaryOp.
type UnaryOperator int

const (
	// Not is boolean negation.
	Not UnaryOperator = iota
)

// BinaryOperator is the operator of a BinaryOp.
type BinaryOperator int

// Binary operators, in no particular order. See [BinaryOperator.Precedence].
const (
	Add BinaryOperator = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Neq
	Lt
	Le
	Gt
	Ge
	And
	Or
	Xor
)

var binaryOperatorText = [...]string{
	Add: "+",
	Sub: "-",
	Mul: "*",
	Div: "/",
	Mod: "MOD",
	Eq:  "=",
	Neq: "<>",
	Lt:  "<",
	Le:  "<=",
	Gt:  ">",
	Ge:  ">=",
	And: "AND",
	Or:  "OR",
	Xor: "XOR",
}

func (op BinaryOperator) String() string {
	if int(op) < len(binaryOperatorText) {
		return binaryOperatorText[op]
	}
	return "?"
}

// Precedence returns the binding strength of the operator: OR < XOR < AND < comparisons < +,- < *,/,MOD.
func (op BinaryOperator) Precedence() int {
	switch op {
	case Or:
		return 1
	case Xor:
		return 2
	case And:
		return 3
	case Eq, Neq, Lt, Le, Gt, Ge:
		return 4
	case Add, Sub:
		return 5
	case Mul, Div, Mod:
		return 6
	}
	return 0
}

// IsComparison returns true for =, <>, <, <=, > and >=.
func (op BinaryOperator) IsComparison() bool {
	return op.Precedence() == 4
}

// IsDivision returns true for the operators that fail on a zero right operand.
func (op BinaryOperator) IsDivision() bool {
	return op == Div || op == Mod
}

// Flip returns the comparison with its operands swapped: `a < b` is `b > a`.
func (op BinaryOperator) Flip() BinaryOperator {
	switch op {
	case Lt:
		return Gt
	case Le:
		return Ge
	case Gt:
		return Lt
	case Ge:
		return Le
	}
	return op
}
