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

package frontend

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-plc-tools/analysis/lang"
)

// blockKinds maps the keywords opening a routine to their closing keyword
var blockKinds = map[string]string{
	"FUNCTION":           "END_FUNCTION",
	"FUNCTION_BLOCK":     "END_FUNCTION_BLOCK",
	"ORGANIZATION_BLOCK": "END_ORGANIZATION_BLOCK",
	"PROGRAM":            "END_PROGRAM",
}

// skippedBlocks are declarations without logic, skipped up to their closing keyword
var skippedBlocks = map[string]string{
	"TYPE":       "END_TYPE",
	"DATA_BLOCK": "END_DATA_BLOCK",
	"VAR_GLOBAL": "END_VAR",
}

// headerKeywords start attribute lines of a routine header (TITLE = ..., VERSION : 0.1)
var headerKeywords = map[string]bool{
	"TITLE":            true,
	"VERSION":          true,
	"AUTHOR":           true,
	"FAMILY":           true,
	"NAME":             true,
	"KNOW_HOW_PROTECT": true,
}

var varSections = map[string]bool{
	"VAR": true, "VAR_INPUT": true, "VAR_OUTPUT": true, "VAR_IN_OUT": true, "VAR_TEMP": true,
	"VAR_STAT": true, "VAR_CONSTANT": true, "VAR_EXTERNAL": true, "VAR_GLOBAL": true,
}

// routineEnds close any routine, so an unclosed IF or CASE is reported at the end of its routine
var routineEnds = map[string]bool{
	"END_FUNCTION": true, "END_FUNCTION_BLOCK": true, "END_ORGANIZATION_BLOCK": true, "END_PROGRAM": true,
}

var loopKeywords = map[string]bool{"FOR": true, "WHILE": true, "REPEAT": true}

// ParseSCL parses Structured Control Language source. The text is a sequence of routines (FUNCTION,
// FUNCTION_BLOCK, ORGANIZATION_BLOCK, PROGRAM); variable declarations are skipped. Loops are rejected.
func ParseSCL(src string) (*lang.Program, error) {
	toks, err := tokenize(src, 1)
	if err != nil {
		return nil, err
	}
	p := &sclParser{toks: toks}
	return p.program()
}

type sclParser struct {
	toks []token
	i    int
}

// peek returns the next token that is not a comment
func (p *sclParser) peek() token {
	return p.peekN(0)
}

// peekN returns the n-th next token that is not a comment
func (p *sclParser) peekN(n int) token {
	for j := p.i; j < len(p.toks); j++ {
		if p.toks[j].Kind == tokComment {
			continue
		}
		if n == 0 {
			return p.toks[j]
		}
		n--
	}
	return p.toks[len(p.toks)-1]
}

// advance consumes and returns the next token that is not a comment, dropping the comments before it
func (p *sclParser) advance() token {
	for p.i < len(p.toks)-1 && p.toks[p.i].Kind == tokComment {
		p.i++
	}
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return t
}

func (p *sclParser) match(k tokenKind) bool {
	if p.peek().Kind == k {
		p.advance()
		return true
	}
	return false
}

func (p *sclParser) need(k tokenKind, context string) (token, error) {
	if p.peek().Kind == k {
		return p.advance(), nil
	}
	return token{}, p.unexpected(fmt.Sprintf("%s %s", k, context))
}

func (p *sclParser) unexpected(expected string) error {
	t := p.peek()
	found := t.Kind.String()
	if t.Kind == tokIdent || t.Kind == tokNumber {
		found = fmt.Sprintf("%q", t.Text)
	}
	return &ParseError{Line: t.Line, Msg: fmt.Sprintf("expected %s, found %s", expected, found)}
}

// isKeyword returns true if t is the identifier kw, compared case-insensitively
func isKeyword(t token, kw string) bool {
	return t.Kind == tokIdent && strings.EqualFold(t.Text, kw)
}

func (p *sclParser) atKeyword(kws ...string) bool {
	t := p.peek()
	for _, kw := range kws {
		if isKeyword(t, kw) {
			return true
		}
	}
	return false
}

func (p *sclParser) needKeyword(kw string, context string) error {
	if p.atKeyword(kw) {
		p.advance()
		return nil
	}
	return p.unexpected(kw + " " + context)
}

func (p *sclParser) program() (*lang.Program, error) {
	prog := &lang.Program{}
	for {
		t := p.peek()
		if t.Kind == tokEOF {
			return prog, nil
		}
		kw := strings.ToUpper(t.Text)
		if t.Kind == tokIdent {
			if end, ok := blockKinds[kw]; ok {
				f, err := p.routine(kw, end)
				if err != nil {
					return nil, err
				}
				prog.Functions = append(prog.Functions, f)
				continue
			}
			if end, ok := skippedBlocks[kw]; ok {
				if err := p.skipTo(end); err != nil {
					return nil, err
				}
				continue
			}
		}
		return nil, p.unexpected("FUNCTION, FUNCTION_BLOCK, ORGANIZATION_BLOCK or PROGRAM")
	}
}

// skipTo consumes tokens up to and including the keyword end
func (p *sclParser) skipTo(end string) error {
	start := p.advance()
	for {
		t := p.advance()
		if t.Kind == tokEOF {
			return &ParseError{Line: start.Line, Msg: fmt.Sprintf("%s without %s", start.Text, end)}
		}
		if isKeyword(t, end) {
			p.match(tokSemicolon)
			return nil
		}
	}
}

func (p *sclParser) routine(kw string, end string) (*lang.Function, error) {
	start := p.advance()
	nameTok := p.peek()
	if nameTok.Kind != tokIdent && nameTok.Kind != tokNumber {
		return nil, p.unexpected("routine name after " + kw)
	}
	p.advance()
	f := &lang.Function{Name: nameTok.Text, Line: start.Line}
	switch kw {
	case "FUNCTION":
		f.Kind = lang.FC
	case "FUNCTION_BLOCK":
		f.Kind = lang.FB
	case "PROGRAM":
		f.Kind = lang.Prog
	default:
		f.Kind = lang.KindForOB(f.Name)
	}
	if err := p.header(); err != nil {
		return nil, err
	}
	body, err := p.statements(0, end)
	if err != nil {
		return nil, err
	}
	if err := p.needKeyword(end, fmt.Sprintf("to close %s %s", kw, f.Name)); err != nil {
		return nil, err
	}
	p.match(tokSemicolon)
	f.Body = body
	return f, nil
}

// header skips the return type, the attribute lines and the variable sections of a routine, up to BEGIN or the
// first statement
func (p *sclParser) header() error {
	if p.match(tokColon) {
		if p.peek().Kind != tokIdent {
			return p.unexpected("return type")
		}
		p.advance()
	}
	for {
		t := p.peek()
		u := strings.ToUpper(t.Text)
		switch {
		case t.Kind != tokIdent:
			return nil
		case u == "BEGIN":
			p.advance()
			return nil
		case varSections[u]:
			if err := p.skipTo("END_VAR"); err != nil {
				return err
			}
		case headerKeywords[u] && (p.peekN(1).Kind == tokEq || p.peekN(1).Kind == tokColon):
			p.skipLine(t.Line)
		default:
			return nil
		}
	}
}

// skipLine consumes the tokens on the given line
func (p *sclParser) skipLine(line int) {
	for {
		t := p.peek()
		if t.Kind == tokEOF || t.Line != line {
			return
		}
		p.advance()
	}
}

// statements parses statements until one of the stop keywords, which is not consumed. Comments carrying
// annotations become Comment statements.
func (p *sclParser) statements(depth int, stops ...string) ([]lang.Statement, error) {
	if depth > lang.DefaultMaxDepth*10 {
		return nil, &ParseError{Line: p.peek().Line, Msg: "statements nested too deeply"}
	}
	var res []lang.Statement
	for {
		for p.i < len(p.toks) && p.toks[p.i].Kind == tokComment {
			c := p.toks[p.i]
			res = append(res, &lang.Comment{Text: c.Text, Line: c.Line})
			p.i++
		}
		t := p.peek()
		if t.Kind == tokEOF || p.atKeyword(stops...) || (t.Kind == tokIdent && routineEnds[strings.ToUpper(t.Text)]) {
			return res, nil
		}
		if p.match(tokSemicolon) {
			continue
		}
		s, err := p.statement(depth)
		if err != nil {
			return nil, err
		}
		if s != nil {
			res = append(res, s)
		}
	}
}

func (p *sclParser) statement(depth int) (lang.Statement, error) {
	t := p.peek()
	u := strings.ToUpper(t.Text)
	if t.Kind == tokIdent {
		switch {
		case u == "IF":
			return p.ifStatement(depth)
		case u == "CASE":
			return p.caseStatement(depth)
		case loopKeywords[u]:
			return nil, &ParseError{Line: t.Line, Msg: fmt.Sprintf("%s loops are not supported", u)}
		case u == "RETURN":
			// RETURN ends the routine early; the analyses treat every path as reaching the end
			p.advance()
			p.match(tokSemicolon)
			return nil, nil
		case u == "REGION":
			// regions only group statements; their name runs to the end of the line
			p.skipLine(t.Line)
			return nil, nil
		case u == "END_REGION":
			p.advance()
			p.match(tokSemicolon)
			return nil, nil
		case u == "GOTO" || u == "EXIT" || u == "CONTINUE":
			return nil, &ParseError{Line: t.Line, Msg: fmt.Sprintf("%s is not supported", u)}
		}
	}
	if t.Kind != tokIdent {
		return nil, p.unexpected("statement")
	}
	p.advance()
	if p.peek().Kind == tokLParen {
		args, err := p.callArgs()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(tokSemicolon, "after call"); err != nil {
			return nil, err
		}
		return &lang.Call{Name: t.Text, Args: args, Line: t.Line}, nil
	}
	target, err := p.indexed(t)
	if err != nil {
		return nil, err
	}
	if p.match(tokAssign) {
		value, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(tokSemicolon, "after assignment"); err != nil {
			return nil, err
		}
		return &lang.Assign{Target: target, Value: value, Line: t.Line}, nil
	}
	return nil, p.unexpected("':=' or '(' after " + t.Text)
}

func (p *sclParser) ifStatement(depth int) (lang.Statement, error) {
	start := p.advance()
	cond, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if err := p.needKeyword("THEN", "after IF condition"); err != nil {
		return nil, err
	}
	then, err := p.statements(depth+1, "ELSIF", "ELSE", "END_IF")
	if err != nil {
		return nil, err
	}
	s := &lang.If{Cond: cond, Then: then, Line: start.Line}
	switch {
	case p.atKeyword("ELSIF"):
		// ELSIF chains are nested Ifs; the nested If consumes the END_IF
		nested, err := p.ifStatement(depth + 1)
		if err != nil {
			return nil, err
		}
		s.Else = []lang.Statement{nested}
		return s, nil
	case p.atKeyword("ELSE"):
		p.advance()
		s.Else, err = p.statements(depth+1, "END_IF")
		if err != nil {
			return nil, err
		}
	}
	if err := p.needKeyword("END_IF", fmt.Sprintf("to close IF at line %d", start.Line)); err != nil {
		return nil, err
	}
	p.match(tokSemicolon)
	return s, nil
}

func (p *sclParser) caseStatement(depth int) (lang.Statement, error) {
	start := p.advance()
	scrutinee, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if err := p.needKeyword("OF", "after CASE expression"); err != nil {
		return nil, err
	}
	s := &lang.Case{Scrutinee: scrutinee, Line: start.Line}
	for !p.atKeyword("ELSE", "END_CASE") {
		if p.peek().Kind == tokEOF {
			return nil, p.unexpected("END_CASE")
		}
		labels, err := p.caseLabels()
		if err != nil {
			return nil, err
		}
		body, err := p.armStatements(depth + 1)
		if err != nil {
			return nil, err
		}
		s.Arms = append(s.Arms, lang.CaseArm{Labels: labels, Body: body})
	}
	if p.atKeyword("ELSE") {
		p.advance()
		p.match(tokColon)
		s.Else, err = p.statements(depth+1, "END_CASE")
		if err != nil {
			return nil, err
		}
	}
	if err := p.needKeyword("END_CASE", fmt.Sprintf("to close CASE at line %d", start.Line)); err != nil {
		return nil, err
	}
	p.match(tokSemicolon)
	return s, nil
}

// caseLabels parses `1, 3..5, Idle:`. A range contributes its two bounds as labels.
func (p *sclParser) caseLabels() ([]lang.Expression, error) {
	var labels []lang.Expression
	for {
		lo, err := p.unary()
		if err != nil {
			return nil, err
		}
		labels = append(labels, lo)
		if p.match(tokRange) {
			hi, err := p.unary()
			if err != nil {
				return nil, err
			}
			labels = append(labels, hi)
		}
		if p.match(tokColon) {
			return labels, nil
		}
		if _, err := p.need(tokComma, "or ':' in CASE labels"); err != nil {
			return nil, err
		}
	}
}

// armStatements parses the body of a CASE arm, which ends at the next label list, ELSE or END_CASE
func (p *sclParser) armStatements(depth int) ([]lang.Statement, error) {
	var res []lang.Statement
	for {
		for p.i < len(p.toks) && p.toks[p.i].Kind == tokComment {
			c := p.toks[p.i]
			res = append(res, &lang.Comment{Text: c.Text, Line: c.Line})
			p.i++
		}
		if p.atKeyword("ELSE", "END_CASE") || p.peek().Kind == tokEOF || p.atCaseLabel() {
			return res, nil
		}
		if p.match(tokSemicolon) {
			continue
		}
		s, err := p.statement(depth)
		if err != nil {
			return nil, err
		}
		if s != nil {
			res = append(res, s)
		}
	}
}

// atCaseLabel returns true when the next tokens start a label list rather than a statement
func (p *sclParser) atCaseLabel() bool {
	t := p.peek()
	switch t.Kind {
	case tokNumber, tokMinus, tokString:
		return true
	case tokIdent:
		switch p.peekN(1).Kind {
		case tokColon, tokComma, tokRange:
			return true
		}
	}
	return false
}

// callArgs parses `(IN := x, PT := T#5s, Q => done)` or positional `(a, b)`
func (p *sclParser) callArgs() ([]lang.Arg, error) {
	if _, err := p.need(tokLParen, "to open arguments"); err != nil {
		return nil, err
	}
	var args []lang.Arg
	if p.match(tokRParen) {
		return args, nil
	}
	for {
		var arg lang.Arg
		if t := p.peek(); t.Kind == tokIdent && (p.peekN(1).Kind == tokAssign || p.peekN(1).Kind == tokOutput) {
			p.advance()
			arg.Name = t.Text
			arg.Output = p.advance().Kind == tokOutput
		}
		value, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		arg.Value = value
		args = append(args, arg)
		if p.match(tokRParen) {
			return args, nil
		}
		if _, err := p.need(tokComma, "or ')' in arguments"); err != nil {
			return nil, err
		}
	}
}

// binaryOperator returns the operator of the next token, if it is one
func (p *sclParser) binaryOperator() (lang.BinaryOperator, bool) {
	t := p.peek()
	switch t.Kind {
	case tokPlus:
		return lang.Add, true
	case tokMinus:
		return lang.Sub, true
	case tokStar:
		return lang.Mul, true
	case tokSlash:
		return lang.Div, true
	case tokEq:
		return lang.Eq, true
	case tokNeq:
		return lang.Neq, true
	case tokLt:
		return lang.Lt, true
	case tokLe:
		return lang.Le, true
	case tokGt:
		return lang.Gt, true
	case tokGe:
		return lang.Ge, true
	case tokAmp:
		return lang.And, true
	case tokIdent:
		switch strings.ToUpper(t.Text) {
		case "AND":
			return lang.And, true
		case "OR":
			return lang.Or, true
		case "XOR":
			return lang.Xor, true
		case "MOD":
			return lang.Mod, true
		}
	}
	return 0, false
}

// expression parses a binary expression whose operators bind tighter than minPrec, by precedence climbing.
// All binary operators are left-associative.
func (p *sclParser) expression(minPrec int) (lang.Expression, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		if p.peek().Kind == tokPower {
			return nil, &ParseError{Line: p.peek().Line, Msg: "operator ** is not supported"}
		}
		op, ok := p.binaryOperator()
		if !ok || op.Precedence() <= minPrec {
			return left, nil
		}
		opTok := p.advance()
		right, err := p.expression(op.Precedence())
		if err != nil {
			return nil, err
		}
		left = &lang.BinaryOp{Op: op, Left: left, Right: right, Line: opTok.Line}
	}
}

// unary parses NOT, unary minus and plus, and primaries. NOT binds tighter than every binary operator.
// A negated number is folded into the literal; any other negation is 0 - operand.
func (p *sclParser) unary() (lang.Expression, error) {
	t := p.peek()
	switch {
	case isKeyword(t, "NOT"):
		p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &lang.UnaryOp{Op: lang.Not, Operand: operand, Line: t.Line}, nil
	case t.Kind == tokMinus:
		p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		if n, ok := operand.(*lang.NumberLiteral); ok {
			return &lang.NumberLiteral{Value: -n.Value, Line: n.Line}, nil
		}
		return &lang.BinaryOp{Op: lang.Sub, Left: &lang.NumberLiteral{Value: 0, Line: t.Line}, Right: operand,
			Line: t.Line}, nil
	case t.Kind == tokPlus:
		p.advance()
		return p.unary()
	}
	return p.primary()
}

func (p *sclParser) primary() (lang.Expression, error) {
	t := p.peek()
	switch t.Kind {
	case tokNumber:
		p.advance()
		return &lang.NumberLiteral{Value: t.Value, Line: t.Line}, nil
	case tokString:
		p.advance()
		return &lang.StringLiteral{Value: t.Text, Line: t.Line}, nil
	case tokLParen:
		p.advance()
		e, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(tokRParen, "to close parenthesis"); err != nil {
			return nil, err
		}
		return e, nil
	case tokIdent:
		switch strings.ToUpper(t.Text) {
		case "TRUE":
			p.advance()
			return &lang.BoolLiteral{Value: true, Line: t.Line}, nil
		case "FALSE":
			p.advance()
			return &lang.BoolLiteral{Value: false, Line: t.Line}, nil
		}
		p.advance()
		if p.peek().Kind == tokLParen {
			args, err := p.callArgs()
			if err != nil {
				return nil, err
			}
			call := &lang.FuncCall{Name: t.Text, Line: t.Line}
			for _, a := range args {
				call.Args = append(call.Args, a.Value)
			}
			return call, nil
		}
		return p.indexed(t)
	}
	return nil, p.unexpected("expression")
}

// indexed parses the index suffixes following the variable name: Arr[i], Grid[i, j] or Grid[i][j]
func (p *sclParser) indexed(name token) (lang.Expression, error) {
	var e lang.Expression = &lang.VariableRef{Name: name.Text}
	for p.peek().Kind == tokLBracket {
		open := p.advance()
		for {
			idx, err := p.expression(0)
			if err != nil {
				return nil, err
			}
			e = &lang.Index{Base: e, Index: idx, Line: open.Line}
			if !p.match(tokComma) {
				break
			}
		}
		if _, err := p.need(tokRBracket, "to close index"); err != nil {
			return nil, err
		}
		// a member selection after an index (Arr[i].Field) is folded into the indexed access
		for p.peek().Kind == tokMember {
			p.advance()
		}
	}
	return e, nil
}
