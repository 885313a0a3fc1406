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
	"regexp"
	"strings"

	"github.com/awslabs/ar-plc-tools/analysis/lang"
)

// ILProgramName is the name of the single routine built from an IL source.
const ILProgramName = "IL_Program"

// instruction is one IL line: an operator and its operand text, or an annotation comment (op is empty)
type instruction struct {
	line    int
	op      string
	operand string
	comment string
}

// ilParser turns the instructions of an IL source into structured statements. The current result
// (accumulator) is tracked as an expression; conditional jumps and returns become If statements over the
// instructions they skip.
type ilParser struct {
	instrs []instruction
	// labels maps the upper-cased labels to the index of the instruction following them
	labels map[string]int
}

var ilLabelRegex = regexp.MustCompile(`^([A-Za-z_]\w*)\s*:(?:[^=]|$)`)

// ilHeaders open declarations and routine headers, which carry no logic
var ilHeaders = map[string]bool{
	"FUNCTION": true, "FUNCTION_BLOCK": true, "PROGRAM": true, "ORGANIZATION_BLOCK": true,
	"END_FUNCTION": true, "END_FUNCTION_BLOCK": true, "END_PROGRAM": true, "END_ORGANIZATION_BLOCK": true,
	"TITLE": true, "VERSION": true, "BEGIN": true, "NETWORK": true,
}

// ParseIL parses Instruction List source into a program with a single PROGRAM routine named IL_Program.
// Only forward jumps are supported; a backward jump would be a loop.
func ParseIL(src string) (*lang.Program, error) {
	p := &ilParser{labels: map[string]int{}}
	if err := p.scan(src); err != nil {
		return nil, err
	}
	body, err := p.block(0, len(p.instrs), 0)
	if err != nil {
		return nil, err
	}
	return &lang.Program{Functions: []*lang.Function{{
		Name: ILProgramName,
		Kind: lang.Prog,
		Body: body,
		Line: 1,
	}}}, nil
}

// scan splits the source into instructions and records the labels
func (p *ilParser) scan(src string) error {
	inComment := false
	inVars := false
	for i, raw := range strings.Split(src, "\n") {
		line := i + 1
		code, comments, open := stripILComments(raw, inComment)
		inComment = open
		for _, c := range comments {
			if isAnnotationComment(c) {
				p.instrs = append(p.instrs, instruction{line: line, comment: strings.TrimSpace(c)})
			}
		}
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		first := strings.ToUpper(strings.Fields(code)[0])
		switch {
		case inVars:
			inVars = first != "END_VAR"
			continue
		case varSections[first]:
			inVars = true
			continue
		case ilHeaders[strings.TrimRight(first, ":;")]:
			continue
		}
		for {
			m := ilLabelRegex.FindStringSubmatch(code)
			if m == nil {
				break
			}
			label := strings.ToUpper(m[1])
			if _, dup := p.labels[label]; dup {
				return &ParseError{Line: line, Msg: fmt.Sprintf("duplicate label %s", m[1])}
			}
			p.labels[label] = len(p.instrs)
			code = strings.TrimSpace(code[len(m[1]):])
			code = strings.TrimSpace(strings.TrimPrefix(code, ":"))
		}
		if code == "" {
			continue
		}
		fields := strings.SplitN(code, " ", 2)
		in := instruction{line: line, op: strings.ToUpper(strings.TrimSpace(fields[0]))}
		if len(fields) > 1 {
			in.operand = strings.TrimSpace(fields[1])
		}
		// CAL Timer1(IN := x) may be written without a space before the parenthesis
		if k := strings.IndexByte(in.op, '('); k > 0 && strings.HasPrefix(in.op, "CAL") {
			in.operand = strings.TrimSpace(fields[0][k:] + " " + in.operand)
			in.op = in.op[:k]
		}
		p.instrs = append(p.instrs, in)
	}
	if inComment {
		return &ParseError{Line: strings.Count(src, "\n") + 1, Msg: "unterminated comment"}
	}
	return nil
}

// stripILComments removes the comments from a line. It returns the code, the text of the comments and whether
// a block comment is still open at the end of the line.
func stripILComments(line string, inComment bool) (string, []string, bool) {
	var code strings.Builder
	var comments []string
	for line != "" {
		if inComment {
			end := strings.Index(line, "*)")
			if end < 0 {
				comments = append(comments, line)
				return code.String(), comments, true
			}
			comments = append(comments, line[:end])
			line = line[end+2:]
			inComment = false
			continue
		}
		lc := strings.Index(line, "//")
		bc := strings.Index(line, "(*")
		switch {
		case lc >= 0 && (bc < 0 || lc < bc):
			code.WriteString(line[:lc])
			comments = append(comments, line[lc+2:])
			return code.String(), comments, false
		case bc >= 0:
			code.WriteString(line[:bc])
			line = line[bc+2:]
			inComment = true
		default:
			code.WriteString(line)
			line = ""
		}
	}
	return code.String(), comments, inComment
}

// ilOperators are the IL instructions combining the current result with their operand
var ilOperators = map[string]lang.BinaryOperator{
	"AND": lang.And, "&": lang.And, "OR": lang.Or, "XOR": lang.Xor,
	"ADD": lang.Add, "SUB": lang.Sub, "MUL": lang.Mul, "DIV": lang.Div, "MOD": lang.Mod,
	"GT": lang.Gt, "GE": lang.Ge, "EQ": lang.Eq, "NE": lang.Neq, "LT": lang.Lt, "LE": lang.Le,
}

// pending is a deferred operation opened by a parenthesized operator, e.g. AND( ... )
type pending struct {
	op  lang.BinaryOperator
	neg bool
	acc lang.Expression
}

// block parses the instructions in [start, end)
//
//gocyclo:ignore
func (p *ilParser) block(start int, end int, depth int) ([]lang.Statement, error) {
	if depth > lang.DefaultMaxDepth*10 {
		return nil, &ParseError{Line: p.instrs[start].line, Msg: "jumps nested too deeply"}
	}
	var res []lang.Statement
	var acc lang.Expression
	var stack []pending
	for i := start; i < end; i++ {
		in := p.instrs[i]
		if in.op == "" {
			res = append(res, &lang.Comment{Text: in.comment, Line: in.line})
			continue
		}
		needAcc := func() error {
			if acc == nil {
				return &ParseError{Line: in.line, Msg: fmt.Sprintf("%s without a current result", in.op)}
			}
			return nil
		}
		op := in.op
		switch op {
		case "NOP":
		case "LD", "LDN":
			x, err := ilOperand(in)
			if err != nil {
				return nil, err
			}
			acc = negateIf(x, op == "LDN", in.line)
		case "ST", "STN":
			if err := needAcc(); err != nil {
				return nil, err
			}
			target, err := ilTarget(in)
			if err != nil {
				return nil, err
			}
			res = append(res, &lang.Assign{Target: target, Value: negateIf(acc, op == "STN", in.line), Line: in.line})
		case "S", "R":
			if err := needAcc(); err != nil {
				return nil, err
			}
			target, err := ilTarget(in)
			if err != nil {
				return nil, err
			}
			set := &lang.Assign{Target: target, Value: &lang.BoolLiteral{Value: op == "S", Line: in.line}, Line: in.line}
			res = append(res, &lang.If{Cond: acc, Then: []lang.Statement{set}, Line: in.line})
		case "NOT":
			if err := needAcc(); err != nil {
				return nil, err
			}
			acc = negateIf(acc, true, in.line)
		case ")":
			if len(stack) == 0 {
				return nil, &ParseError{Line: in.line, Msg: "')' without a matching operator"}
			}
			if err := needAcc(); err != nil {
				return nil, err
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			acc = &lang.BinaryOp{Op: top.op, Left: top.acc, Right: negateIf(acc, top.neg, in.line), Line: in.line}
		case "JMP":
			target, err := p.jumpTarget(in, i, end)
			if err != nil {
				return nil, err
			}
			i = target - 1
			acc = nil
		case "JMPC", "JMPCN":
			if err := needAcc(); err != nil {
				return nil, err
			}
			target, err := p.jumpTarget(in, i, end)
			if err != nil {
				return nil, err
			}
			skipped, err := p.block(i+1, target, depth+1)
			if err != nil {
				return nil, err
			}
			// the skipped instructions run when the jump is not taken
			res = append(res, &lang.If{Cond: negateIf(acc, op == "JMPC", in.line), Then: skipped, Line: in.line})
			i = target - 1
			acc = nil
		case "RET":
			return res, nil
		case "RETC", "RETCN":
			if err := needAcc(); err != nil {
				return nil, err
			}
			rest, err := p.block(i+1, end, depth+1)
			if err != nil {
				return nil, err
			}
			res = append(res, &lang.If{Cond: negateIf(acc, op == "RETC", in.line), Then: rest, Line: in.line})
			return res, nil
		case "CAL", "CALC", "CALCN":
			call, err := ilCall(in)
			if err != nil {
				return nil, err
			}
			if op == "CAL" {
				res = append(res, call)
				break
			}
			if err := needAcc(); err != nil {
				return nil, err
			}
			res = append(res, &lang.If{Cond: negateIf(acc, op == "CALCN", in.line), Then: []lang.Statement{call},
				Line: in.line})
		default:
			base, neg, paren := splitILModifiers(op)
			bop, ok := ilOperators[base]
			if !ok {
				return nil, &ParseError{Line: in.line, Msg: fmt.Sprintf("unknown instruction %s", in.op)}
			}
			if err := needAcc(); err != nil {
				return nil, err
			}
			if paren {
				stack = append(stack, pending{op: bop, neg: neg, acc: acc})
				acc = nil
				if in.operand != "" {
					x, err := ilOperand(in)
					if err != nil {
						return nil, err
					}
					acc = x
				}
				break
			}
			x, err := ilOperand(in)
			if err != nil {
				return nil, err
			}
			acc = &lang.BinaryOp{Op: bop, Left: acc, Right: negateIf(x, neg, in.line), Line: in.line}
		}
	}
	if len(stack) > 0 {
		return nil, &ParseError{Line: p.instrs[end-1].line, Msg: "unclosed parenthesis"}
	}
	return res, nil
}

// splitILModifiers splits the N (negate operand) and ( (defer) modifiers off an operator: ANDN( is AND
func splitILModifiers(op string) (base string, neg bool, paren bool) {
	if strings.HasSuffix(op, "(") {
		paren = true
		op = strings.TrimSpace(strings.TrimSuffix(op, "("))
	}
	if _, ok := ilOperators[op]; !ok && strings.HasSuffix(op, "N") {
		if _, ok := ilOperators[op[:len(op)-1]]; ok {
			return op[:len(op)-1], true, paren
		}
	}
	return op, false, paren
}

// jumpTarget returns the index of the instruction following the label of a jump. Targets must lie ahead of the
// jump and within the instructions of the enclosing conditional.
func (p *ilParser) jumpTarget(in instruction, at int, end int) (int, error) {
	label := strings.ToUpper(strings.TrimSpace(in.operand))
	target, ok := p.labels[label]
	switch {
	case !ok:
		return 0, &ParseError{Line: in.line, Msg: fmt.Sprintf("undefined label %s", in.operand)}
	case target <= at:
		return 0, &ParseError{Line: in.line, Msg: fmt.Sprintf("backward jump to %s (loops are not supported)", in.operand)}
	case target > end:
		return 0, &ParseError{Line: in.line, Msg: fmt.Sprintf("jump to %s leaves the enclosing conditional block", in.operand)}
	}
	return target, nil
}

func negateIf(e lang.Expression, neg bool, line int) lang.Expression {
	if !neg {
		return e
	}
	return &lang.UnaryOp{Op: lang.Not, Operand: e, Line: line}
}

// ilOperand parses the operand of an instruction as an SCL expression: a variable, a literal, an address or
// an indexed access
func ilOperand(in instruction) (lang.Expression, error) {
	if in.operand == "" {
		return nil, &ParseError{Line: in.line, Msg: fmt.Sprintf("%s needs an operand", in.op)}
	}
	toks, err := tokenize(in.operand, in.line)
	if err != nil {
		return nil, err
	}
	sp := &sclParser{toks: toks}
	e, err := sp.expression(0)
	if err != nil {
		return nil, err
	}
	if sp.peek().Kind != tokEOF {
		return nil, sp.unexpected("end of operand")
	}
	return e, nil
}

// ilTarget parses the operand of a store
func ilTarget(in instruction) (lang.Expression, error) {
	e, err := ilOperand(in)
	if err != nil {
		return nil, err
	}
	switch e.(type) {
	case *lang.VariableRef, *lang.Index:
		return e, nil
	}
	return nil, &ParseError{Line: in.line, Msg: fmt.Sprintf("%s needs a variable, found %s", in.op, in.operand)}
}

// ilCall parses `Instance` or `Instance(IN := x, Q => y)`
func ilCall(in instruction) (*lang.Call, error) {
	if in.operand == "" {
		return nil, &ParseError{Line: in.line, Msg: fmt.Sprintf("%s needs a function block instance", in.op)}
	}
	toks, err := tokenize(in.operand, in.line)
	if err != nil {
		return nil, err
	}
	sp := &sclParser{toks: toks}
	name, err := sp.need(tokIdent, "function block instance")
	if err != nil {
		return nil, err
	}
	call := &lang.Call{Name: name.Text, Line: in.line}
	if sp.peek().Kind == tokLParen {
		if call.Args, err = sp.callArgs(); err != nil {
			return nil, err
		}
	}
	if sp.peek().Kind != tokEOF {
		return nil, sp.unexpected("end of call")
	}
	return call, nil
}
