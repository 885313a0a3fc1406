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
	"errors"
	"strings"
	"testing"

	"github.com/awslabs/ar-plc-tools/analysis/annotations"
	"github.com/awslabs/ar-plc-tools/analysis/lang"
)

func v(name string) *lang.VariableRef { return &lang.VariableRef{Name: name} }

func num(x int64) *lang.NumberLiteral { return &lang.NumberLiteral{Value: x} }

func bin(op lang.BinaryOperator, l, r lang.Expression) *lang.BinaryOp {
	return &lang.BinaryOp{Op: op, Left: l, Right: r}
}

func assign(line int, target string, value lang.Expression) *lang.Assign {
	return &lang.Assign{Target: v(target), Value: value, Line: line}
}

// hmiProblem has HMI_* sources and *Speed* sinks
var hmiProblem = Problem{
	IsSource:     func(name string) bool { return strings.HasPrefix(strings.ToUpper(name), "HMI_") },
	IsSinkTarget: func(target string) bool { return lang.ContainsAny(target, "SPEED") && !strings.HasPrefix(strings.ToUpper(target), "HMI_") },
	IsSinkArg: func(call string, arg string, index int) bool {
		return lang.HasSuffixAny(call, "TON") && (strings.EqualFold(arg, "PT") || (arg == "" && index == 1))
	},
}

func testEnv(idx *annotations.Index) Env {
	return Env{Annotations: idx, AnnotationGap: 3, MaxDepth: 100, Matcher: NewMatcher([]string{"IN_RANGE"})}
}

func unsanitized(flows []Flow) []Flow {
	var res []Flow
	for _, f := range flows {
		if !f.Sanitized() {
			res = append(res, f)
		}
	}
	return res
}

func TestDirectFlow(t *testing.T) {
	flows, err := Analyze(testEnv(nil), []lang.Statement{assign(1, "Motor_Speed", v("HMI_Speed"))}, hmiProblem)
	if err != nil {
		t.Fatal(err)
	}
	if len(flows) != 1 || flows[0].Sanitized() || flows[0].Line != 1 || flows[0].Sink != "Motor_Speed" {
		t.Fatalf("expected one unsanitized flow at line 1, got %+v", flows)
	}
}

func TestPropagationAndKill(t *testing.T) {
	stmts := []lang.Statement{
		assign(1, "tmp", bin(lang.Mul, v("HMI_Speed"), num(2))),
		assign(2, "Motor_Speed", v("tmp")),
		assign(3, "tmp", num(0)),
		assign(4, "Fan_Speed", v("tmp")),
	}
	flows, _ := Analyze(testEnv(nil), stmts, hmiProblem)
	if len(flows) != 1 || flows[0].Line != 2 {
		t.Fatalf("expected a single flow at line 2, got %+v", flows)
	}
	if flows[0].Tainted[0] != "tmp" {
		t.Errorf("the tainted variable is tmp, got %v", flows[0].Tainted)
	}
}

// A tainted value that is range-guarded is sanitized; without the guard it is not.
func TestSanitizerPrecedence(t *testing.T) {
	guarded := []lang.Statement{&lang.If{
		Cond: bin(lang.Lt, v("HMI_Speed"), num(100)),
		Then: []lang.Statement{assign(2, "Motor_Speed", v("HMI_Speed"))},
		Line: 1,
	}}
	flows, _ := Analyze(testEnv(nil), guarded, hmiProblem)
	if len(unsanitized(flows)) != 0 || len(flows) != 1 || !flows[0].Guarded {
		t.Errorf("guarded assignment should be a sanitized flow, got %+v", flows)
	}
	plain := []lang.Statement{assign(2, "Motor_Speed", v("HMI_Speed"))}
	flows, _ = Analyze(testEnv(nil), plain, hmiProblem)
	if len(unsanitized(flows)) != 1 {
		t.Errorf("unguarded assignment should be reported, got %+v", flows)
	}
}

// A lower bound only does not sanitize.
func TestLowerBoundIsNotAGuard(t *testing.T) {
	stmts := []lang.Statement{&lang.If{
		Cond: bin(lang.Gt, v("HMI_Speed"), num(0)),
		Then: []lang.Statement{assign(2, "Motor_Speed", v("HMI_Speed"))},
		Line: 1,
	}}
	flows, _ := Analyze(testEnv(nil), stmts, hmiProblem)
	if len(unsanitized(flows)) != 1 || flows[0].Line != 2 {
		t.Errorf("expected one violation at line 2, got %+v", flows)
	}
}

func TestElseBranchIsNotGuarded(t *testing.T) {
	stmts := []lang.Statement{&lang.If{
		Cond: bin(lang.Le, v("HMI_Speed"), num(100)),
		Then: []lang.Statement{assign(2, "Motor_Speed", v("HMI_Speed"))},
		Else: []lang.Statement{assign(4, "Motor_Speed", v("HMI_Speed"))},
		Line: 1,
	}}
	flows, _ := Analyze(testEnv(nil), stmts, hmiProblem)
	u := unsanitized(flows)
	if len(u) != 1 || u[0].Line != 4 {
		t.Errorf("only the else branch should be reported, got %+v", u)
	}
}

// Taint introduced in one branch survives the join.
func TestMergeMonotonicity(t *testing.T) {
	stmts := []lang.Statement{
		&lang.If{
			Cond: v("Manual"),
			Then: []lang.Statement{assign(2, "tmp", v("HMI_Speed"))},
			Else: []lang.Statement{assign(4, "tmp", num(10))},
			Line: 1,
		},
		assign(6, "Motor_Speed", v("tmp")),
	}
	flows, _ := Analyze(testEnv(nil), stmts, hmiProblem)
	if len(unsanitized(flows)) != 1 || flows[0].Line != 6 {
		t.Errorf("taint from the then-branch should reach line 6, got %+v", flows)
	}

	caseStmts := []lang.Statement{
		&lang.Case{
			Scrutinee: v("Mode"),
			Arms: []lang.CaseArm{
				{Labels: []lang.Expression{num(1)}, Body: []lang.Statement{assign(3, "tmp", num(1))}},
				{Labels: []lang.Expression{num(2)}, Body: []lang.Statement{assign(5, "tmp", v("HMI_Speed"))}},
			},
			Line: 1,
		},
		assign(8, "Motor_Speed", v("tmp")),
	}
	flows, _ = Analyze(testEnv(nil), caseStmts, hmiProblem)
	if len(unsanitized(flows)) != 1 || flows[0].Line != 8 {
		t.Errorf("taint from a case arm should reach line 8, got %+v", flows)
	}
}

func TestCaseLabelsAreNotGuards(t *testing.T) {
	stmts := []lang.Statement{&lang.Case{
		Scrutinee: v("HMI_Speed"),
		Arms: []lang.CaseArm{
			{Labels: []lang.Expression{num(1)}, Body: []lang.Statement{assign(3, "Motor_Speed", v("HMI_Speed"))}},
		},
		Line: 1,
	}}
	flows, _ := Analyze(testEnv(nil), stmts, hmiProblem)
	if len(unsanitized(flows)) != 1 {
		t.Errorf("case labels must not sanitize, got %+v", flows)
	}
}

func TestAnnotationSanitizes(t *testing.T) {
	idx := annotations.FromSource(nil, "x := 0;\n// @PlausibilityCheck\nMotor_Speed := HMI_Speed;\nFan_Speed := Motor_Speed;", nil)
	stmts := []lang.Statement{
		assign(3, "Motor_Speed", v("HMI_Speed")),
		assign(4, "Fan_Speed", v("Motor_Speed")),
	}
	flows, _ := Analyze(testEnv(idx), stmts, hmiProblem)
	if len(flows) != 1 || !flows[0].Annotated || len(unsanitized(flows)) != 0 {
		t.Errorf("annotated assignment should be sanitized and not propagate, got %+v", flows)
	}
}

func TestHelperPredicateSanitizes(t *testing.T) {
	stmts := []lang.Statement{&lang.If{
		Cond: &lang.FuncCall{Name: "in_range", Args: []lang.Expression{v("HMI_Speed"), num(0), num(10)}},
		Then: []lang.Statement{assign(2, "Motor_Speed", v("HMI_Speed"))},
		Line: 1,
	}}
	flows, _ := Analyze(testEnv(nil), stmts, hmiProblem)
	if len(unsanitized(flows)) != 0 {
		t.Errorf("helper predicate should sanitize, got %+v", flows)
	}
}

func TestExtraSanitizer(t *testing.T) {
	p := hmiProblem
	p.ExtraSanitizer = LimitKeywordFallback
	stmts := []lang.Statement{&lang.If{
		Cond: bin(lang.Le, v("HMI_Speed"), v("SPEED_MAX")),
		Then: []lang.Statement{assign(2, "Motor_Speed", v("HMI_Speed"))},
		Line: 1,
	}}
	flows, _ := Analyze(testEnv(nil), stmts, p)
	if len(flows) != 1 || !flows[0].Extra || flows[0].Guarded {
		t.Errorf("named limit comparison should be accepted by the fallback only, got %+v", flows)
	}
	flows, _ = Analyze(testEnv(nil), stmts, hmiProblem)
	if len(unsanitized(flows)) != 1 {
		t.Errorf("without the fallback the flow is unsanitized, got %+v", flows)
	}
}

func TestCallArgumentSinks(t *testing.T) {
	stmts := []lang.Statement{
		&lang.Call{Name: "Timer1.TON", Args: []lang.Arg{
			{Name: "IN", Value: v("Start")},
			{Name: "PT", Value: v("HMI_Time")},
			{Name: "ET", Value: v("Elapsed"), Output: true},
		}, Line: 3},
		&lang.ExprStmt{Value: &lang.FuncCall{Name: "TON", Args: []lang.Expression{v("Start"), v("HMI_Time")}, Line: 5}, Line: 5},
	}
	flows, _ := Analyze(testEnv(nil), stmts, hmiProblem)
	if len(flows) != 2 {
		t.Fatalf("expected two flows, got %+v", flows)
	}
	if flows[0].Kind != ArgSink || flows[0].Arg != "PT" || flows[0].Line != 3 {
		t.Errorf("first flow should be PT of Timer1.TON at line 3, got %+v", flows[0])
	}
	if flows[1].Arg != "#1" || flows[1].Line != 5 {
		t.Errorf("second flow should be positional argument 1 at line 5, got %+v", flows[1])
	}
}

func TestDepthCap(t *testing.T) {
	var body []lang.Statement = []lang.Statement{assign(200, "Motor_Speed", v("HMI_Speed"))}
	for i := 0; i < 101; i++ {
		body = []lang.Statement{&lang.If{Cond: v("c"), Then: body, Line: i + 1}}
	}
	_, err := Analyze(testEnv(nil), body, hmiProblem)
	if !errors.Is(err, lang.ErrMaxDepth) {
		t.Errorf("expected ErrMaxDepth, got %v", err)
	}
}

func TestAnalyzeDoesNotMutateProgram(t *testing.T) {
	stmts := []lang.Statement{assign(1, "Motor_Speed", v("HMI_Speed"))}
	before := lang.ExprText(stmts[0].(*lang.Assign).Value)
	first, _ := Analyze(testEnv(nil), stmts, hmiProblem)
	second, _ := Analyze(testEnv(nil), stmts, hmiProblem)
	if len(first) != len(second) || lang.ExprText(stmts[0].(*lang.Assign).Value) != before {
		t.Errorf("repeated runs must give the same result")
	}
}
