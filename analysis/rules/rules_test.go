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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/awslabs/ar-plc-tools/analysis/annotations"
	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/lang"
	"github.com/awslabs/ar-plc-tools/analysis/policy"
)

func v(name string) *lang.VariableRef { return &lang.VariableRef{Name: name} }

func num(x int64) *lang.NumberLiteral { return &lang.NumberLiteral{Value: x} }

func boolean(b bool) *lang.BoolLiteral { return &lang.BoolLiteral{Value: b} }

func bin(op lang.BinaryOperator, l, r lang.Expression) *lang.BinaryOp {
	return &lang.BinaryOp{Op: op, Left: l, Right: r}
}

func assign(line int, target string, value lang.Expression) *lang.Assign {
	return &lang.Assign{Target: v(target), Value: value, Line: line}
}

func fc(name string, body ...lang.Statement) *lang.Function {
	return &lang.Function{Name: name, Kind: lang.FC, Body: body, Line: 1}
}

func program(fs ...*lang.Function) *lang.Program {
	return &lang.Program{Functions: fs}
}

func quietLogger(cfg *config.Config) *config.LogGroup {
	l := config.NewLogGroup(cfg)
	l.SetAllOutput(io.Discard)
	return l
}

func newTestContext(prog *lang.Program, pol policy.Policy, idx *annotations.Index) *Context {
	cfg := config.NewDefault()
	return NewContext(cfg, quietLogger(cfg), prog, pol, idx)
}

// runOne runs the rule numbered no on prog
func runOne(t *testing.T, ctx *Context, no int) Outcome {
	t.Helper()
	r, ok := Lookup(no)
	if !ok {
		t.Fatalf("rule %d is not in the catalog", no)
	}
	return runRule(ctx, r)
}

func TestCatalogIsOrdered(t *testing.T) {
	last := 0
	for _, r := range Catalog() {
		if r.No <= last {
			t.Errorf("rule %d is out of order", r.No)
		}
		if r.Name == "" || r.Check == nil {
			t.Errorf("rule %d is incomplete", r.No)
		}
		last = r.No
	}
}

// Scenario: an unbounded lower-bound guard does not validate HMI input
func TestUntrustedInputLowerBoundGuard(t *testing.T) {
	prog := program(fc("Speed_Control", &lang.If{
		Cond: bin(lang.Gt, v("HMI_Speed"), num(0)),
		Then: []lang.Statement{assign(3, "Motor_Speed", v("HMI_Speed"))},
		Line: 2,
	}))
	o := runOne(t, newTestContext(prog, policy.Policy{}, nil), 8)
	if o.Status != Violations || len(o.Violations) != 1 {
		t.Fatalf("expected one violation, got %+v", o)
	}
	if o.Violations[0].Line != 3 || !strings.Contains(o.Violations[0].Reason, "Motor_Speed") {
		t.Errorf("unexpected violation %+v", o.Violations[0])
	}
	if o.Violations[0].RuleNo != 8 || o.Violations[0].RuleName != "Validate HMI input variables" {
		t.Errorf("violation is not stamped with its rule: %+v", o.Violations[0])
	}
}

func TestTrustedValuesAreClean(t *testing.T) {
	guarded := program(fc("F", &lang.If{
		Cond: bin(lang.Lt, v("X"), num(100)),
		Then: []lang.Statement{assign(2, "Motor_Speed", v("X"))},
		Line: 1,
	}))
	if o := runOne(t, newTestContext(guarded, policy.Policy{}, nil), 8); o.Status != Clean {
		t.Errorf("guarded trusted value should be clean, got %+v", o)
	}
	plain := program(fc("F", assign(1, "Motor_Speed", v("HMI_Speed"))))
	o := runOne(t, newTestContext(plain, policy.Policy{}, nil), 8)
	if len(o.Violations) != 1 || !strings.Contains(o.Violations[0].Reason, "Motor_Speed") {
		t.Errorf("direct HMI flow should be reported, got %+v", o)
	}
}

// Scenario: both outputs of a declared pair set on the same path
func TestPairedOutputs(t *testing.T) {
	pol := policy.Policy{Pairs: [][2]string{{"Motor_Fwd", "Motor_Rev"}}}
	prog := program(fc("Drive", assign(2, "Motor_Fwd", boolean(true)), assign(3, "Motor_Rev", boolean(true))))
	o := runOne(t, newTestContext(prog, pol, nil), 7)
	if len(o.Violations) != 1 {
		t.Fatalf("expected one violation, got %+v", o)
	}
	vi := o.Violations[0]
	if vi.Line != 3 || !strings.Contains(vi.Reason, "Motor_Fwd") || !strings.Contains(vi.Reason, "Motor_Rev") {
		t.Errorf("unexpected violation %+v", vi)
	}

	exclusive := program(fc("Drive", &lang.If{
		Cond: v("Forward"),
		Then: []lang.Statement{assign(2, "Motor_Fwd", boolean(true)), assign(3, "Motor_Rev", boolean(false))},
		Else: []lang.Statement{assign(5, "Motor_Fwd", boolean(false)), assign(6, "Motor_Rev", boolean(true))},
		Line: 1,
	}))
	if o := runOne(t, newTestContext(exclusive, pol, nil), 7); o.Status != Clean {
		t.Errorf("exclusive branches should be clean, got %+v", o)
	}

	refined := program(fc("Drive",
		assign(1, "Motor_Fwd", boolean(true)),
		&lang.If{
			Cond: &lang.UnaryOp{Op: lang.Not, Operand: v("Motor_Fwd")},
			Then: []lang.Statement{assign(3, "Motor_Rev", boolean(true))},
			Line: 2,
		}))
	if o := runOne(t, newTestContext(refined, pol, nil), 7); o.Status != Clean {
		t.Errorf("a branch excluding the other member should be clean, got %+v", o)
	}

	if o := runOne(t, newTestContext(prog, policy.Policy{}, nil), 7); o.Status != Clean {
		t.Errorf("no pairs means no constraint, got %+v", o)
	}
}

// Scenario: the startup OB is empty or absent
func TestSafeRestart(t *testing.T) {
	empty := program(&lang.Function{Name: "Startup", Kind: lang.OB100, Line: 4})
	o := runOne(t, newTestContext(empty, policy.Policy{}, nil), 15)
	if len(o.Violations) != 1 || !strings.Contains(o.Violations[0].Reason, "exists but is empty") {
		t.Errorf("expected a single 'exists but is empty' violation, got %+v", o)
	}

	absent := program(fc("Main", assign(1, "x", num(1))))
	o = runOne(t, newTestContext(absent, policy.Policy{}, nil), 15)
	if len(o.Violations) != 1 || !strings.Contains(o.Violations[0].Reason, "not found") {
		t.Errorf("expected a single 'not found' violation, got %+v", o)
	}

	safe := program(&lang.Function{Name: "Startup", Kind: lang.OB100, Line: 1, Body: []lang.Statement{
		assign(2, "Motor_Out", boolean(false)),
		assign(3, "Critical_Valve", num(1)),
	}})
	o = runOne(t, newTestContext(safe, policy.Policy{}, nil), 15)
	if len(o.Violations) != 1 || o.Violations[0].Line != 3 {
		t.Errorf("expected the unsafe initialization at line 3, got %+v", o)
	}
}

func TestDivisionGuard(t *testing.T) {
	div := func(line int) *lang.Assign { return assign(line, "A", bin(lang.Div, v("B"), v("C"))) }
	unguarded := program(fc("F", div(1)))
	if o := runOne(t, newTestContext(unguarded, policy.Policy{}, nil), 4); len(o.Violations) != 1 {
		t.Errorf("unguarded division should be reported, got %+v", o)
	}

	statusWord := program(fc("F", &lang.If{
		Cond: bin(lang.And, bin(lang.Eq, v("SW.OV"), num(0)), bin(lang.Eq, v("SW.OS"), num(0))),
		Then: []lang.Statement{div(2)},
		Line: 1,
	}))
	if o := runOne(t, newTestContext(statusWord, policy.Policy{}, nil), 4); o.Status != Clean {
		t.Errorf("status-word guarded division should be clean, got %+v", o)
	}

	nonZero := program(fc("F", &lang.If{Cond: bin(lang.Neq, v("C"), num(0)), Then: []lang.Statement{div(2)}, Line: 1}))
	if o := runOne(t, newTestContext(nonZero, policy.Policy{}, nil), 4); o.Status != Clean {
		t.Errorf("divisor guarded division should be clean, got %+v", o)
	}

	nested := program(fc("F", assign(1, "A", bin(lang.Div, bin(lang.Div, v("B"), v("C")), v("D")))))
	if o := runOne(t, newTestContext(nested, policy.Policy{}, nil), 4); len(o.Violations) != 1 {
		t.Errorf("a division inside a reported division should not be reported again, got %+v", o)
	}

	constant := program(fc("F", assign(1, "A", bin(lang.Div, v("B"), num(4)))))
	if o := runOne(t, newTestContext(constant, policy.Policy{}, nil), 4); o.Status != Clean {
		t.Errorf("division by a non-zero constant should be clean, got %+v", o)
	}
}

func sequentialIfs(n int) []lang.Statement {
	var body []lang.Statement
	for i := 0; i < n; i++ {
		body = append(body, &lang.If{Cond: v("c"), Then: []lang.Statement{assign(i+2, "x", num(1))}, Line: i + 1})
	}
	return body
}

func TestComplexityThreshold(t *testing.T) {
	m, err := ComputeMetrics(sequentialIfs(51), 100)
	if err != nil || m.Complexity != 52 {
		t.Fatalf("51 ifs: complexity %d, err %v", m.Complexity, err)
	}
	if o := runOne(t, newTestContext(program(fc("F", sequentialIfs(51)...)), policy.Policy{}, nil), 1); len(o.Violations) != 1 {
		t.Errorf("51 ifs should be reported, got %+v", o)
	}
	if o := runOne(t, newTestContext(program(fc("F", sequentialIfs(50)...)), policy.Policy{}, nil), 1); o.Status != Clean {
		t.Errorf("50 ifs should not be reported, got %+v", o)
	}
	ob := &lang.Function{Name: "Main", Kind: lang.OB1, Body: sequentialIfs(60)}
	if o := runOne(t, newTestContext(program(ob), policy.Policy{}, nil), 1); o.Status != Clean {
		t.Errorf("organization blocks are not measured, got %+v", o)
	}
}

func TestComplexityMetrics(t *testing.T) {
	a := assign(1, "a", num(1))
	b := assign(2, "b", num(2))
	arm := func(label int64, body ...lang.Statement) lang.CaseArm {
		return lang.CaseArm{Labels: []lang.Expression{num(label)}, Body: body}
	}
	tests := []struct {
		name       string
		body       []lang.Statement
		complexity int
		statements int
	}{
		{"empty", nil, 1, 0},
		{"comments are not statements", []lang.Statement{&lang.Comment{Text: "x", Line: 1}, a}, 1, 1},
		{"if", []lang.Statement{&lang.If{Cond: v("c"), Then: []lang.Statement{a}}}, 2, 2},
		{"if else", []lang.Statement{&lang.If{Cond: v("c"), Then: []lang.Statement{a}, Else: []lang.Statement{b}}}, 3, 3},
		{"case", []lang.Statement{&lang.Case{Scrutinee: v("s"), Arms: []lang.CaseArm{arm(1, a), arm(2, b)}}}, 3, 3},
		{"case else", []lang.Statement{&lang.Case{Scrutinee: v("s"), Arms: []lang.CaseArm{arm(1, a), arm(2, b)},
			Else: []lang.Statement{a}}}, 4, 4},
		{"nested", []lang.Statement{&lang.If{Cond: v("c"), Then: []lang.Statement{
			&lang.Case{Scrutinee: v("s"), Arms: []lang.CaseArm{arm(1, &lang.If{Cond: v("d"), Then: []lang.Statement{a},
				Else: []lang.Statement{b}})}},
		}}}, 5, 5},
	}
	for _, test := range tests {
		m, err := ComputeMetrics(test.body, 100)
		if err != nil {
			t.Errorf("%s: unexpected error %v", test.name, err)
			continue
		}
		if m.Complexity != test.complexity || m.Statements != test.statements {
			t.Errorf("%s: got complexity %d and %d statements, expected %d and %d", test.name, m.Complexity,
				m.Statements, test.complexity, test.statements)
		}
	}
}

func TestStatementThreshold(t *testing.T) {
	body := func(n int) []lang.Statement {
		var res []lang.Statement
		for i := 0; i < n; i++ {
			res = append(res, assign(i+2, "x", num(int64(i))))
		}
		return res
	}
	if o := runOne(t, newTestContext(program(fc("F", body(MaxStatements)...)), policy.Policy{}, nil), 1); o.Status != Clean {
		t.Errorf("%d statements should not be reported, got %+v", MaxStatements, o)
	}
	o := runOne(t, newTestContext(program(fc("F", body(MaxStatements+1)...)), policy.Policy{}, nil), 1)
	if len(o.Violations) != 1 || !strings.Contains(o.Violations[0].Reason, "Statement count 501") {
		t.Errorf("%d statements should be reported, got %+v", MaxStatements+1, o)
	}
	// nested statements count too
	nested := []lang.Statement{&lang.If{Cond: v("c"), Then: body(MaxStatements)}}
	if o := runOne(t, newTestContext(program(fc("F", nested...)), policy.Policy{}, nil), 1); len(o.Violations) != 1 {
		t.Errorf("the IF and its %d nested statements should be reported, got %+v", MaxStatements, o)
	}
}

func TestRunRuleOrdersViolations(t *testing.T) {
	r := Rule{No: 99, Name: "Test", Check: func(*Context) ([]Violation, error) {
		return []Violation{{Line: 5, Reason: "a"}, {Line: 2, Reason: "b"}, {Line: 2, Reason: "c"}}, nil
	}}
	o := runRule(newTestContext(program(), policy.Policy{}, nil), r)
	var got []string
	for _, viol := range o.Violations {
		got = append(got, fmt.Sprintf("%d%s", viol.Line, viol.Reason))
	}
	if strings.Join(got, " ") != "2b 2c 5a" {
		t.Errorf("expected violations by line then emission order, got %v", got)
	}
}

func TestComplexityDepthCap(t *testing.T) {
	body := []lang.Statement{assign(1, "x", num(1))}
	for i := 0; i < 101; i++ {
		body = []lang.Statement{&lang.If{Cond: v("c"), Then: body, Line: 1}}
	}
	if _, err := ComputeMetrics(body, 100); !errors.Is(err, lang.ErrMaxDepth) {
		t.Errorf("expected ErrMaxDepth, got %v", err)
	}
	o := runOne(t, newTestContext(program(fc("Deep", body...)), policy.Policy{}, nil), 1)
	if len(o.Violations) != 1 || !strings.Contains(o.Violations[0].Reason, "Nesting depth") {
		t.Errorf("excessive nesting should be a violation, got %+v", o)
	}
	// the taint rules cannot run on it
	if o := runOne(t, newTestContext(program(fc("Deep", body...)), policy.Policy{}, nil), 8); o.Status != Error {
		t.Errorf("expected an error outcome, got %+v", o)
	}
}

func TestIndirections(t *testing.T) {
	idx := &lang.Index{Base: v("Buffer"), Index: v("i")}
	prog := program(fc("F",
		assign(1, "x", idx),
		&lang.If{Cond: bin(lang.Lt, v("i"), num(10)), Then: []lang.Statement{assign(3, "y", idx)}, Line: 2},
		&lang.If{Cond: bin(lang.Le, v("i"), v("BUF_MAX")), Then: []lang.Statement{assign(5, "y", idx)}, Line: 4},
		assign(6, "z", &lang.Index{Base: v("Buffer"), Index: num(3)}),
		&lang.Call{Name: "MEMCPY", Line: 7},
	))
	o := runOne(t, newTestContext(prog, policy.Policy{}, nil), 9)
	if len(o.Violations) != 2 || o.Violations[0].Line != 1 || o.Violations[1].Line != 7 {
		t.Errorf("expected violations at lines 1 and 7, got %+v", o)
	}
}

func TestRegisterBlocks(t *testing.T) {
	pol, err := policy.Parse(`{"memory_areas": [{"address": "%MW100-%MW200", "access": "ReadOnly"}]}`)
	if err != nil {
		t.Fatal(err)
	}
	prog := program(fc("F", assign(1, "%MW150", num(1)), assign(2, "%MW250", num(1)), assign(3, "%MD150", num(1))))
	o := runOne(t, newTestContext(prog, pol, nil), 10)
	if len(o.Violations) != 1 || o.Violations[0].Reason != "Write to read-only region %MW150" {
		t.Errorf("expected a single write to %%MW150, got %+v", o)
	}

	// a read-only range nested in a read-write one declared first
	overlapping, err := policy.Parse(`{"memory_areas": [` +
		`{"address": "%MW0-%MW500", "access": "ReadWrite"}, {"address": "%MW100-%MW200", "access": "ReadOnly"}]}`)
	if err != nil {
		t.Fatal(err)
	}
	prog = program(fc("F", assign(1, "%MW50", num(1)), assign(2, "%MW150", num(1)), assign(3, "%MW450", num(1))))
	o = runOne(t, newTestContext(prog, overlapping, nil), 10)
	if len(o.Violations) != 1 || o.Violations[0].Line != 2 {
		t.Errorf("expected the write into the nested read-only range at line 2, got %+v", o)
	}
}

func TestTimerPresets(t *testing.T) {
	prog := program(fc("F",
		&lang.Call{Name: "Delay.TON", Args: []lang.Arg{{Name: "IN", Value: v("Start")}, {Name: "PT", Value: v("Recipe_Delay")}}, Line: 1},
		assign(2, "Timer1.PT", v("HMI_Preset")),
		&lang.Call{Name: "Counter_CTU", Args: []lang.Arg{{Name: "PV", Value: v("Param_Count")}}, Line: 3},
		&lang.If{
			Cond: bin(lang.Le, v("HMI_Time"), v("TIME_LIMIT")),
			Then: []lang.Statement{&lang.Call{Name: "TON", Args: []lang.Arg{{Value: v("Start")}, {Value: v("HMI_Time")}}, Line: 5}},
			Line: 4,
		},
	))
	o := runOne(t, newTestContext(prog, policy.Policy{}, nil), 6)
	if len(o.Violations) != 3 {
		t.Fatalf("expected 3 violations, got %+v", o)
	}
	for i, line := range []int{1, 2, 3} {
		if o.Violations[i].Line != line {
			t.Errorf("violation %d at line %d, expected %d", i, o.Violations[i].Line, line)
		}
	}

	// type names glued to the instance name
	var calls []lang.Statement
	for i, name := range []string{"DelayTON", "StartTP", "MotorTOF", "FB_TON", "Stop"} {
		calls = append(calls, &lang.Call{
			Name: name,
			Args: []lang.Arg{{Name: "IN", Value: v("Start")}, {Name: "PT", Value: v("HMI_Time")}},
			Line: i + 1,
		})
	}
	o = runOne(t, newTestContext(program(fc("G", calls...)), policy.Policy{}, nil), 6)
	if len(o.Violations) != 4 {
		t.Fatalf("expected 4 violations, got %+v", o)
	}
	for i, line := range []int{1, 2, 3, 4} {
		if o.Violations[i].Line != line {
			t.Errorf("violation %d at line %d, expected %d", i, o.Violations[i].Line, line)
		}
	}
}

func TestPlausibilityEnforcement(t *testing.T) {
	src := "x := 0;\n// @PlausibilityCheck\nMotor_Setpoint := HMI_Setpoint;\n\n// @PlausibilityCheck\n" +
		"IF Setpoint_OK THEN\n  Motor_Speed := HMI_Speed;\nEND_IF;"
	idx := annotations.FromSource(nil, src, nil)
	prog := program(fc("F",
		assign(3, "Motor_Setpoint", v("HMI_Setpoint")),
		&lang.If{Cond: v("Setpoint_OK"), Then: []lang.Statement{assign(7, "Motor_Speed", v("HMI_Speed"))}, Line: 6},
	))
	ctx := newTestContext(prog, policy.Policy{}, idx)
	o := runOne(t, ctx, 12)
	if len(o.Violations) != 1 || o.Violations[0].Line != 3 {
		t.Errorf("expected the ungated annotated assignment at line 3, got %+v", o)
	}
	if o := runOne(t, ctx, 11); o.Status != Clean {
		t.Errorf("annotated and gated uses satisfy the presence rule, got %+v", o)
	}
}

func TestPipelines(t *testing.T) {
	ob1 := &lang.Function{Name: "Main", Kind: lang.OB1, Line: 1, Body: []lang.Statement{
		assign(2, "Cycle", v("OB1_PREV_CYCLE")),
		assign(3, "HMI_CycleTime", v("Cycle")),
	}}
	if o := runOne(t, newTestContext(program(ob1), policy.Policy{}, nil), 16); o.Status != Clean {
		t.Errorf("captured and emitted cycle time should be clean, got %+v", o)
	}
	ob1 = &lang.Function{Name: "Main", Kind: lang.OB1, Line: 1, Body: []lang.Statement{
		assign(2, "Cycle", v("OB1_PREV_CYCLE")),
	}}
	o := runOne(t, newTestContext(program(ob1), policy.Policy{}, nil), 16)
	if len(o.Violations) != 1 || o.Violations[0].Line != 2 {
		t.Errorf("expected the capture without emit at line 2, got %+v", o)
	}

	memory := program(fc("Mem",
		&lang.Call{Name: "TEST_DB", Args: []lang.Arg{{Name: "WORD_LEN", Value: v("Len"), Output: true}}, Line: 2},
	))
	if o := runOne(t, newTestContext(memory, policy.Policy{}, nil), 19); len(o.Violations) != 1 {
		t.Errorf("unreported memory read should be flagged, got %+v", o)
	}
	memory.Functions[0].Body = append(memory.Functions[0].Body, assign(3, "MEM_Usage", v("Len")))
	if o := runOne(t, newTestContext(memory, policy.Policy{}, nil), 19); o.Status != Clean {
		t.Errorf("reported memory read should be clean, got %+v", o)
	}

	uptime := program(fc("Up",
		assign(1, "Uptime", bin(lang.Add, v("Uptime"), num(1))),
		assign(2, "DB_Log.Uptime", v("Uptime")),
	))
	if o := runOne(t, newTestContext(uptime, policy.Policy{}, nil), 17); o.Status != Clean {
		t.Errorf("monotonic reported uptime should be clean, got %+v", o)
	}
}

func TestHardStopsAndFalseAlerts(t *testing.T) {
	prog := program(
		&lang.Function{Name: "OB86", Kind: lang.OB86, Line: 1, Body: []lang.Statement{assign(2, "Rack_Alarm", boolean(true))}},
		&lang.Function{Name: "OB121", Kind: lang.OB121, Line: 4},
		fc("Alerts",
			assign(10, "Critical_Alert_Temp", boolean(true)),
			assign(11, "Critical_Alert_Temp_False_Negative", boolean(false)),
			assign(12, "Critical_Alert_Pressure", boolean(true)),
		),
	)
	ctx := newTestContext(prog, policy.Policy{}, nil)
	o := runOne(t, ctx, 18)
	if len(o.Violations) != 2 || o.Violations[0].Line != 0 || o.Violations[1].Line != 4 {
		t.Errorf("expected OB82 missing and OB121 empty, got %+v", o)
	}
	o = runOne(t, ctx, 20)
	if len(o.Violations) != 2 || o.Violations[0].Line != 10 || o.Violations[1].Line != 12 {
		t.Errorf("expected both alerts to be reported, got %+v", o)
	}
}

func TestChecksums(t *testing.T) {
	uses := assign(2, "Target", v("Recipe.Temperature"))
	unchecked := program(fc("Load", uses))
	if o := runOne(t, newTestContext(unchecked, policy.Policy{}, nil), 5); len(o.Violations) != 1 {
		t.Errorf("unchecked recipe use should be reported, got %+v", o)
	}
	checked := program(fc("Load", &lang.If{
		Cond: bin(lang.Neq, v("Recipe_Checksum"), v("Expected_CRC")),
		Then: []lang.Statement{assign(4, "Recipe_Alarm", boolean(true))},
		Line: 3,
	}, uses))
	if o := runOne(t, newTestContext(checked, policy.Policy{}, nil), 5); o.Status != Clean {
		t.Errorf("checked recipe use should be clean, got %+v", o)
	}
}

func TestRunRulesIsolatesFailures(t *testing.T) {
	ctx := newTestContext(program(fc("F", assign(1, "Motor_Speed", v("HMI_Speed")))), policy.Policy{}, nil)
	panicking := Rule{No: 99, Name: "Panics", Check: func(*Context) ([]Violation, error) { panic("bad shape") }}
	o := runRule(ctx, panicking)
	if o.Status != Error || !strings.Contains(o.Error, "bad shape") {
		t.Errorf("panic should become an error outcome, got %+v", o)
	}
	failing := Rule{No: 98, Name: "Fails", Check: func(*Context) ([]Violation, error) { return nil, errors.New("nope") }}
	if o := runRule(ctx, failing); o.Status != Error || o.Error != "nope" {
		t.Errorf("error should become an error outcome, got %+v", o)
	}
}

func TestRunRulesSuppressionAndCap(t *testing.T) {
	src := "Motor_Speed := HMI_Speed; // plcheck:ignore 8\nMotor_Cmd := HMI_Cmd;\nMotor_Pos := HMI_Pos;\n"
	prog := program(fc("F",
		assign(1, "Motor_Speed", v("HMI_Speed")),
		assign(2, "Motor_Cmd", v("HMI_Cmd")),
		assign(3, "Motor_Position", v("HMI_Pos")),
	))
	ctx := newTestContext(prog, policy.Policy{}, annotations.FromSource(nil, src, nil))
	o := runOne(t, ctx, 8)
	// the ignore comment covers its own line and the line below
	if len(o.Violations) != 1 || o.Violations[0].Line != 3 {
		t.Errorf("expected only line 3 to be reported, got %+v", o)
	}
	ctx = newTestContext(prog, policy.Policy{}, nil)
	ctx.Config.MaxViolations = 2
	if o := runOne(t, ctx, 8); len(o.Violations) != 2 {
		t.Errorf("expected the violations to be capped to 2, got %+v", o)
	}
}

func TestRunRulesIdempotent(t *testing.T) {
	pol := policy.Policy{Pairs: [][2]string{{"A_Out", "B_Out"}}}
	prog := program(
		fc("F", assign(1, "Motor_Speed", v("HMI_Speed")), assign(2, "A_Out", boolean(true)),
			assign(3, "B_Out", boolean(true)), assign(4, "Q", bin(lang.Div, v("Y"), v("Z")))),
		&lang.Function{Name: "Startup", Kind: lang.OB100, Line: 10},
	)
	ctx := newTestContext(prog, pol, nil)
	first, _ := json.Marshal(RunRules(ctx))
	second, _ := json.Marshal(RunRules(ctx))
	if string(first) != string(second) {
		t.Errorf("repeated runs differ:\n%s\n%s", first, second)
	}
	ctx.Config.Parallelism = 4
	parallel, _ := json.Marshal(RunRules(ctx))
	if string(first) != string(parallel) {
		t.Errorf("parallel run differs:\n%s\n%s", first, parallel)
	}
}

func TestDisabledRules(t *testing.T) {
	ctx := newTestContext(program(), policy.Policy{}, nil)
	ctx.Config.DisabledRules = []int{15, 17, 18}
	for _, o := range RunRules(ctx) {
		if o.RuleNo == 15 || o.RuleNo == 17 || o.RuleNo == 18 {
			t.Errorf("rule %d is disabled but ran", o.RuleNo)
		}
		if o.Status != Clean {
			t.Errorf("rule %d should be clean on an empty program, got %+v", o.RuleNo, o)
		}
	}
}

func TestOutcomeJSON(t *testing.T) {
	o := NewOutcome(8, "Validate HMI input variables", []Violation{{Line: 3, Reason: "r", Suggestion: "s"}})
	b, err := json.Marshal(o)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"rule_no":8,"rule_name":"Validate HMI input variables","status":"violations","violations":[` +
		`{"rule_no":8,"rule_name":"Validate HMI input variables","line":3,"reason":"r","suggestion":"s"}]}`
	if string(b) != want {
		t.Errorf("got %s\nwant %s", b, want)
	}
	var back Outcome
	if err := json.Unmarshal(b, &back); err != nil || back.Status != Violations {
		t.Errorf("could not read back outcome: %v %+v", err, back)
	}
}
