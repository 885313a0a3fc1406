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


package analysis_test

import (
	"embed"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/awslabs/ar-plc-tools/analysis"
	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/frontend"
	"github.com/awslabs/ar-plc-tools/analysis/policy"
	"github.com/awslabs/ar-plc-tools/analysis/rules"
	"github.com/awslabs/ar-plc-tools/internal/analysistest"
)

//go:embed testdata
var testfsys embed.FS

func quietLogger(cfg *config.Config) *config.LogGroup {
	l := config.NewLogGroup(cfg)
	l.SetAllOutput(io.Discard)
	return l
}

func TestFixtures(t *testing.T) {
	for _, fx := range analysistest.LoadFixtures(t, testfsys, "testdata/*.txtar") {
		fx := fx
		t.Run(fx.Name, func(t *testing.T) {
			outcomes := analysis.Check(fx.Config, quietLogger(fx.Config), fx.Source, fx.FileName, fx.Policy)
			analysistest.CheckViolations(t, fx, outcomes, false)
		})
	}
}

func TestScenarioCMessages(t *testing.T) {
	cfg := config.NewDefault()
	outcomes := analysis.Check(cfg, quietLogger(cfg), "ORGANIZATION_BLOCK OB100\nBEGIN\nEND_ORGANIZATION_BLOCK\n",
		"startup.scl", "")
	o := findRule(t, outcomes, 15)
	if len(o.Violations) != 1 || !strings.Contains(o.Violations[0].Reason, "exists but is empty") {
		t.Errorf("expected one 'exists but is empty' violation, got %+v", o)
	}
	outcomes = analysis.Check(cfg, quietLogger(cfg), "FUNCTION F : VOID\nx := 1;\nEND_FUNCTION", "f.scl", "")
	o = findRule(t, outcomes, 15)
	if len(o.Violations) != 1 || !strings.Contains(o.Violations[0].Reason, "not found") {
		t.Errorf("expected one 'not found' violation, got %+v", o)
	}
}

func findRule(t *testing.T, outcomes []rules.Outcome, no int) rules.Outcome {
	t.Helper()
	for _, o := range outcomes {
		if o.RuleNo == no {
			return o
		}
	}
	t.Fatalf("no outcome for rule %d", no)
	return rules.Outcome{}
}

func TestParseErrorIsTheOnlyOutcome(t *testing.T) {
	cfg := config.NewDefault()
	outcomes := analysis.Check(cfg, quietLogger(cfg), "FUNCTION F : VOID\nFOR i := 1 TO 3 DO\nEND_FOR;\nEND_FUNCTION",
		"loop.scl", `{"pairs": "not a list"}`)
	if len(outcomes) != 1 {
		t.Fatalf("expected a single outcome, got %d", len(outcomes))
	}
	o := outcomes[0]
	if o.RuleNo != 0 || o.RuleName != rules.ParseErrorRule || o.Status != rules.Error {
		t.Errorf("unexpected parse error outcome %+v", o)
	}
	if !strings.Contains(o.Error, "line 2") || !strings.Contains(o.Error, "loops are not supported") {
		t.Errorf("the parse error should name the line and the cause, got %q", o.Error)
	}
}

func TestPolicyErrorContinues(t *testing.T) {
	cfg := config.NewDefault()
	src := "FUNCTION Direction : VOID\nMotor_Fwd := TRUE;\nMotor_Rev := TRUE;\nEND_FUNCTION"
	outcomes := analysis.Check(cfg, quietLogger(cfg), src, "motor.scl", `{"pairs": [["Motor_Fwd"]]}`)
	if len(outcomes) != len(rules.Catalog())+1 {
		t.Fatalf("expected the policy error and every rule, got %d outcomes", len(outcomes))
	}
	if outcomes[0].RuleName != rules.PolicyErrorRule || outcomes[0].Status != rules.Error {
		t.Errorf("the policy error comes first, got %+v", outcomes[0])
	}
	// the rules ran with the empty policy: no pair is checked
	if o := findRule(t, outcomes, 7); o.Status != rules.Clean {
		t.Errorf("rule 7 should be clean under the empty policy, got %+v", o)
	}
}

func TestCheckIsIdempotent(t *testing.T) {
	cfg := config.NewDefault()
	fx, err := analysistest.LoadFixture(testfsys, "testdata/scenario_b.txtar")
	if err != nil {
		t.Fatalf("%v", err)
	}
	first, _ := json.Marshal(analysis.Check(cfg, quietLogger(cfg), fx.Source, fx.FileName, fx.Policy))
	for i := 0; i < 3; i++ {
		again, _ := json.Marshal(analysis.Check(cfg, quietLogger(cfg), fx.Source, fx.FileName, fx.Policy))
		if string(again) != string(first) {
			t.Fatalf("run %d differs:\n%s\n%s", i, first, again)
		}
	}
}

func TestCheckInputDialect(t *testing.T) {
	cfg := config.NewDefault()
	// IL text in a file without a telling extension, parsed as SCL, does not parse
	in := analysis.Input{FileName: "speed.txt", Source: "LD HMI_Speed;\nST Motor_Speed;\n", Dialect: frontend.SCL}
	if outcomes := analysis.CheckInput(cfg, quietLogger(cfg), in); outcomes[0].RuleName != rules.ParseErrorRule {
		t.Errorf("expected a parse error, got %+v", outcomes[0])
	}
	in.Source = "LD HMI_Speed\nST Motor_Speed\n"
	in.Dialect = frontend.IL
	outcomes := analysis.CheckInput(cfg, quietLogger(cfg), in)
	if o := findRule(t, outcomes, 8); len(o.Violations) != 1 || o.Violations[0].Line != 2 {
		t.Errorf("expected the IL store to be reported, got %+v", o)
	}
}

func TestLoadProgram(t *testing.T) {
	cfg := config.NewDefault()
	src := "FUNCTION F : VOID\n// @PlausibilityCheck\nx := HMI_Value;\nEND_FUNCTION"
	loaded, err := analysis.LoadProgram(cfg, quietLogger(cfg), "f.st", src, frontend.Auto)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if loaded.Dialect != frontend.SCL || len(loaded.Program.Functions) != 1 {
		t.Errorf("unexpected program %+v", loaded)
	}
	if !loaded.Annotations.HasAnnotationAbove(3, 1) {
		t.Errorf("the marker on line 2 should be indexed")
	}
	_, err = analysis.LoadProgram(cfg, quietLogger(cfg), "f.scl", "FUNCTION F : VOID\nx := ;\nEND_FUNCTION",
		frontend.Auto)
	var perr *frontend.ParseError
	if !errors.As(err, &perr) || perr.Line != 2 {
		t.Errorf("expected a parse error at line 2, got %v", err)
	}
	if _, err := analysis.LoadFile(cfg, quietLogger(cfg), "testdata/does-not-exist.scl", frontend.Auto); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestPolicyFromYAML(t *testing.T) {
	pol, err := policy.ParseYAML([]byte("pairs:\n  - [Motor_Fwd, Motor_Rev]\n"))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	cfg := config.NewDefault()
	src := "FUNCTION Direction : VOID\nMotor_Fwd := TRUE;\nMotor_Rev := TRUE;\nEND_FUNCTION"
	outcomes := analysis.CheckInput(cfg, quietLogger(cfg), analysis.Input{FileName: "m.scl", Source: src, Policy: pol})
	if o := findRule(t, outcomes, 7); len(o.Violations) != 1 || o.Violations[0].Line != 3 {
		t.Errorf("expected the pair violation at line 3, got %+v", o)
	}
}
