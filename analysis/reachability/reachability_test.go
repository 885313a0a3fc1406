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


package reachability_test

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/frontend"
	"github.com/awslabs/ar-plc-tools/analysis/lang"
	"github.com/awslabs/ar-plc-tools/analysis/reachability"
	"github.com/awslabs/ar-plc-tools/internal/graphutil"
)

const plant = `ORGANIZATION_BLOCK "Main_OB1"
  Conveyor(Speed := Scale(Setpoint));
  IF Check_Limits(Level) THEN
    Alarm := TRUE;
  END_IF;
END_ORGANIZATION_BLOCK

FUNCTION_BLOCK Conveyor
  Timer1(IN := Run, PT := T#2s);
  Motor := Scale(Speed);
END_FUNCTION_BLOCK

FUNCTION Scale : INT
  Scale := x * 2;
END_FUNCTION

FUNCTION Check_Limits : BOOL
  Check_Limits := Retry(x);
END_FUNCTION

FUNCTION Retry : BOOL
  Retry := check_limits(x - 1);
END_FUNCTION

FUNCTION Legacy_Calibration : VOID
  Legacy_Calibration(x := 1);
END_FUNCTION
`

func quietLogger() *config.LogGroup {
	l := config.NewLogGroup(config.NewDefault())
	l.SetAllOutput(io.Discard)
	return l
}

func analyzePlant(t *testing.T) *reachability.Result {
	t.Helper()
	prog, err := frontend.ParseSCL(plant)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	res, err := reachability.Analyze(quietLogger(), prog, lang.DefaultMaxDepth)
	if err != nil {
		t.Fatalf("failed to analyze: %v", err)
	}
	return res
}

func TestReachableRoutines(t *testing.T) {
	res := analyzePlant(t)
	if fmt.Sprint(res.EntryPoints) != "[Main_OB1]" {
		t.Errorf("unexpected entry points %v", res.EntryPoints)
	}
	if got := fmt.Sprint(res.Reachable); got != "[Main_OB1 Conveyor Scale Check_Limits Retry]" {
		t.Errorf("unexpected reachable routines %s", got)
	}
	if got := fmt.Sprint(res.Unreachable); got != "[Legacy_Calibration]" {
		t.Errorf("unexpected unreachable routines %s", got)
	}
}

func TestCallCycles(t *testing.T) {
	res := analyzePlant(t)
	if got := fmt.Sprint(res.Cycles); got != "[[Check_Limits Retry] [Legacy_Calibration]]" {
		t.Errorf("unexpected cycles %s", got)
	}
	if res.Stats.Loops != 1 {
		t.Errorf("expected one self-call, got %d", res.Stats.Loops)
	}
	// callees come before their callers
	pos := map[string]int{}
	for i, scc := range res.BottomUp {
		for _, name := range scc {
			pos[name] = i
		}
	}
	if pos["Scale"] >= pos["Conveyor"] || pos["Conveyor"] >= pos["Main_OB1"] || pos["Retry"] != pos["Check_Limits"] {
		t.Errorf("unexpected bottom-up order %v", res.BottomUp)
	}
}

func TestCallersAndCallees(t *testing.T) {
	cg := analyzePlant(t).CallGraph
	if got := fmt.Sprint(cg.Callees("main_ob1")); got != "[Conveyor Scale Check_Limits]" {
		t.Errorf("unexpected callees %s", got)
	}
	if got := fmt.Sprint(cg.Callers("Scale")); got != "[Main_OB1 Conveyor]" {
		t.Errorf("unexpected callers %s", got)
	}
	if got := fmt.Sprint(cg.Unresolved["Conveyor"]); got != "[Timer1]" {
		t.Errorf("unexpected unresolved calls %s", got)
	}
	if cg.Callees("Nowhere") != nil {
		t.Errorf("unknown routines have no callees")
	}
}

func TestCallTree(t *testing.T) {
	cg := analyzePlant(t).CallGraph
	tree := reachability.CallTree(cg, "Main_OB1")
	var lines []string
	tree.Walk(func(n *graphutil.Tree[string], depth int) {
		lines = append(lines, strings.Repeat(" ", depth)+n.Label)
	})
	expected := []string{"Main_OB1", " Conveyor", "  Scale", " Scale", " Check_Limits", "  Retry", "   Check_Limits"}
	if fmt.Sprint(lines) != fmt.Sprint(expected) {
		t.Errorf("unexpected call tree:\n%s", strings.Join(lines, "\n"))
	}
	if reachability.CallTree(cg, "Nowhere") != nil {
		t.Errorf("expected no tree for an unknown routine")
	}
}

func TestNoEntryPoints(t *testing.T) {
	prog := &lang.Program{Functions: []*lang.Function{{Name: "Lib", Kind: lang.FC}}}
	res, err := reachability.Analyze(quietLogger(), prog, lang.DefaultMaxDepth)
	if err != nil {
		t.Fatalf("failed to analyze: %v", err)
	}
	if len(res.Reachable) != 0 || fmt.Sprint(res.Unreachable) != "[Lib]" {
		t.Errorf("a library without entry points has no reachable routine: %+v", res)
	}
}

func TestCallGraphDepthCap(t *testing.T) {
	var body []lang.Statement
	for i := 0; i < 5; i++ {
		body = []lang.Statement{&lang.If{Cond: &lang.VariableRef{Name: "c"}, Then: body, Line: 5 - i}}
	}
	prog := &lang.Program{Functions: []*lang.Function{{Name: "OB1", Kind: lang.OB1, Body: body}}}
	if _, err := reachability.Analyze(quietLogger(), prog, 3); !errors.Is(err, lang.ErrMaxDepth) {
		t.Errorf("expected ErrMaxDepth, got %v", err)
	}
}
