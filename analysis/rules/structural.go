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
	"errors"
	"fmt"
	"strings"

	"github.com/awslabs/ar-plc-tools/analysis/lang"
)

// Thresholds of the modularity rule. A routine is reported when it strictly exceeds them.
const (
	MaxComplexity = 50
	MaxStatements = 500
)

// Metrics are the size measures of a routine.
type Metrics struct {
	// Complexity is 1 + one per IF, one per CASE arm, and one per non-empty ELSE
	Complexity int
	// Statements counts every statement, nested ones included, except comments
	Statements int
}

// ComputeMetrics measures a routine body. Nesting deeper than maxDepth returns an error wrapping
// lang.ErrMaxDepth.
func ComputeMetrics(body []lang.Statement, maxDepth int) (Metrics, error) {
	m := Metrics{Complexity: 1}
	err := lang.WalkStatements(body, maxDepth, func(s lang.Statement, _ int) error {
		switch s := s.(type) {
		case *lang.Comment:
			return nil
		case *lang.If:
			m.Complexity++
			if len(s.Else) > 0 {
				m.Complexity++
			}
		case *lang.Case:
			m.Complexity += len(s.Arms)
			if len(s.Else) > 0 {
				m.Complexity++
			}
		}
		m.Statements++
		return nil
	})
	return m, err
}

func checkModularity(c *Context) ([]Violation, error) {
	var res []Violation
	for _, f := range c.Program.Functions {
		if !f.Kind.IsCodeUnit() {
			continue
		}
		m, err := ComputeMetrics(f.Body, c.MaxDepth())
		if errors.Is(err, lang.ErrMaxDepth) {
			res = append(res, Violation{
				Line:       f.Line,
				Reason:     fmt.Sprintf("Nesting depth exceeds %d in %s", c.MaxDepth(), f.Name),
				Suggestion: "Flatten nested conditionals; move deep branches into separate FC/FBs.",
			})
			continue
		}
		if m.Complexity > MaxComplexity {
			res = append(res, Violation{
				Line:       f.Line,
				Reason:     fmt.Sprintf("Cyclomatic complexity %d exceeds %d", m.Complexity, MaxComplexity),
				Suggestion: "Split logic into smaller FC/FBs; reduce branching.",
			})
		}
		if m.Statements > MaxStatements {
			res = append(res, Violation{
				Line:       f.Line,
				Reason:     fmt.Sprintf("Statement count %d exceeds %d", m.Statements, MaxStatements),
				Suggestion: "Refactor large routines into smaller units.",
			})
		}
	}
	return res, nil
}

// readExprs returns the expressions a statement evaluates, not counting its nested statements
func readExprs(s lang.Statement) []lang.Expression {
	switch s := s.(type) {
	case *lang.Assign:
		res := []lang.Expression{s.Value}
		if idx, ok := s.Target.(*lang.Index); ok {
			res = append(res, idx.Index)
		}
		return res
	case *lang.Call:
		var res []lang.Expression
		for _, a := range s.Args {
			if !a.Output {
				res = append(res, a.Value)
			}
		}
		return res
	case *lang.ExprStmt:
		return []lang.Expression{s.Value}
	case *lang.If:
		return []lang.Expression{s.Cond}
	case *lang.Case:
		return []lang.Expression{s.Scrutinee}
	}
	return nil
}

var recipeKeywords = []string{"RECIPE", "PARAMETER", ".PAR."}

func checkChecksums(c *Context) ([]Violation, error) {
	var res []Violation
	for _, f := range c.Program.Functions {
		useLine := 0
		checked := false
		err := lang.WalkStatements(f.Body, c.MaxDepth(), func(s lang.Statement, _ int) error {
			if useLine == 0 {
				for _, e := range readExprs(s) {
					for _, v := range lang.Vars(e) {
						if lang.ContainsAny(v, recipeKeywords...) {
							useLine = s.StmtLine()
						}
					}
				}
			}
			if i, ok := s.(*lang.If); ok && isIntegrityCheck(i, c.MaxDepth()) {
				checked = true
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("in %s: %w", f.Name, err)
		}
		if useLine > 0 && !checked {
			res = append(res, Violation{
				Line:       useLine,
				Reason:     fmt.Sprintf("%s uses recipe/parameter data without a visible integrity check.", f.Name),
				Suggestion: "Verify a checksum/CRC for recipe data and raise an alarm on mismatch before using the data.",
			})
		}
	}
	return res, nil
}

// isIntegrityCheck returns true for `IF checksum <> expected THEN alarm := ...`
func isIntegrityCheck(s *lang.If, maxDepth int) bool {
	mismatch := false
	lang.InspectExpr(s.Cond, func(e lang.Expression) bool {
		if b, ok := e.(*lang.BinaryOp); ok && b.Op == lang.Neq &&
			(lang.ContainsAny(lang.ExprText(b.Left), "CHECKSUM", "CRC") ||
				lang.ContainsAny(lang.ExprText(b.Right), "CHECKSUM", "CRC")) {
			mismatch = true
		}
		return !mismatch
	})
	if !mismatch {
		return false
	}
	alarm := false
	_ = lang.WalkStatements(s.Then, maxDepth, func(t lang.Statement, _ int) error {
		switch t := t.(type) {
		case *lang.Assign:
			alarm = alarm || lang.ContainsAny(lang.TargetName(t.Target), "ALARM")
		case *lang.Call:
			alarm = alarm || lang.ContainsAny(t.Name, "ALARM")
		}
		return nil
	})
	return alarm
}

func checkSafeRestart(c *Context) ([]Violation, error) {
	const suggestion = "Initialize critical outputs to FALSE/0 in OB100."
	f := c.Program.FindKind(lang.OB100)
	if f == nil {
		return []Violation{{
			Line:       0,
			Reason:     "OB100 (Startup OB) not found",
			Suggestion: "Add OB100 and initialize critical outputs to a safe state.",
		}}, nil
	}
	if isEmptyBody(f.Body) {
		return []Violation{{Line: f.Line, Reason: "OB100 exists but is empty", Suggestion: suggestion}}, nil
	}
	var res []Violation
	safe := 0
	err := lang.WalkStatements(f.Body, c.MaxDepth(), func(s lang.Statement, _ int) error {
		a, ok := s.(*lang.Assign)
		if !ok {
			return nil
		}
		name := lang.TargetName(a.Target)
		if !isCriticalOutput(name) || !lang.IsLiteral(a.Value) {
			return nil
		}
		if lang.IsFalse(a.Value) {
			safe++
		} else if lang.IsTrue(a.Value) {
			res = append(res, Violation{
				Line:       a.Line,
				Reason:     fmt.Sprintf("Critical output '%s' initialized UNSAFELY on restart", name),
				Suggestion: suggestion,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("in %s: %w", f.Name, err)
	}
	if safe == 0 {
		res = append(res, Violation{
			Line:       f.Line,
			Reason:     "OB100 does not initialize any critical output to a safe value",
			Suggestion: "Set critical outputs to FALSE/0 in OB100.",
		})
	}
	return res, nil
}

// isEmptyBody returns true if body has no statement other than comments
func isEmptyBody(body []lang.Statement) bool {
	for _, s := range body {
		if _, ok := s.(*lang.Comment); !ok {
			return false
		}
	}
	return true
}

var hardStopOBs = []struct {
	kind lang.FunctionKind
	name string
}{
	{lang.OB86, "OB86 (Rack Failure)"},
	{lang.OB121, "OB121 (Programming Error)"},
	{lang.OB82, "OB82 (Diagnostic Interrupt)"},
}

func checkHardStops(c *Context) ([]Violation, error) {
	var res []Violation
	for _, ob := range hardStopOBs {
		f := c.Program.FindKind(ob.kind)
		switch {
		case f == nil:
			res = append(res, Violation{
				Line:       0,
				Reason:     fmt.Sprintf("%s missing", ob.name),
				Suggestion: fmt.Sprintf("Implement %s to capture and log diagnostics.", ob.name),
			})
		case isEmptyBody(f.Body):
			res = append(res, Violation{
				Line:       f.Line,
				Reason:     fmt.Sprintf("%s present but empty", ob.name),
				Suggestion: "Log/record diagnostics and take safe action in this OB.",
			})
		case !hasDiagnosticAction(f.Body, c.MaxDepth()):
			res = append(res, Violation{
				Line:       f.Line,
				Reason:     fmt.Sprintf("%s present but no diagnostic/alarm action", ob.name),
				Suggestion: "Write a diagnostic/alarm/record action in this OB.",
			})
		}
	}
	return res, nil
}

func hasDiagnosticAction(body []lang.Statement, maxDepth int) bool {
	found := false
	_ = lang.WalkStatements(body, maxDepth, func(s lang.Statement, _ int) error {
		switch s := s.(type) {
		case *lang.Assign:
			found = found || lang.ContainsAny(lang.TargetName(s.Target), diagnosticTargets...) ||
				lang.ContainsAny(lang.ExprText(s.Value), "LOG")
		case *lang.Call:
			found = found || lang.ContainsAny(s.Name, diagnosticCalls...)
		case *lang.ExprStmt:
			for _, fc := range lang.FuncCalls(s.Value) {
				found = found || lang.ContainsAny(fc.Name, diagnosticCalls...)
			}
		}
		return nil
	})
	return found
}

const (
	alertPrefix        = "CRITICAL_ALERT_"
	falseNegativeTrap  = "_FALSE_NEGATIVE"
	falsePositiveTrap  = "_FALSE_POSITIVE"
	falseAlertAdvisory = "Define and wire both *_False_Negative and *_False_Positive signals into logic/logs."
)

func checkFalseAlerts(c *Context) ([]Violation, error) {
	var res []Violation
	for _, f := range c.Program.Functions {
		type alert struct {
			name string
			line int
		}
		var alerts []alert
		seen := map[string]bool{}
		assigned := map[string]bool{}
		referenced := map[string]bool{}
		err := lang.WalkStatements(f.Body, c.MaxDepth(), func(s lang.Statement, _ int) error {
			if a, ok := s.(*lang.Assign); ok {
				name := lang.TargetName(a.Target)
				u := lang.Canonical(name)
				assigned[u] = true
				if strings.HasPrefix(u, alertPrefix) && !strings.HasSuffix(u, falseNegativeTrap) &&
					!strings.HasSuffix(u, falsePositiveTrap) && !seen[u] {
					seen[u] = true
					alerts = append(alerts, alert{name, a.Line})
				}
			}
			for _, e := range readExprs(s) {
				for _, v := range lang.Vars(e) {
					referenced[lang.Canonical(v)] = true
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("in %s: %w", f.Name, err)
		}
		for _, a := range alerts {
			u := lang.Canonical(a.name)
			fn, fp := u+falseNegativeTrap, u+falsePositiveTrap
			if !(assigned[fn] || referenced[fn]) || !(assigned[fp] || referenced[fp]) {
				res = append(res, Violation{
					Line:       a.line,
					Reason:     fmt.Sprintf("Missing or unused trap variables for '%s'", a.name),
					Suggestion: falseAlertAdvisory,
				})
			}
		}
	}
	return res, nil
}
