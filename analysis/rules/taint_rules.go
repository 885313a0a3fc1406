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
	"fmt"
	"strings"

	"github.com/awslabs/ar-plc-tools/analysis/taint"
)

// taintRule is a rule expressed as a configuration of the taint engine: the problem it solves on every routine,
// and which of the resulting flows it reports.
type taintRule struct {
	problem func(c *Context) taint.Problem
	report  func(f taint.Flow) (Violation, bool)
}

func (r taintRule) check(c *Context) ([]Violation, error) {
	p := r.problem(c)
	env := c.Env()
	var res []Violation
	for _, f := range c.Program.Functions {
		flows, err := taint.Analyze(env, f.Body, p)
		if err != nil {
			return nil, fmt.Errorf("in %s: %w", f.Name, err)
		}
		for _, flow := range flows {
			if v, ok := r.report(flow); ok {
				res = append(res, v)
			}
		}
	}
	return res, nil
}

func flagGated(site taint.GuardSite) bool {
	return site.Guards.HasFlagGate()
}

// untrustedToActuators is the problem shared by the HMI validation and plausibility rules
func untrustedToActuators(extra func(taint.GuardSite) bool) func(c *Context) taint.Problem {
	return func(c *Context) taint.Problem {
		return taint.Problem{
			IsSource:       c.isUntrusted,
			IsSinkTarget:   c.isActuator,
			ExtraSanitizer: extra,
		}
	}
}

var timerRule = taintRule{
	problem: func(c *Context) taint.Problem {
		return taint.Problem{
			IsSource:     c.isUntrusted,
			IsSinkTarget: isTimerPresetTarget,
			IsSinkArg: func(call string, arg string, index int) bool {
				preset, i, ok := timerPreset(call)
				if !ok {
					return false
				}
				if arg != "" {
					return strings.EqualFold(arg, preset)
				}
				return index == i
			},
			ExtraSanitizer: taint.LimitKeywordFallback,
		}
	},
	report: func(f taint.Flow) (Violation, bool) {
		if f.Sanitized() {
			return Violation{}, false
		}
		if f.Kind == taint.AssignSink {
			return Violation{
				Line:       f.Line,
				Reason:     fmt.Sprintf("Timer preset '%s' set from unvalidated source", f.Sink),
				Suggestion: "Add a range/plausibility check before setting timer presets.",
			}, true
		}
		return Violation{
			Line: f.Line,
			Reason: fmt.Sprintf("Timer preset %s of '%s' comes from unvalidated source '%s'",
				f.Arg, f.Sink, f.ValueText()),
			Suggestion: "Add a range/plausibility check (or @PlausibilityCheck) before setting timer PT.",
		}, true
	},
}

var hmiRule = taintRule{
	problem: untrustedToActuators(taint.LimitKeywordFallback),
	report: func(f taint.Flow) (Violation, bool) {
		if f.Sanitized() {
			return Violation{}, false
		}
		return Violation{
			Line:       f.Line,
			Reason:     fmt.Sprintf("Untrusted data flows into sensitive variable '%s'", f.Sink),
			Suggestion: "Add plausibility/authorization checks (range limits, state checks) or a nearby @PlausibilityCheck.",
		}, true
	},
}

var plausibilityPresenceRule = taintRule{
	problem: untrustedToActuators(flagGated),
	report: func(f taint.Flow) (Violation, bool) {
		if f.Sanitized() {
			return Violation{}, false
		}
		return Violation{
			Line:       f.Line,
			Reason:     fmt.Sprintf("Use of sensitive value '%s' without plausibility validation", f.ValueText()),
			Suggestion: "Add a nearby @PlausibilityCheck or guard with range/authorization before this use.",
		}, true
	},
}

// plausibilityEnforcementRule reports annotated flows whose validation result never gates the action.
var plausibilityEnforcementRule = taintRule{
	problem: untrustedToActuators(flagGated),
	report: func(f taint.Flow) (Violation, bool) {
		if !f.Annotated || f.Guarded || f.Extra {
			return Violation{}, false
		}
		return Violation{
			Line:       f.Line,
			Reason:     fmt.Sprintf("Plausibility annotation present but not enforced before assigning to '%s'", f.Sink),
			Suggestion: "Use the plausibility result to gate this action (e.g., IF setpointOK THEN ...).",
		}, true
	},
}
