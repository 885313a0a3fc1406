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
	"fmt"
)

// Status is the result kind of one rule.
type Status int

const (
	// Clean means the rule ran and found nothing
	Clean Status = iota
	// Violations means the rule ran and reported at least one violation
	Violations
	// Error means the rule could not run; Outcome.Error says why
	Error
)

var statusNames = [...]string{Clean: "clean", Violations: "violations", Error: "error"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalJSON writes the status as its name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON reads a status name.
func (s *Status) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for i, n := range statusNames {
		if n == name {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", name)
}

// Violation is one finding of a rule.
type Violation struct {
	RuleNo     int    `json:"rule_no"`
	RuleName   string `json:"rule_name"`
	Line       int    `json:"line"`
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion"`
}

// Outcome is the result of running one rule on one program.
type Outcome struct {
	RuleNo     int         `json:"rule_no"`
	RuleName   string      `json:"rule_name"`
	Status     Status      `json:"status"`
	Violations []Violation `json:"violations"`
	Error      string      `json:"error,omitempty"`
}

// NewOutcome returns the outcome of a rule that reported the violations vs. The violations are stamped with
// the rule number and name.
func NewOutcome(no int, name string, vs []Violation) Outcome {
	o := Outcome{RuleNo: no, RuleName: name, Status: Clean, Violations: []Violation{}}
	for _, v := range vs {
		v.RuleNo = no
		v.RuleName = name
		o.Violations = append(o.Violations, v)
	}
	if len(o.Violations) > 0 {
		o.Status = Violations
	}
	return o
}

// ErrorOutcome returns the outcome of a rule that could not run.
func ErrorOutcome(no int, name string, err error) Outcome {
	return Outcome{RuleNo: no, RuleName: name, Status: Error, Violations: []Violation{}, Error: err.Error()}
}

// Sentinel rule names, reported with rule number 0 by the analysis pipeline.
const (
	ParseErrorRule  = "Parse Error"
	PolicyErrorRule = "Policy Parsing Error"
)

// ParseErrorOutcome is the single outcome reported when the source cannot be parsed.
func ParseErrorOutcome(err error) Outcome {
	return Outcome{
		RuleNo:   0,
		RuleName: ParseErrorRule,
		Status:   Error,
		Violations: []Violation{{
			RuleName:   ParseErrorRule,
			Reason:     err.Error(),
			Suggestion: "Check file type and syntax.",
		}},
		Error: err.Error(),
	}
}

// PolicyErrorOutcome is reported before the rule outcomes when the policy is malformed.
func PolicyErrorOutcome(err error) Outcome {
	msg := "Invalid policy JSON: " + err.Error()
	return Outcome{
		RuleNo:   0,
		RuleName: PolicyErrorRule,
		Status:   Error,
		Violations: []Violation{{
			RuleName:   PolicyErrorRule,
			Reason:     msg,
			Suggestion: "Fix the policy file; the analysis ran with the default policy.",
		}},
		Error: msg,
	}
}

// CountViolations returns the total number of violations in outcomes.
func CountViolations(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		n += len(o.Violations)
	}
	return n
}

// HasViolations returns true if some rule reported violations.
func HasViolations(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Status == Violations {
			return true
		}
	}
	return false
}
