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

import "golang.org/x/exp/slices"

// Rule is one entry of the catalog.
type Rule struct {
	// No is the number of the practice in the "Top 20 PLC Secure Coding Practices"
	No int

	Name string

	// Summary is a one-line description of what the rule checks
	Summary string

	// Check returns the violations of the rule in the program of ctx. The rule number and name of the
	// violations are filled by the caller.
	Check func(ctx *Context) ([]Violation, error)
}

// Catalog returns all the rules, ordered by number. Every call returns a fresh slice.
func Catalog() []Rule {
	return []Rule{
		{1, "Modularize PLC Code",
			"code units stay under the complexity and size thresholds", checkModularity},
		{4, "Use PLC flags as integrity checks",
			"divisions are guarded by status-word flags or a non-zero divisor check", checkDivisions},
		{5, "Use checksum integrity checks",
			"routines using recipe or parameter data verify a checksum and raise an alarm", checkChecksums},
		{6, "Validate timers and counters",
			"timer and counter presets do not come from unvalidated input", timerRule.check},
		{7, "Validate paired inputs/outputs",
			"policy-declared output pairs are never active together", checkPairs},
		{8, "Validate HMI input variables",
			"untrusted input does not reach actuator variables unvalidated", hmiRule.check},
		{9, "Validate indirections",
			"array indices are bounds-checked and unsafe copy functions are avoided", checkIndirections},
		{10, "Assign designated register blocks",
			"no write lands in a read-only memory area of the policy", checkRegisterBlocks},
		{11, "Plausibility Checks (Presence)",
			"sensitive values are validated before use", plausibilityPresenceRule.check},
		{12, "Plausibility Checks (Enforcement)",
			"annotated plausibility checks are enforced by a guard or a validation flag", plausibilityEnforcementRule.check},
		{15, "Define a safe restart state",
			"the startup OB initializes critical outputs to a safe state", checkSafeRestart},
		{16, "Summarize PLC cycle times",
			"OB1 captures the previous cycle time and reports it", checkCycleTimes},
		{17, "Log PLC uptime",
			"the PLC uptime is read or counted and reported", checkUptime},
		{18, "Log PLC hard stops",
			"the rack failure, programming error and diagnostic OBs log the event", checkHardStops},
		{19, "Monitor PLC memory usage",
			"memory usage reads are reported", checkMemoryUsage},
		{20, "Trap false alerts",
			"critical alerts come with false-negative and false-positive traps", checkFalseAlerts},
	}
}

// Lookup returns the rule with number no.
func Lookup(no int) (Rule, bool) {
	rules := Catalog()
	i := slices.IndexFunc(rules, func(r Rule) bool { return r.No == no })
	if i < 0 {
		return Rule{}, false
	}
	return rules[i], true
}
