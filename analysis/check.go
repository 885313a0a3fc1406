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


// Package analysis runs the secure coding rules on control logic sources: it parses a source file, decodes
// its policy, and collects the outcome of every rule.
package analysis

import (
	"time"

	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/frontend"
	"github.com/awslabs/ar-plc-tools/analysis/policy"
	"github.com/awslabs/ar-plc-tools/analysis/rules"
)

// Version is the version of the analyzer
const Version = "0.3.0"

// Input is one source file to check
type Input struct {
	FileName string
	Source   string
	// Dialect of the source; frontend.Auto detects it from the file name and the text
	Dialect frontend.Dialect
	// Policy is the policy the rules check the program against
	Policy policy.Policy
	// PolicyErr is the error decoding the policy, if any. The rules then run with Policy, normally empty.
	PolicyErr error
}

// Check runs the rules on the source src, with the JSON policy in policyText. The dialect is detected from the
// file name and the text.
//
// A source that does not parse gives a single Parse Error outcome. A malformed policy gives a Policy Parsing
// Error outcome, followed by the outcomes of the rules run with the empty policy.
func Check(cfg *config.Config, logger *config.LogGroup, src string, fileName string, policyText string) []rules.Outcome {
	pol, err := policy.Parse(policyText)
	return CheckInput(cfg, logger, Input{FileName: fileName, Source: src, Policy: pol, PolicyErr: err})
}

// CheckInput runs the rules on one input. See Check.
func CheckInput(cfg *config.Config, logger *config.LogGroup, in Input) []rules.Outcome {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if logger == nil {
		logger = config.NewLogGroup(cfg)
	}
	start := time.Now()
	name := displayName(in.FileName)

	loaded, err := LoadProgram(cfg, logger, in.FileName, in.Source, in.Dialect)
	if err != nil {
		logger.Errorf("%s: %v", name, err)
		return []rules.Outcome{rules.ParseErrorOutcome(err)}
	}

	var outcomes []rules.Outcome
	pol := in.Policy
	if in.PolicyErr != nil {
		logger.Warnf("%s: %v; using the default policy", name, in.PolicyErr)
		outcomes = append(outcomes, rules.PolicyErrorOutcome(in.PolicyErr))
		pol = policy.Policy{}
	}

	ctx := rules.NewContext(cfg, logger, loaded.Program, pol, loaded.Annotations)
	outcomes = append(outcomes, rules.RunRules(ctx)...)
	logger.Infof("%s: %d rules, %d violations (%.2f s)", name, len(outcomes), rules.CountViolations(outcomes),
		time.Since(start).Seconds())
	return outcomes
}
