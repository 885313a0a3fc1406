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

// Package check implements the plcheck sub-command that runs the rules on source files.
package check

import (
	"fmt"
	"io"
	"os"

	"github.com/awslabs/ar-plc-tools/analysis"
	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/policy"
	"github.com/awslabs/ar-plc-tools/analysis/report"
	"github.com/awslabs/ar-plc-tools/analysis/rules"
	"github.com/awslabs/ar-plc-tools/cmd/plcheck/tools"
	"github.com/awslabs/ar-plc-tools/internal/formatutil"
)

// Flags represents the parsed flags for the check sub-command.
type Flags struct {
	tools.CommonFlags
	PolicyPath      string
	Format          string
	FailOnViolation bool
}

// NewFlags creates parsed check sub-command flags for args. name is the sub-command name, since watch shares
// the flags of check.
func NewFlags(name string, args []string, usage string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags(name)
	policyPath := flags.FlagSet.String("policy", "", "policy file path (JSON, or yaml with a .yaml extension)")
	format := flags.FlagSet.String("format", tools.FormatText, "report format: text or json")
	failOnViolation := flags.FlagSet.Bool("fail-on-violation", false, "exit with status 1 when a rule reports violations")
	tools.SetUsage(flags.FlagSet, usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	if err := tools.CheckFormat(*format); err != nil {
		return Flags{}, err
	}
	if len(common.FlagSet.Args()) == 0 {
		return Flags{}, fmt.Errorf("%s: expected at least one source file", name)
	}
	return Flags{
		CommonFlags:     common,
		PolicyPath:      *policyPath,
		Format:          *format,
		FailOnViolation: *failOnViolation,
	}, nil
}

// Usage is the help message of the check sub-command
const Usage = `Check SCL or IL source files against the PLC secure coding rules.

Usage:
  plcheck check [options] source.scl...

The dialect of each file is detected from its extension (.scl, .st, .il, .awl) and its text, unless -dialect
is given. The report goes to standard output, the logs to standard error.

Use the -help flag to display the options.

Examples:
% plcheck check -policy policy.json Main_OB1.scl Startup.scl
% plcheck check -format json -fail-on-violation line2/*.il
`

// Session is the loaded configuration and policy of a check, reused across the runs of plcheck watch
type Session struct {
	Flags     Flags
	Config    *config.Config
	Logger    *config.LogGroup
	Policy    policy.Policy
	PolicyErr error
}

// NewSession loads the config and the policy named by the flags. Logs are written to logOutput.
func NewSession(flags Flags, logOutput io.Writer) (*Session, error) {
	cfg, logger, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose, logOutput)
	if err != nil {
		return nil, err
	}
	pol, policyErr, err := tools.LoadPolicy(flags.PolicyPath)
	if err != nil {
		return nil, err
	}
	return &Session{Flags: flags, Config: cfg, Logger: logger, Policy: pol, PolicyErr: policyErr}, nil
}

// CheckFiles reads and checks each file. A file that cannot be read is an error, a file that does not parse
// gets a Parse Error outcome.
func (s *Session) CheckFiles(paths []string) ([]report.FileResult, error) {
	results := make([]report.FileResult, 0, len(paths))
	for _, path := range paths {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read source file: %w", err)
		}
		outcomes := analysis.CheckInput(s.Config, s.Logger, analysis.Input{
			FileName:  path,
			Source:    string(b),
			Dialect:   s.Flags.Dialect,
			Policy:    s.Policy,
			PolicyErr: s.PolicyErr,
		})
		results = append(results, report.FileResult{File: path, Outcomes: outcomes})
	}
	return results, nil
}

// Write writes the report of results to w in the format of the flags
func (s *Session) Write(w io.Writer, results []report.FileResult) error {
	if s.Flags.Format == tools.FormatJSON {
		return report.WriteJSONFiles(w, results)
	}
	return report.WriteTextFiles(w, results, s.Flags.Verbose)
}

// HasViolations returns true if any outcome of the results has violations
func HasViolations(results []report.FileResult) bool {
	for _, r := range results {
		if rules.HasViolations(r.Outcomes) {
			return true
		}
	}
	return false
}

// Run runs the check sub-command with flags, writing the report to stdout and the logs to stderr.
// Returns tools.ErrViolations if flags.FailOnViolation is set and some rule reports violations.
func Run(flags Flags, stdout io.Writer, stderr io.Writer) error {
	session, err := NewSession(flags, stderr)
	if err != nil {
		return err
	}
	if flags.Format == tools.FormatJSON {
		formatutil.SetColors(false)
	}
	session.Logger.Debugf("%s", formatutil.Faint("Checking ", len(flags.FlagSet.Args()), " file(s)"))
	results, err := session.CheckFiles(flags.FlagSet.Args())
	if err != nil {
		return err
	}
	if err := session.Write(stdout, results); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if flags.FailOnViolation && HasViolations(results) {
		return tools.ErrViolations
	}
	return nil
}
