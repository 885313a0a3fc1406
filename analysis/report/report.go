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


// Package report writes rule outcomes as JSON or as text for a terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/awslabs/ar-plc-tools/analysis/rules"
	"github.com/awslabs/ar-plc-tools/internal/formatutil"
)

// FileResult is the outcomes of the analysis of one file
type FileResult struct {
	File     string          `json:"file"`
	Outcomes []rules.Outcome `json:"outcomes"`
}

// Summary counts the outcomes of one or more files
type Summary struct {
	Rules      int
	Clean      int
	Violations int
	Errors     int
}

// Summarize counts the outcomes. Violations is the number of violations, not of rules with violations.
func Summarize(outcomes []rules.Outcome) Summary {
	s := Summary{Rules: len(outcomes), Violations: rules.CountViolations(outcomes)}
	for _, o := range outcomes {
		switch o.Status {
		case rules.Clean:
			s.Clean++
		case rules.Error:
			s.Errors++
		}
	}
	return s
}

// WriteJSON writes the outcomes as an indented JSON array. The output only depends on the outcomes.
func WriteJSON(w io.Writer, outcomes []rules.Outcome) error {
	if outcomes == nil {
		outcomes = []rules.Outcome{}
	}
	return writeIndented(w, outcomes)
}

// WriteJSONFiles writes the results of several files as an indented JSON array of {file, outcomes} objects
func WriteJSONFiles(w io.Writer, results []FileResult) error {
	if results == nil {
		results = []FileResult{}
	}
	for i := range results {
		if results[i].Outcomes == nil {
			results[i].Outcomes = []rules.Outcome{}
		}
	}
	return writeIndented(w, results)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}

// WriteText writes the outcomes for a reader: every violation with its line, reason and suggestion, and the
// rules that could not run. With verbose, clean rules are listed too. A summary line ends the report.
func WriteText(w io.Writer, outcomes []rules.Outcome, verbose bool) error {
	var b strings.Builder
	for _, o := range outcomes {
		writeOutcome(&b, o, verbose)
	}
	s := Summarize(outcomes)
	summary := fmt.Sprintf("%d rules: %d clean, %d violations, %d errors", s.Rules, s.Clean, s.Violations,
		s.Errors)
	switch {
	case s.Errors > 0:
		b.WriteString(formatutil.Yellow(summary))
	case s.Violations > 0:
		b.WriteString(formatutil.Red(summary))
	default:
		b.WriteString(formatutil.Green(summary))
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteTextFiles writes the text report of each file under a header naming it
func WriteTextFiles(w io.Writer, results []FileResult, verbose bool) error {
	for i, r := range results {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n", formatutil.Bold(formatutil.Sanitize(r.File))); err != nil {
			return err
		}
		if err := WriteText(w, r.Outcomes, verbose); err != nil {
			return err
		}
	}
	return nil
}

func writeOutcome(b *strings.Builder, o rules.Outcome, verbose bool) {
	title := fmt.Sprintf("[%d] %s", o.RuleNo, o.RuleName)
	switch o.Status {
	case rules.Clean:
		if verbose {
			fmt.Fprintf(b, "%s %s\n", formatutil.Green("ok"), title)
		}
	case rules.Violations:
		fmt.Fprintf(b, "%s %s: %d violation(s)\n", formatutil.Red("violations"), formatutil.Bold(title),
			len(o.Violations))
		for _, v := range o.Violations {
			fmt.Fprintf(b, "  line %d: %s\n", v.Line, formatutil.Sanitize(v.Reason))
			if v.Suggestion != "" {
				fmt.Fprintf(b, "    %s %s\n", formatutil.Faint("suggestion:"), formatutil.Sanitize(v.Suggestion))
			}
		}
	case rules.Error:
		fmt.Fprintf(b, "%s %s: %s\n", formatutil.Yellow("error"), formatutil.Bold(title),
			formatutil.Sanitize(o.Error))
		if verbose {
			for _, v := range o.Violations {
				if v.Suggestion != "" {
					fmt.Fprintf(b, "    %s %s\n", formatutil.Faint("suggestion:"), formatutil.Sanitize(v.Suggestion))
				}
			}
		}
	}
}
