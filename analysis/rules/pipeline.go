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

	"github.com/awslabs/ar-plc-tools/analysis/lang"
)

// pipeline describes a read-compare-emit monitoring pattern: some system value is read, possibly compared to a
// threshold, and emitted to a variable operators or logs can see.
type pipeline struct {
	// calls are name fragments of the system functions reading the value
	calls []string
	// vars are name fragments of the variables providing the value
	vars []string
	// sinks are name fragments of emit targets, in addition to HMI, DB and LOG
	sinks []string
}

// pipelineScan is what a scan of a routine found. Lines are 0 when the step was not found.
type pipelineScan struct {
	readLine      int
	thresholdLine int
	emitLine      int
	// captured are the variables holding the value read, canonical
	captured map[string]bool
}

func (p pipeline) scan(body []lang.Statement, maxDepth int) (pipelineScan, error) {
	res := pipelineScan{captured: map[string]bool{}}
	read := func(line int) {
		if res.readLine == 0 {
			res.readLine = line
		}
	}
	err := lang.WalkStatements(body, maxDepth, func(s lang.Statement, _ int) error {
		switch s := s.(type) {
		case *lang.Call:
			if lang.ContainsAny(s.Name, p.calls...) {
				read(s.Line)
				for _, a := range s.Args {
					if v, ok := a.Value.(*lang.VariableRef); ok {
						res.captured[lang.Canonical(v.Name)] = true
					}
				}
				return nil
			}
			if isReportTarget(s.Name, p.sinks...) {
				for _, a := range s.Args {
					if !a.Output && p.refersToRead(a.Value, res.captured) {
						res.emit(s.Line)
					}
				}
			}
		case *lang.Assign:
			if p.callsRead(s.Value) || p.mentionsRead(s.Value) {
				read(s.Line)
			}
			if !p.refersToRead(s.Value, res.captured) {
				return nil
			}
			target := lang.TargetName(s.Target)
			res.captured[lang.Canonical(target)] = true
			if isReportTarget(target, p.sinks...) {
				res.emit(s.Line)
			}
		case *lang.ExprStmt:
			if p.callsRead(s.Value) {
				read(s.Line)
			}
		case *lang.If:
			if res.thresholdLine == 0 && p.comparesRead(s.Cond, res.captured) {
				res.thresholdLine = s.Line
			}
		}
		return nil
	})
	return res, err
}

func (r *pipelineScan) emit(line int) {
	if r.emitLine == 0 {
		r.emitLine = line
	}
}

func (p pipeline) callsRead(e lang.Expression) bool {
	for _, fc := range lang.FuncCalls(e) {
		if lang.ContainsAny(fc.Name, p.calls...) {
			return true
		}
	}
	return false
}

func (p pipeline) mentionsRead(e lang.Expression) bool {
	for _, v := range lang.Vars(e) {
		if lang.ContainsAny(v, p.vars...) {
			return true
		}
	}
	return false
}

// refersToRead returns true if e reads the monitored value directly or through a variable holding it
func (p pipeline) refersToRead(e lang.Expression, captured map[string]bool) bool {
	if p.callsRead(e) || p.mentionsRead(e) {
		return true
	}
	for _, v := range lang.Vars(e) {
		if captured[lang.Canonical(v)] {
			return true
		}
	}
	return false
}

// comparesRead returns true if cond compares the monitored value to something
func (p pipeline) comparesRead(cond lang.Expression, captured map[string]bool) bool {
	found := false
	lang.InspectExpr(cond, func(e lang.Expression) bool {
		if b, ok := e.(*lang.BinaryOp); ok && b.Op.IsComparison() && p.refersToRead(b, captured) {
			found = true
		}
		return !found
	})
	return found
}

var cycleTimePipeline = pipeline{calls: []string{"RT_INFO"}, vars: []string{"OB1_PREV_CYCLE"}}

func checkCycleTimes(c *Context) ([]Violation, error) {
	f := c.Program.FindKind(lang.OB1)
	if f == nil {
		return nil, nil
	}
	scan, err := cycleTimePipeline.scan(f.Body, c.MaxDepth())
	if err != nil {
		return nil, fmt.Errorf("in %s: %w", f.Name, err)
	}
	const suggestion = "In OB1, move OB1_PREV_CYCLE into an HMI/DB/LOG tag (e.g., HMI_CycleTime := OB1_PREV_CYCLE)."
	switch {
	case scan.readLine == 0:
		return []Violation{{
			Line:       f.Line,
			Reason:     "Cycle-time summary incomplete: OB1_PREV_CYCLE is never captured",
			Suggestion: suggestion,
		}}, nil
	case scan.emitLine == 0:
		return []Violation{{
			Line:       scan.readLine,
			Reason:     "Cycle-time summary incomplete: cycle time captured but not emitted to an HMI/DB/LOG tag",
			Suggestion: suggestion,
		}}, nil
	}
	return nil, nil
}

var uptimePipeline = pipeline{calls: []string{"SFC6", "RD_SINFO"}, vars: []string{"UPTIME", "RUNTIME"}}

func checkUptime(c *Context) ([]Violation, error) {
	systemRead, monotonic, reported, firstLine := 0, false, false, 0
	for _, f := range c.Program.Functions {
		if firstLine == 0 {
			firstLine = f.Line
		}
		scan, err := uptimePipeline.scan(f.Body, c.MaxDepth())
		if err != nil {
			return nil, fmt.Errorf("in %s: %w", f.Name, err)
		}
		reported = reported || scan.emitLine > 0
		err = lang.WalkStatements(f.Body, c.MaxDepth(), func(s lang.Statement, _ int) error {
			switch s := s.(type) {
			case *lang.Call:
				if systemRead == 0 && lang.ContainsAny(s.Name, uptimePipeline.calls...) {
					systemRead = s.Line
				}
			case *lang.Assign:
				monotonic = monotonic || isMonotonicCounter(s, "UPTIME")
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("in %s: %w", f.Name, err)
		}
	}
	if systemRead > 0 {
		if reported {
			return nil, nil
		}
		return []Violation{{
			Line:       systemRead,
			Reason:     "SFC6/RD_SINFO used but uptime not reported",
			Suggestion: "Assign SFC6/RD_SINFO runtime to an HMI/DB tag for monitoring.",
		}}, nil
	}
	if monotonic && reported {
		return nil, nil
	}
	return []Violation{{
		Line:       firstLine,
		Reason:     "No monotonic uptime logging detected",
		Suggestion: "Add an uptime counter (monotonic) and periodically store/log it to HMI/DB.",
	}}, nil
}

// isMonotonicCounter returns true for `X := X + ...` where X mentions keyword
func isMonotonicCounter(a *lang.Assign, keyword string) bool {
	target := lang.TargetName(a.Target)
	if !lang.ContainsAny(target, keyword) {
		return false
	}
	b, ok := a.Value.(*lang.BinaryOp)
	return ok && b.Op == lang.Add && lang.References(b, target)
}

var memoryPipeline = pipeline{calls: []string{"SFC24", "TEST_DB"}, sinks: []string{"MEM"}}

func checkMemoryUsage(c *Context) ([]Violation, error) {
	var res []Violation
	for _, f := range c.Program.Functions {
		scan, err := memoryPipeline.scan(f.Body, c.MaxDepth())
		if err != nil {
			return nil, fmt.Errorf("in %s: %w", f.Name, err)
		}
		if scan.readLine > 0 && scan.emitLine == 0 && scan.thresholdLine == 0 {
			res = append(res, Violation{
				Line:       scan.readLine,
				Reason:     "SFC24/TEST_DB used but memory usage not reported",
				Suggestion: "Assign memory usage data to an HMI/DB tag for monitoring.",
			})
		}
	}
	return res, nil
}
