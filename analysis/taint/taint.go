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

package taint

import (
	"fmt"

	"github.com/awslabs/ar-plc-tools/analysis/annotations"
	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/lang"
	"github.com/awslabs/ar-plc-tools/internal/funcutil"
	"golang.org/x/exp/maps"
)

// Problem contains the predicates that identify a specific taint tracking problem. Nil predicates never match.
type Problem struct {
	// IsSource returns true if the variable holds untrusted data
	IsSource func(name string) bool

	// IsSinkTarget returns true if assigning tainted data to the variable is a flow to report
	IsSinkTarget func(target string) bool

	// IsSinkArg returns true if passing tainted data as argument index (named arg, or "" if positional) of call
	// is a flow to report
	IsSinkArg func(call string, arg string, index int) bool

	// ExtraSanitizer optionally accepts a value as sanitized beyond annotations and range-constraining guards
	ExtraSanitizer func(GuardSite) bool
}

// Env is the read-only context shared by every run of the engine on a file.
type Env struct {
	Annotations   *annotations.Index
	AnnotationGap int
	MaxDepth      int
	Matcher       Matcher
	Logger        *config.LogGroup
}

// SinkKind tells whether a flow ends in an assignment or in a call argument.
type SinkKind int

const (
	// AssignSink flows end in an assignment to a sensitive target
	AssignSink SinkKind = iota
	// ArgSink flows end in a sensitive call argument
	ArgSink
)

// Flow is tainted data reaching a sink, with the reasons it may be considered sanitized.
type Flow struct {
	Kind SinkKind
	Line int

	// Sink is the assignment target or the called name
	Sink string

	// Arg is the argument name for ArgSink flows, or its position (e.g. "#1") if it is positional
	Arg string

	Value lang.Expression

	// Tainted lists the variables of Value that are sources or tainted
	Tainted []string

	// Annotated is true if a validation marker sits above the statement
	Annotated bool

	// Guarded is true if an enclosing guard range-constrains a variable of the value
	Guarded bool

	// Extra is true if the problem's extra sanitizer accepted the value
	Extra bool
}

// Sanitized returns true if any sanitization applies to the flow.
func (f Flow) Sanitized() bool {
	return f.Annotated || f.Guarded || f.Extra
}

// ValueText returns the canonical text of the value reaching the sink.
func (f Flow) ValueText() string {
	return lang.ExprText(f.Value)
}

// Analyze runs the taint/guard engine on one routine body and returns the flows reaching sinks, in the order
// they were found. Each call starts from an empty taint set. The only error is nesting deeper than
// env.MaxDepth.
func Analyze(env Env, stmts []lang.Statement, p Problem) ([]Flow, error) {
	if env.MaxDepth <= 0 {
		env.MaxDepth = lang.DefaultMaxDepth
	}
	a := &analyzer{env: env, problem: p}
	_, err := a.block(stmts, taintSet{}, 0)
	return a.flows, err
}

// taintSet is the set of tainted variables, keyed by canonical name
type taintSet map[string]bool

func (s taintSet) clone() taintSet {
	return maps.Clone(s)
}

type analyzer struct {
	env     Env
	problem Problem
	guards  Guards
	flows   []Flow
}

func (a *analyzer) block(stmts []lang.Statement, in taintSet, depth int) (taintSet, error) {
	cur := in
	for _, s := range stmts {
		var err error
		cur, err = a.stmt(s, cur, depth)
		if err != nil {
			return cur, err
		}
	}
	return cur, nil
}

func (a *analyzer) stmt(s lang.Statement, cur taintSet, depth int) (taintSet, error) {
	switch s := s.(type) {
	case *lang.Assign:
		a.assign(s, cur)
	case *lang.Call:
		a.call(s, cur)
	case *lang.ExprStmt:
		a.nestedCalls(s.Value, s.Line, cur)
	case *lang.If:
		if depth+1 > a.env.MaxDepth {
			return cur, lang.DepthError(s.Line, a.env.MaxDepth)
		}
		a.guards = append(a.guards, s.Cond)
		thenOut, err := a.block(s.Then, cur.clone(), depth+1)
		a.guards = a.guards[:len(a.guards)-1]
		if err != nil {
			return cur, err
		}
		elseOut, err := a.block(s.Else, cur.clone(), depth+1)
		if err != nil {
			return cur, err
		}
		return funcutil.Union(thenOut, elseOut), nil
	case *lang.Case:
		if depth+1 > a.env.MaxDepth {
			return cur, lang.DepthError(s.Line, a.env.MaxDepth)
		}
		out, err := a.block(s.Else, cur.clone(), depth+1)
		if err != nil {
			return cur, err
		}
		for _, arm := range s.Arms {
			armOut, err := a.block(arm.Body, cur.clone(), depth+1)
			if err != nil {
				return cur, err
			}
			out = funcutil.Union(out, armOut)
		}
		return out, nil
	case *lang.Comment:
	default:
		return cur, fmt.Errorf("unexpected statement %T", s)
	}
	return cur, nil
}

// taintedVars returns the variables of e that are sources or already tainted
func (a *analyzer) taintedVars(e lang.Expression, cur taintSet) []string {
	var res []string
	for _, v := range lang.Vars(e) {
		if cur[lang.Canonical(v)] || (a.problem.IsSource != nil && a.problem.IsSource(v)) {
			res = append(res, v)
		}
	}
	return res
}

// sanitization computes the three sanitization verdicts of a value used on line
func (a *analyzer) sanitization(value lang.Expression, line int) (annotated, guarded, extra bool) {
	vars := lang.Vars(value)
	annotated = a.env.Annotations.HasAnnotationAbove(line, a.env.AnnotationGap)
	guarded = a.guards.ConstrainsAny(a.env.Matcher, vars)
	if a.problem.ExtraSanitizer != nil {
		site := GuardSite{Guards: append(Guards(nil), a.guards...), Value: value, Vars: vars}
		extra = a.problem.ExtraSanitizer(site)
	}
	return
}

func (a *analyzer) assign(s *lang.Assign, cur taintSet) {
	a.nestedCalls(s.Value, s.Line, cur)
	target := lang.TargetName(s.Target)
	tainted := a.taintedVars(s.Value, cur)
	if len(tainted) == 0 {
		delete(cur, lang.Canonical(target))
	} else {
		annotated, guarded, extra := a.sanitization(s.Value, s.Line)
		if annotated || guarded || extra {
			delete(cur, lang.Canonical(target))
		} else {
			cur[lang.Canonical(target)] = true
		}
		if a.problem.IsSinkTarget != nil && a.problem.IsSinkTarget(target) {
			a.flows = append(a.flows, Flow{
				Kind:      AssignSink,
				Line:      s.Line,
				Sink:      target,
				Value:     s.Value,
				Tainted:   tainted,
				Annotated: annotated,
				Guarded:   guarded,
				Extra:     extra,
			})
		}
	}
	if a.env.Logger != nil && a.env.Logger.Level() >= config.TraceLevel {
		a.env.Logger.Tracef("line %d: %s := %s, tainted %v", s.Line, target, lang.ExprText(s.Value),
			funcutil.SetToOrderedSlice(cur))
	}
}

func (a *analyzer) call(s *lang.Call, cur taintSet) {
	for i, arg := range s.Args {
		if arg.Output {
			continue
		}
		name := arg.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		a.checkArg(s.Name, arg.Name, name, i, arg.Value, s.Line, cur)
		a.nestedCalls(arg.Value, s.Line, cur)
	}
}

// nestedCalls checks the arguments of every call nested in e
func (a *analyzer) nestedCalls(e lang.Expression, line int, cur taintSet) {
	for _, fc := range lang.FuncCalls(e) {
		l := fc.Line
		if l <= 0 {
			l = line
		}
		for i, arg := range fc.Args {
			a.checkArg(fc.Name, "", fmt.Sprintf("#%d", i), i, arg, l, cur)
		}
	}
}

func (a *analyzer) checkArg(call string, argName string, display string, index int, value lang.Expression,
	line int, cur taintSet) {
	if a.problem.IsSinkArg == nil || !a.problem.IsSinkArg(call, argName, index) {
		return
	}
	tainted := a.taintedVars(value, cur)
	if len(tainted) == 0 {
		return
	}
	annotated, guarded, extra := a.sanitization(value, line)
	a.flows = append(a.flows, Flow{
		Kind:      ArgSink,
		Line:      line,
		Sink:      call,
		Arg:       display,
		Value:     value,
		Tainted:   tainted,
		Annotated: annotated,
		Guarded:   guarded,
		Extra:     extra,
	})
}
