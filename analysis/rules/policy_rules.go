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
	"github.com/awslabs/ar-plc-tools/analysis/policy"
)

func checkPairs(c *Context) ([]Violation, error) {
	var res []Violation
	for _, f := range c.Program.Functions {
		for _, pair := range c.Policy.Pairs {
			w := &pairWalker{
				members:  [2]string{lang.Canonical(pair[0]), lang.Canonical(pair[1])},
				maxDepth: c.MaxDepth(),
			}
			if _, err := w.block(f.Body, pairStates{}.with(0), 0); err != nil {
				return nil, fmt.Errorf("in %s: %w", f.Name, err)
			}
			if w.hit > 0 {
				res = append(res, Violation{
					Line:       w.hit,
					Reason:     fmt.Sprintf("Paired outputs %s and %s both set to TRUE", pair[0], pair[1]),
					Suggestion: "Add mutual exclusion logic (e.g., IF/ELSE) to prevent both outputs being active",
				})
			}
		}
	}
	return res, nil
}

// activeSet is the set of pair members currently active on a path: bit i is set when member i is
type activeSet uint8

const bothActive activeSet = 3

// pairStates is the set of distinct active sets reachable on some path
type pairStates [4]bool

func (p pairStates) with(s activeSet) pairStates {
	p[s] = true
	return p
}

func (p pairStates) union(q pairStates) pairStates {
	for i := range p {
		p[i] = p[i] || q[i]
	}
	return p
}

// mapStates applies f to every state of p
func (p pairStates) mapStates(f func(activeSet) activeSet) pairStates {
	var res pairStates
	for i, ok := range p {
		if ok {
			res[f(activeSet(i))] = true
		}
	}
	return res
}

// pairWalker follows the paths of a routine, tracking which members of a pair are active on each.
// States are never merged into a less precise one: a join keeps the states of both branches.
type pairWalker struct {
	members  [2]string
	maxDepth int
	// hit is the line where both members are first active together on some path, or 0
	hit int
}

func (w *pairWalker) member(name string) int {
	c := lang.Canonical(name)
	for i, m := range w.members {
		if m == c {
			return i
		}
	}
	return -1
}

func (w *pairWalker) block(stmts []lang.Statement, in pairStates, depth int) (pairStates, error) {
	cur := in
	for _, s := range stmts {
		switch s := s.(type) {
		case *lang.Assign:
			i := w.member(lang.TargetName(s.Target))
			if i < 0 {
				continue
			}
			bit := activeSet(1) << i
			active := lang.IsTrue(s.Value)
			cur = cur.mapStates(func(a activeSet) activeSet {
				if active {
					return a | bit
				}
				return a &^ bit
			})
			if cur[bothActive] && w.hit == 0 {
				w.hit = s.Line
			}
		case *lang.If:
			if depth+1 > w.maxDepth {
				return cur, lang.DepthError(s.Line, w.maxDepth)
			}
			thenIn := cur.mapStates(w.refine(s.Cond, true))
			elseIn := cur.mapStates(w.refine(s.Cond, false))
			thenOut, err := w.block(s.Then, thenIn, depth+1)
			if err != nil {
				return cur, err
			}
			elseOut, err := w.block(s.Else, elseIn, depth+1)
			if err != nil {
				return cur, err
			}
			cur = thenOut.union(elseOut)
		case *lang.Case:
			if depth+1 > w.maxDepth {
				return cur, lang.DepthError(s.Line, w.maxDepth)
			}
			out, err := w.block(s.Else, cur, depth+1)
			if err != nil {
				return cur, err
			}
			for _, arm := range s.Arms {
				armOut, err := w.block(arm.Body, cur, depth+1)
				if err != nil {
					return cur, err
				}
				out = out.union(armOut)
			}
			cur = out
		}
	}
	return cur, nil
}

// refine returns the update of the active set on the then-branch (holds) or the else-branch of cond. A member
// that the branch proves inactive is dropped.
func (w *pairWalker) refine(cond lang.Expression, holds bool) func(activeSet) activeSet {
	var inactive activeSet
	if holds {
		for _, conj := range lang.Conjuncts(cond) {
			if i := w.negatedMember(conj); i >= 0 {
				inactive |= 1 << i
			}
		}
	} else if i := w.assertedMember(cond); i >= 0 {
		inactive |= 1 << i
	}
	return func(a activeSet) activeSet { return a &^ inactive }
}

// negatedMember returns the member e says is inactive: NOT m, m = FALSE or m = 0
func (w *pairWalker) negatedMember(e lang.Expression) int {
	switch e := e.(type) {
	case *lang.UnaryOp:
		if v, ok := e.Operand.(*lang.VariableRef); ok {
			return w.member(v.Name)
		}
	case *lang.BinaryOp:
		if e.Op == lang.Eq {
			if v, ok := e.Left.(*lang.VariableRef); ok && lang.IsFalse(e.Right) {
				return w.member(v.Name)
			}
			if v, ok := e.Right.(*lang.VariableRef); ok && lang.IsFalse(e.Left) {
				return w.member(v.Name)
			}
		}
	}
	return -1
}

// assertedMember returns the member e says is active when e is exactly m or m = TRUE
func (w *pairWalker) assertedMember(e lang.Expression) int {
	switch e := e.(type) {
	case *lang.VariableRef:
		return w.member(e.Name)
	case *lang.BinaryOp:
		if e.Op == lang.Eq {
			if v, ok := e.Left.(*lang.VariableRef); ok && lang.IsTrue(e.Right) {
				return w.member(v.Name)
			}
			if v, ok := e.Right.(*lang.VariableRef); ok && lang.IsTrue(e.Left) {
				return w.member(v.Name)
			}
		}
	}
	return -1
}

func checkRegisterBlocks(c *Context) ([]Violation, error) {
	if len(c.Policy.MemoryAreas) == 0 {
		return nil, nil
	}
	var res []Violation
	report := func(target string, line int) {
		addr, ok := policy.ParseAddress(target)
		if !ok {
			return
		}
		if _, ok := c.Policy.ReadOnlyAreaAt(addr); ok {
			res = append(res, Violation{
				Line:       line,
				Reason:     fmt.Sprintf("Write to read-only region %s", addr),
				Suggestion: "Move this write to an allowed area or update policy.json",
			})
		}
	}
	for _, f := range c.Program.Functions {
		err := lang.WalkStatements(f.Body, c.MaxDepth(), func(s lang.Statement, _ int) error {
			switch s := s.(type) {
			case *lang.Assign:
				report(lang.TargetName(s.Target), s.Line)
			case *lang.Call:
				for _, a := range s.Args {
					if v, ok := a.Value.(*lang.VariableRef); ok && a.Output {
						report(v.Name, s.Line)
					}
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("in %s: %w", f.Name, err)
		}
	}
	return res, nil
}
