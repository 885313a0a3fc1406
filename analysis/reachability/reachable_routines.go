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


package reachability

import (
	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/lang"
	"github.com/awslabs/ar-plc-tools/internal/funcutil"
	"github.com/awslabs/ar-plc-tools/internal/graphutil"
	"github.com/yourbasic/graph"
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"
)

// Result summarizes the call structure of a program. All routine lists are in program order.
type Result struct {
	CallGraph *CallGraph

	// EntryPoints are the routines the runtime calls: organization blocks and programs
	EntryPoints []string

	// Reachable are the routines reachable from an entry point, entry points included
	Reachable []string

	// Unreachable are the routines no entry point reaches
	Unreachable []string

	// Cycles are the elementary call cycles, each starting with its earliest routine
	Cycles [][]string

	// BottomUp groups the routines in strongly connected components, callees before their callers
	BottomUp [][]string

	Stats graph.Stats
}

// isEntryPoint returns true for the routines called by the runtime rather than by other routines
func isEntryPoint(f *lang.Function) bool {
	return f.Kind.IsOB() || f.Kind == lang.Prog
}

// FindEntryPoints returns the node ids of the entry points of the program
func FindEntryPoints(prog *lang.Program) []int64 {
	var entryPoints []int64
	for i, f := range prog.Functions {
		if isEntryPoint(f) {
			entryPoints = append(entryPoints, int64(i))
		}
	}
	return entryPoints
}

// ReachableRoutines returns the set of node ids reachable from the entries, by breadth-first traversal of
// the call graph
func ReachableRoutines(cg *CallGraph, entries []int64) map[int64]bool {
	reachable := map[int64]bool{}
	bf := traverse.BreadthFirst{
		Visit: func(n gonumgraph.Node) { reachable[n.ID()] = true },
	}
	for _, e := range entries {
		bf.Walk(cg.Graph, cg.Graph.Node(e), nil)
	}
	return reachable
}

// Analyze builds the call graph of prog and computes the reachable routines and the call cycles.
func Analyze(logger *config.LogGroup, prog *lang.Program, maxDepth int) (*Result, error) {
	cg, err := NewCallGraph(logger, prog, maxDepth)
	if err != nil {
		return nil, err
	}
	g := cg.Graph
	entries := FindEntryPoints(prog)
	reachable := ReachableRoutines(cg, entries)

	res := &Result{
		CallGraph:   cg,
		EntryPoints: cg.names(entries),
		Stats:       graph.Check(g),
	}
	for _, id := range g.Keys {
		if reachable[id] {
			res.Reachable = append(res.Reachable, g.Names[id])
		} else {
			res.Unreachable = append(res.Unreachable, g.Names[id])
		}
	}
	for _, cycle := range graphutil.FindAllElementaryCycles(g) {
		res.Cycles = append(res.Cycles, cg.names(cycle))
	}
	for _, scc := range graphutil.StronglyConnectedComponents(g.Keys, g.Successors) {
		res.BottomUp = append(res.BottomUp, cg.names(scc))
	}
	logger.Debugf("call graph: %d routines, %d calls, %d entry points, %d unreachable, %d cycles",
		g.Order(), res.Stats.Size, len(entries), len(res.Unreachable), len(res.Cycles))
	return res, nil
}

// CallTree returns the tree of calls from the routine named root. A call back into a routine already on the
// path is a leaf, so the tree is finite even when the program has call cycles.
// Returns nil if root is not a routine of the program.
func CallTree(cg *CallGraph, root string) *graphutil.Tree[string] {
	id, ok := cg.ID(root)
	if !ok {
		return nil
	}
	tree := graphutil.NewTree(cg.Graph.Names[id])
	var expand func(t *graphutil.Tree[string], id int64)
	expand = func(t *graphutil.Tree[string], id int64) {
		for _, callee := range cg.Graph.Successors(id) {
			name := cg.Graph.Names[callee]
			child := t.AddChild(name)
			onPath := funcutil.Exists(t.Ancestors(-1), func(a *graphutil.Tree[string]) bool {
				return a.Label == name
			})
			if !onPath {
				expand(child, callee)
			}
		}
	}
	expand(tree, id)
	return tree
}
