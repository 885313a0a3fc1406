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


// Package reachability computes the call graph between the routines of a program, the routines reachable
// from its organization blocks, and the call cycles.
package reachability

import (
	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/lang"
	"github.com/awslabs/ar-plc-tools/internal/funcutil"
	"github.com/awslabs/ar-plc-tools/internal/graphutil"
)

// CallGraph is the graph of calls between the routines of a program. Node i of Graph is Program.Functions[i].
type CallGraph struct {
	Program *lang.Program
	Graph   *graphutil.RoutineGraph

	// Unresolved maps each routine name to the names it calls that are no routine of the program: library
	// blocks such as timers, and instance names
	Unresolved map[string][]string

	// ids maps the canonical routine names to their node; when two routines share a name, the first one wins
	ids map[string]int64
}

// NewCallGraph builds the call graph of prog. A routine calls another when its body contains a call statement
// or a function call expression naming it. Names are compared case-insensitively.
// Returns an error wrapping lang.ErrMaxDepth if a body is nested deeper than maxDepth.
func NewCallGraph(logger *config.LogGroup, prog *lang.Program, maxDepth int) (*CallGraph, error) {
	names := funcutil.Map(prog.Functions, func(f *lang.Function) string { return f.Name })
	cg := &CallGraph{
		Program:    prog,
		Graph:      graphutil.NewRoutineGraph(names),
		Unresolved: map[string][]string{},
		ids:        make(map[string]int64, len(names)),
	}
	for i, name := range names {
		c := lang.Canonical(name)
		if _, dup := cg.ids[c]; dup {
			logger.Warnf("routine %s is defined more than once, calls resolve to the first definition", name)
			continue
		}
		cg.ids[c] = int64(i)
	}
	for i, f := range prog.Functions {
		sites, err := callSites(f.Body, maxDepth)
		if err != nil {
			return nil, err
		}
		seen := map[string]bool{}
		for _, site := range sites {
			if id, ok := cg.ids[lang.Canonical(site.name)]; ok {
				cg.Graph.AddEdge(int64(i), id)
				continue
			}
			if !seen[lang.Canonical(site.name)] {
				seen[lang.Canonical(site.name)] = true
				cg.Unresolved[f.Name] = append(cg.Unresolved[f.Name], site.name)
				logger.Tracef("line %d: %s calls %s, which is not defined in the program", site.line, f.Name,
					site.name)
			}
		}
	}
	return cg, nil
}

// ID returns the node of the routine named name
func (cg *CallGraph) ID(name string) (int64, bool) {
	id, ok := cg.ids[lang.Canonical(name)]
	return id, ok
}

// Callees returns the names of the routines called by the routine named name, in program order
func (cg *CallGraph) Callees(name string) []string {
	id, ok := cg.ID(name)
	if !ok {
		return nil
	}
	return cg.names(cg.Graph.Successors(id))
}

// Callers returns the names of the routines calling the routine named name, in program order
func (cg *CallGraph) Callers(name string) []string {
	id, ok := cg.ID(name)
	if !ok {
		return nil
	}
	var callers []int64
	for _, k := range cg.Graph.Keys {
		if cg.Graph.Edges[k][id] {
			callers = append(callers, k)
		}
	}
	return cg.names(callers)
}

func (cg *CallGraph) names(ids []int64) []string {
	return funcutil.Map(ids, func(id int64) string { return cg.Graph.Names[id] })
}
