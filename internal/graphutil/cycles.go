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

package graphutil

import (
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
)

// FindAllElementaryCycles finds all elementary cycles in the graph, self-loops included.
// This uses Donald B. Johnson's algorithm presented in
// "Finding All The Elementary Circuits of a Directed Graph", 1975
//
// Each cycle starts with its least node id and does not repeat it at the end. The cycles are returned in
// lexicographic order.
//
//	cg : the graph with cycles
func FindAllElementaryCycles(cg *RoutineGraph) [][]int64 {
	s := &state{}
	start := 0
	for start < len(cg.Keys) {
		fg := Subgraph(cg, cg.Keys[start:])
		// the least node of a strongly connected component with a cycle in the remaining subgraph
		least := int64(-1)
		for _, component := range graph.StrongComponents(fg) {
			if !hasCycle(fg, component) {
				continue
			}
			for _, v := range component {
				if least < 0 || int64(v) < least {
					least = int64(v)
				}
			}
		}
		if least < 0 {
			break
		}
		s.stack = []int64{}
		s.blocked = map[int64]bool{}
		s.blist = map[int64]map[int64]bool{}
		s.circuit(least, least, fg)
		start = slices.Index(cg.Keys, least) + 1
	}
	slices.SortFunc(s.cycles, func(a, b []int64) bool {
		return slices.Compare(a, b) < 0
	})
	return s.cycles
}

// hasCycle returns true if the strongly connected component has a cycle: it has two nodes or more, or a
// self-loop
func hasCycle(g *RoutineGraph, component []int) bool {
	if len(component) >= 2 {
		return true
	}
	v := int64(component[0])
	return g.Edges[v][v]
}

type state struct {
	blocked map[int64]bool
	blist   map[int64]map[int64]bool
	stack   []int64
	cycles  [][]int64
}

func (s *state) unblock(u int64) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		delete(s.blist[u], w)
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *state) circuit(v int64, i int64, g *RoutineGraph) bool {
	f := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	for _, w := range g.Successors(v) {
		if w == i {
			s.cycles = append(s.cycles, slices.Clone(s.stack))
			f = true
		} else if !s.blocked[w] {
			if s.circuit(w, i, g) {
				f = true
			}
		}
	}

	if f {
		s.unblock(v)
	} else {
		for _, w := range g.Successors(v) {
			if s.blist[w] == nil {
				s.blist[w] = map[int64]bool{}
			}
			s.blist[w][v] = true
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	return f
}
