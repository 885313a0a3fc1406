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
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// StronglyConnectedComponents returns the strongly connected components of the graph given by nodes and
// successors, with Tarjan's algorithm. The depth-first search keeps its own stack, so deep call chains do not
// grow the goroutine stack.
//
// Each component is sorted in increasing order. Components come in reverse topological order: a component
// appears after every component it reaches, e.g. a routine appears after every routine it calls unless they
// call each other. With nodes and successors given in a fixed order, the result is deterministic.
func StronglyConnectedComponents[T constraints.Ordered](nodes []T, successors func(T) []T) [][]T {
	type frame struct {
		v    T
		succ []T
		next int
	}
	var (
		sccs    = [][]T{}
		stack   []T
		frames  []frame
		onStack = map[T]bool{}
		index   = map[T]int{}
		lowlink = map[T]int{}
	)
	enter := func(v T) {
		index[v] = len(index)
		lowlink[v] = index[v]
		stack = append(stack, v)
		onStack[v] = true
		frames = append(frames, frame{v: v, succ: successors(v)})
	}

	for _, root := range nodes {
		if _, seen := index[root]; seen {
			continue
		}
		enter(root)
		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			if f.next < len(f.succ) {
				w := f.succ[f.next]
				f.next++
				if _, seen := index[w]; !seen {
					enter(w)
				} else if onStack[w] && index[w] < lowlink[f.v] {
					lowlink[f.v] = index[w]
				}
				continue
			}

			v := f.v
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				if caller := frames[len(frames)-1].v; lowlink[v] < lowlink[caller] {
					lowlink[caller] = lowlink[v]
				}
			}
			if lowlink[v] != index[v] {
				continue
			}
			i := slices.Index(stack, v)
			scc := slices.Clone(stack[i:])
			for _, w := range scc {
				onStack[w] = false
			}
			stack = stack[:i]
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}
	return sccs
}
