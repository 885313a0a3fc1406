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
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
)

// RoutineGraph is a directed graph over named nodes (routines) to work with existing graph libraries. It
// implements the methods to satisfy graph.Iterator of yourbasic/graph and Gonum's graph.Graph.
// Node ids are the indices of the names, 0 to Order()-1.
type RoutineGraph struct {
	// order of the graph
	order int

	// Names maps node ids to node names
	Names []string

	// IDMap maps from node IDs to RNodes
	IDMap map[int64]RNode

	// Keys are all the node IDs, in increasing order
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge between IDMap[x] and IDMap[y]
	Edges map[int64]map[int64]bool
}

// NewRoutineGraph returns a graph with one node per name and no edges
func NewRoutineGraph(names []string) *RoutineGraph {
	n := len(names)
	g := &RoutineGraph{
		order: n,
		Names: names,
		IDMap: make(map[int64]RNode, n),
		Keys:  make([]int64, n),
		Edges: make(map[int64]map[int64]bool, n),
	}
	for i, name := range names {
		id := int64(i)
		g.Keys[i] = id
		g.IDMap[id] = RNode{id: id, Name: name}
		g.Edges[id] = map[int64]bool{}
	}
	return g
}

// AddEdge adds a directed edge between from and to. Edges between ids outside the graph are ignored.
func (c *RoutineGraph) AddEdge(from int64, to int64) {
	if _, ok := c.IDMap[to]; !ok {
		return
	}
	if e, ok := c.Edges[from]; ok {
		e[to] = true
	}
}

// Successors returns the ids of the destinations of the edges out of id, in increasing order
func (c *RoutineGraph) Successors(id int64) []int64 {
	s := maps.Keys(c.Edges[id])
	slices.Sort(s)
	return s
}

// Subgraph returns a new graph that is the original graph with only the nodes in include. Only the edges that have
// both the origin and destination nodes in the include nodes are kept in the resulting graph.
// The subgraph's order, Names and IDMap are the same as in origin, meaning that node indices will stay consistent
// across subgraphs.
func Subgraph(original *RoutineGraph, include []int64) *RoutineGraph {
	included := make(map[int64]bool, len(include))
	keys := make([]int64, len(include))
	for j, i := range include {
		keys[j] = i
		included[i] = true
	}

	edges := make(map[int64]map[int64]bool, len(include))
	for _, i := range include {
		edges[i] = map[int64]bool{}
		for e := range original.Edges[i] {
			if included[e] {
				edges[i][e] = true
			}
		}
	}

	return &RoutineGraph{
		order: original.Order(),
		Names: original.Names,
		IDMap: original.IDMap,
		Edges: edges,
		Keys:  keys,
	}
}

// Order implements the order of the graph.Iterator interface for the RoutineGraph
func (c *RoutineGraph) Order() int {
	return c.order
}

// Visit implements the graph.Iterator interface for the RoutineGraph. Neighbors are visited in increasing order.
func (c *RoutineGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if _, ok := c.Edges[int64(v)]; !ok {
		return false
	}
	for _, w := range c.Successors(int64(v)) {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface. It returns nil for ids outside the graph.
func (c *RoutineGraph) Node(id int64) graph.Node {
	n, ok := c.IDMap[id]
	if !ok {
		return nil
	}
	return n
}

// Nodes returns the set of nodes in the graph
func (c *RoutineGraph) Nodes() graph.Nodes {
	return newNodeSet(c.IDMap, slices.Clone(c.Keys))
}

// From returns the set of nodes that are destinations of edges out of id
func (c *RoutineGraph) From(id int64) graph.Nodes {
	return newNodeSet(c.IDMap, c.Successors(id))
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers, in either
// direction
func (c *RoutineGraph) HasEdgeBetween(xid, yid int64) bool {
	return c.Edges[xid][yid] || c.Edges[yid][xid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (c *RoutineGraph) Edge(uid, vid int64) graph.Edge {
	if c.Edges[uid][vid] {
		return REdge{from: c.IDMap[uid], to: c.IDMap[vid]}
	}
	return nil
}

// *************** Nodes implementation **********************

// RNode is a named node that implements the graph.Node interface
type RNode struct {
	id   int64
	Name string
}

// ID returns the id of the node
func (n RNode) ID() int64 {
	return n.id
}

func (n RNode) String() string {
	return n.Name
}

// NodeSet implements the graph.Nodes interface, an iterator over a set of nodes
type NodeSet struct {
	// nodes is the set of nodes the ids refer to
	nodes map[int64]RNode

	// ids is the set of node ids in the iterator
	ids []int64

	// cur is the current index of the iterator. The current node is nodes[ids[cur]]
	// invariant: -1 <= cur < len(ids), and cur is -1 until the first call to Next
	cur int
}

func newNodeSet(nodes map[int64]RNode, ids []int64) *NodeSet {
	return &NodeSet{nodes: nodes, ids: ids, cur: -1}
}

// Next moves the current node to the next, and returns true if such a node exists. Otherwise, returns false
// and the current node has not changed.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.ids)-1 {
		ns.cur++
		return true
	}
	return false
}

// Len returns the number of nodes remaining in the iterator
func (ns *NodeSet) Len() int {
	return len(ns.ids) - ns.cur - 1
}

// Reset resets the iterator to before its first node
func (ns *NodeSet) Reset() {
	ns.cur = -1
}

// Node returns the current node in the set, or nil before the first call to Next
func (ns *NodeSet) Node() graph.Node {
	if ns.cur < 0 || ns.cur >= len(ns.ids) {
		return nil
	}
	return ns.nodes[ns.ids[ns.cur]]
}

// *************** Edge implementation **********************

// REdge implements the graph.Edge interface
type REdge struct {
	from RNode
	to   RNode
}

// From returns the origin of the edge
func (e REdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e REdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e REdge) ReversedEdge() graph.Edge {
	return REdge{from: e.to, to: e.from}
}
