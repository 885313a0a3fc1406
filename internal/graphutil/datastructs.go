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

import "github.com/awslabs/ar-plc-tools/internal/funcutil"

// Tree is a simple generic implementation of a tree
type Tree[T any] struct {
	Parent   *Tree[T]
	Children []*Tree[T]
	Label    T
}

// NewTree returns a new tree with the labels of the type provided
func NewTree[T any](rootLabel T) *Tree[T] {
	return &Tree[T]{Label: rootLabel}
}

// Label returns the label of its argument
func Label[T any](t *Tree[T]) T {
	return t.Label
}

// AddChild appends a new child labelled label and returns it
func (t *Tree[T]) AddChild(label T) *Tree[T] {
	newChild := &Tree[T]{Parent: t, Label: label}
	t.Children = append(t.Children, newChild)
	return newChild
}

// Ancestors returns the chain of the n closest ancestors of t, t included, from the farthest. If n < 0, then it
// returns the chain up to the root of the tree
func (t *Tree[T]) Ancestors(n int) []*Tree[T] {
	var ans []*Tree[T]
	cur := t
	i := 0
	for cur != nil && (i < n || n < 0) {
		ans = append(ans, cur)
		cur = cur.Parent
		i++
	}
	funcutil.Reverse(ans)
	return ans
}

// Walk calls f on every node of the tree in depth-first pre-order, with the depth of the node (0 for t)
func (t *Tree[T]) Walk(f func(node *Tree[T], depth int)) {
	var walk func(*Tree[T], int)
	walk = func(node *Tree[T], depth int) {
		f(node, depth)
		for _, c := range node.Children {
			walk(c, depth+1)
		}
	}
	walk(t, 0)
}

// Size returns the number of nodes in the tree
func (t *Tree[T]) Size() int {
	n := 0
	t.Walk(func(*Tree[T], int) { n++ })
	return n
}
