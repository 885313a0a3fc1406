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

// Package funcutil contains generic helpers over slices and map-represented sets.
package funcutil

import (
	"sync"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// Union adds the elements of set b to set a and returns a
// @mutates a
func Union[T comparable](a map[T]bool, b map[T]bool) map[T]bool {
	for x, in := range b {
		if in {
			a[x] = true
		}
	}
	return a
}

// Map returns a new slice b such for any i < len(a), b[i] = f(a[i])
func Map[T any, S any](a []T, f func(T) S) []S {
	b := make([]S, 0, len(a))
	for _, x := range a {
		b = append(b, f(x))
	}
	return b
}

// MapParallel is a parallel version of Map using numRoutines goroutines. The results are in the order of a,
// whatever order the calls to f finish in. f must be safe to call concurrently.
func MapParallel[T any, S any](a []T, f func(T) S, numRoutines int) []S {
	if numRoutines <= 1 || len(a) <= 1 {
		return Map(a, f)
	}
	if numRoutines > len(a) {
		numRoutines = len(a)
	}
	res := make([]S, len(a))
	in := make(chan int)
	go func() {
		defer close(in)
		for i := range a {
			in <- i
		}
	}()

	var wg sync.WaitGroup
	wg.Add(numRoutines)
	for i := 0; i < numRoutines; i++ {
		go func() {
			defer wg.Done()
			// each index is received once, so the writes to res do not overlap
			for idx := range in {
				res[idx] = f(a[idx])
			}
		}()
	}
	wg.Wait()
	return res
}

// Exists returns true when there exists some x in slice a such that f(x), otherwise false.
func Exists[T any](a []T, f func(T) bool) bool {
	return slices.IndexFunc(a, f) >= 0
}

// SetToOrderedSlice converts a set represented as a map from elements to booleans into a slice.
// Sorts the result in increasing order
func SetToOrderedSlice[T constraints.Ordered](set map[T]bool) []T {
	var s []T
	for r, b := range set {
		if b {
			s = append(s, r)
		}
	}
	slices.Sort(s)
	return s
}

// Reverse reverses the slice in place
func Reverse[T any](a []T) {
	for i, j := 0, len(a)-1; i < j; i, j = i+1, j-1 {
		a[i], a[j] = a[j], a[i]
	}
}
