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

import "github.com/awslabs/ar-plc-tools/analysis/lang"

// WalkGuarded calls f on every statement of stmts, recursively, with the guards in effect at that statement.
// The condition of an IF is a guard of its then-branch only; else-branches and CASE arms see the guards of the
// enclosing statement. f sees a compound statement before its bodies, and its own condition is not among the
// guards it gets. Nesting deeper than maxDepth stops the walk with an error wrapping lang.ErrMaxDepth.
func WalkGuarded(stmts []lang.Statement, maxDepth int, f func(s lang.Statement, guards Guards)) error {
	if maxDepth <= 0 {
		maxDepth = lang.DefaultMaxDepth
	}
	w := &guardWalker{maxDepth: maxDepth, f: f}
	return w.block(stmts, 0)
}

type guardWalker struct {
	maxDepth int
	guards   Guards
	f        func(lang.Statement, Guards)
}

func (w *guardWalker) block(stmts []lang.Statement, depth int) error {
	for _, s := range stmts {
		w.f(s, w.guards)
		switch s := s.(type) {
		case *lang.If:
			if depth+1 > w.maxDepth {
				return lang.DepthError(s.Line, w.maxDepth)
			}
			w.guards = append(w.guards, s.Cond)
			err := w.block(s.Then, depth+1)
			w.guards = w.guards[:len(w.guards)-1]
			if err != nil {
				return err
			}
			if err := w.block(s.Else, depth+1); err != nil {
				return err
			}
		case *lang.Case:
			if depth+1 > w.maxDepth {
				return lang.DepthError(s.Line, w.maxDepth)
			}
			for _, arm := range s.Arms {
				if err := w.block(arm.Body, depth+1); err != nil {
					return err
				}
			}
			if err := w.block(s.Else, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
