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

/*
Package taint implements the flow-sensitive taint and guard analysis shared by the data-flow rules. The main entry
point is [Analyze], which runs a [Problem] (source, sink and sanitizer predicates) over one routine body and
returns the [Flow]s reaching sinks.

The analysis walks the statements in order, keeping a set of tainted variables and the stack of enclosing IF
conditions (the guards). An assignment taints its target when its value reads a source or a tainted variable and
no sanitization applies; any other assignment clears the target. Sanitization is, in order:
  - a validation marker in a comment on one of the lines above the statement (see package annotations),
  - an enclosing guard that range-constrains a variable of the value (see [Matcher]),
  - the problem's extra sanitizer, if any.

Both branches of an IF, and every arm of a CASE, start from a copy of the incoming taint set and the results are
merged by union, so a variable tainted on any path stays tainted after the join.

[WalkGuarded] is the guard-only traversal used by rules that do not need taint (division, indexing).
*/
package taint
