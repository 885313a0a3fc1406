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
	"runtime/debug"
	"sort"
	"time"

	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/internal/funcutil"
)

// RunRules runs every enabled rule of the catalog on the program of ctx and returns their outcomes in catalog
// order. A rule that fails or panics gets an Error outcome; the other rules are not affected.
// With ctx.Config.Parallelism > 1, rules run concurrently on that many goroutines.
func RunRules(ctx *Context) []Outcome {
	var enabled []Rule
	for _, r := range Catalog() {
		if ctx.Config.IsRuleDisabled(r.No) {
			ctx.Logger.Debugf("Rule %d (%s) is disabled", r.No, r.Name)
			continue
		}
		enabled = append(enabled, r)
	}
	run := func(r Rule) Outcome { return runRule(ctx, r) }
	if ctx.Config.Parallelism > 1 {
		return funcutil.MapParallel(enabled, run, ctx.Config.Parallelism)
	}
	return funcutil.Map(enabled, run)
}

// runRule runs a single rule and post-processes its violations: suppressed violations are removed, the rest
// is sorted by line and capped to the configured maximum.
func runRule(ctx *Context, r Rule) (outcome Outcome) {
	start := time.Now()
	defer func() {
		if x := recover(); x != nil {
			ctx.Logger.Warnf("Rule %d (%s) panicked: %v", r.No, r.Name, x)
			if ctx.Logger.Level() >= config.TraceLevel {
				ctx.Logger.Tracef("%s", debug.Stack())
			}
			outcome = ErrorOutcome(r.No, r.Name, fmt.Errorf("internal error: %v", x))
		}
	}()

	vs, err := r.Check(ctx)
	if err != nil {
		ctx.Logger.Warnf("Rule %d (%s) failed: %v", r.No, r.Name, err)
		return ErrorOutcome(r.No, r.Name, err)
	}

	kept := vs[:0:0]
	for _, v := range vs {
		if ctx.Annotations.IsIgnored(v.Line, r.No) {
			ctx.Logger.Debugf("Rule %d: suppressed violation at line %d", r.No, v.Line)
			continue
		}
		kept = append(kept, v)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Line < kept[j].Line })
	if max := ctx.Config.MaxViolations; max > 0 && len(kept) > max {
		ctx.Logger.Infof("Rule %d: reporting %d of %d violations", r.No, max, len(kept))
		kept = kept[:max]
	}
	ctx.Logger.Debugf("Rule %-2d %-40s %d violation(s) (%.3f s)", r.No, r.Name, len(kept),
		time.Since(start).Seconds())
	return NewOutcome(r.No, r.Name, kept)
}
