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
	"github.com/awslabs/ar-plc-tools/analysis/annotations"
	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/lang"
	"github.com/awslabs/ar-plc-tools/analysis/policy"
	"github.com/awslabs/ar-plc-tools/analysis/taint"
)

// Context is everything a rule may look at while checking one file. It is built once per file and never
// modified afterwards, so rules can share it while running in parallel.
type Context struct {
	Program     *lang.Program
	Policy      policy.Policy
	Annotations *annotations.Index
	Config      *config.Config
	Logger      *config.LogGroup

	matcher taint.Matcher
}

// NewContext builds the analysis context of a file. A nil config means the default config; a nil index means no
// annotations.
func NewContext(cfg *config.Config, logger *config.LogGroup, prog *lang.Program, pol policy.Policy,
	idx *annotations.Index) *Context {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if logger == nil {
		logger = config.NewLogGroup(cfg)
	}
	if prog == nil {
		prog = &lang.Program{}
	}
	return &Context{
		Program:     prog,
		Policy:      pol,
		Annotations: idx,
		Config:      cfg,
		Logger:      logger,
		matcher:     taint.NewMatcher(cfg.GuardHelpers),
	}
}

// MaxDepth returns the nesting cap of every recursive walk.
func (c *Context) MaxDepth() int {
	if c.Config.MaxDepth <= 0 {
		return lang.DefaultMaxDepth
	}
	return c.Config.MaxDepth
}

// Matcher returns the guard matcher configured with the guard helpers.
func (c *Context) Matcher() taint.Matcher {
	return c.matcher
}

// Env returns the environment of the taint engine for this file.
func (c *Context) Env() taint.Env {
	gap := c.Config.AnnotationGap
	if gap <= 0 {
		gap = config.DefaultAnnotationGap
	}
	return taint.Env{
		Annotations:   c.Annotations,
		AnnotationGap: gap,
		MaxDepth:      c.MaxDepth(),
		Matcher:       c.matcher,
		Logger:        c.Logger,
	}
}
