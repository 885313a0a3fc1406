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

// Package rules implements the plcheck sub-command listing the rules.
package rules

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/rules"
	"github.com/awslabs/ar-plc-tools/cmd/plcheck/tools"
	"github.com/awslabs/ar-plc-tools/internal/formatutil"
)

// Usage is the help message of the rules sub-command
const Usage = `List the rules checked by plcheck.

Usage:
  plcheck rules [-config config.yaml]

Rules disabled by the config are marked as such.
`

// Run lists the rules of the catalog to stdout, one per line.
func Run(args []string, stdout io.Writer, stderr io.Writer) error {
	flags, err := tools.NewCommonFlags("rules", args, Usage)
	if err != nil {
		return err
	}
	cfg, _, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose, stderr)
	if err != nil {
		return err
	}
	return List(stdout, cfg)
}

// List writes the number, name and summary of each rule of the catalog to w
func List(w io.Writer, cfg *config.Config) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range rules.Catalog() {
		name := r.Name
		if cfg.IsRuleDisabled(r.No) {
			name += " " + formatutil.Faint("(disabled)")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", formatutil.Cyan(r.No), name, r.Summary)
	}
	return tw.Flush()
}
