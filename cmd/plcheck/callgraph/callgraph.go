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

// Package callgraph implements the plcheck sub-command printing the call structure of a program.
package callgraph

import (
	"fmt"
	"io"
	"strings"

	"github.com/awslabs/ar-plc-tools/analysis"
	"github.com/awslabs/ar-plc-tools/analysis/reachability"
	"github.com/awslabs/ar-plc-tools/cmd/plcheck/tools"
	"github.com/awslabs/ar-plc-tools/internal/formatutil"
	"github.com/awslabs/ar-plc-tools/internal/graphutil"
)

// Flags represents the parsed flags for the callgraph sub-command.
type Flags struct {
	tools.CommonFlags
	Root string
}

// NewFlags creates parsed callgraph sub-command flags for args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("callgraph")
	root := flags.FlagSet.String("root", "", "print the call tree from this routine only")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	if len(common.FlagSet.Args()) != 1 {
		return Flags{}, fmt.Errorf("callgraph: expected exactly one source file, got %d", len(common.FlagSet.Args()))
	}
	return Flags{CommonFlags: common, Root: *root}, nil
}

// Usage is the help message of the callgraph sub-command
const Usage = `Print the routines of a program, the call trees from its organization blocks, the routines no
organization block reaches and the call cycles.

Usage:
  plcheck callgraph [options] source.scl

Examples:
% plcheck callgraph Main.scl
% plcheck callgraph -root Conveyor Main.scl
`

// Run loads the source file of flags and prints its call structure to stdout.
func Run(flags Flags, stdout io.Writer, stderr io.Writer) error {
	cfg, logger, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose, stderr)
	if err != nil {
		return err
	}
	loaded, err := analysis.LoadFile(cfg, logger, flags.FlagSet.Arg(0), flags.Dialect)
	if err != nil {
		return err
	}
	res, err := reachability.Analyze(logger, loaded.Program, cfg.MaxDepth)
	if err != nil {
		return fmt.Errorf("failed to build the call graph: %w", err)
	}

	var b strings.Builder
	roots := res.EntryPoints
	if flags.Root != "" {
		roots = []string{flags.Root}
	}
	b.WriteString(formatutil.Bold("Call trees") + "\n")
	for _, root := range roots {
		tree := reachability.CallTree(res.CallGraph, root)
		if tree == nil {
			return fmt.Errorf("no routine named %q in %s", root, loaded.FileName)
		}
		writeTree(&b, tree)
	}

	if flags.Root == "" {
		writeList(&b, "Entry points", res.EntryPoints)
		writeList(&b, "Unreachable routines", res.Unreachable)
		b.WriteString(formatutil.Bold("Call cycles") + "\n")
		for _, cycle := range res.Cycles {
			fmt.Fprintf(&b, "  %s -> %s\n", strings.Join(cycle, " -> "), cycle[0])
		}
		unresolved := res.CallGraph.Unresolved
		b.WriteString(formatutil.Bold("Calls outside the program") + "\n")
		for _, caller := range res.Reachable {
			if names := unresolved[caller]; len(names) > 0 {
				fmt.Fprintf(&b, "  %s: %s\n", caller, strings.Join(names, ", "))
			}
		}
		for _, caller := range res.Unreachable {
			if names := unresolved[caller]; len(names) > 0 {
				fmt.Fprintf(&b, "  %s: %s\n", caller, strings.Join(names, ", "))
			}
		}
		fmt.Fprintf(&b, "%d routines, %d calls, %d self-calls, %d isolated\n",
			res.CallGraph.Graph.Order(), res.Stats.Size, res.Stats.Loops, res.Stats.Isolated)
	}
	_, err = io.WriteString(stdout, b.String())
	return err
}

func writeTree(b *strings.Builder, tree *graphutil.Tree[string]) {
	tree.Walk(func(node *graphutil.Tree[string], depth int) {
		fmt.Fprintf(b, "%s%s\n", strings.Repeat("  ", depth+1), formatutil.Sanitize(node.Label))
	})
}

func writeList(b *strings.Builder, title string, names []string) {
	fmt.Fprintf(b, "%s (%d)\n", formatutil.Bold(title), len(names))
	for _, name := range names {
		fmt.Fprintf(b, "  %s\n", formatutil.Sanitize(name))
	}
}
