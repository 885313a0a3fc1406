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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/awslabs/ar-plc-tools/analysis"
	"github.com/awslabs/ar-plc-tools/cmd/plcheck/callgraph"
	"github.com/awslabs/ar-plc-tools/cmd/plcheck/check"
	"github.com/awslabs/ar-plc-tools/cmd/plcheck/rules"
	"github.com/awslabs/ar-plc-tools/cmd/plcheck/tools"
	"github.com/awslabs/ar-plc-tools/cmd/plcheck/watch"
)

const usage = `plcheck: PLC secure coding checks for SCL and IL
Usage:
  plcheck [tool] [options] <source file path(s)>
Tools:
  - check: runs the secure coding rules on SCL or IL source files
  - watch: runs the rules again each time the source files change
  - callgraph: prints the call trees, the unreachable routines and the call cycles of a program
  - rules: lists the rules
Examples:
  Check a project: plcheck check -policy policy.json Main_OB1.scl Startup.scl
  Check in CI: plcheck check -format json -fail-on-violation src/*.scl`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" || snd == "help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(analysis.Version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "check":
		flags, err := check.NewFlags("check", args, check.Usage)
		if err != nil {
			errExit(err)
		}
		if err := check.Run(flags, os.Stdout, os.Stderr); err != nil {
			errExit(err)
		}
	case "watch":
		flags, err := check.NewFlags("watch", args, watch.Usage)
		if err != nil {
			errExit(err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = watch.Run(ctx, flags, os.Stdout, os.Stderr)
		stop()
		if err != nil {
			errExit(err)
		}
	case "callgraph":
		flags, err := callgraph.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := callgraph.Run(flags, os.Stdout, os.Stderr); err != nil {
			errExit(err)
		}
	case "rules":
		if err := rules.Run(args, os.Stdout, os.Stderr); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}
}

// errExit exits with status 1 for violations reported under -fail-on-violation, and 2 for all other errors
func errExit(err error) {
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if errors.Is(err, tools.ErrViolations) {
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}
