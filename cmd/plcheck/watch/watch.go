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

// Package watch implements the plcheck sub-command that checks files again each time they change.
package watch

import (
	"context"
	"io"
	"path/filepath"

	"github.com/awslabs/ar-plc-tools/cmd/plcheck/check"
	"github.com/awslabs/ar-plc-tools/internal/formatutil"
	"github.com/awslabs/ar-plc-tools/internal/watch"
)

// Usage is the help message of the watch sub-command
const Usage = `Check SCL or IL source files, then check them again each time they are saved.

Usage:
  plcheck watch [options] source.scl...

The options are those of plcheck check; -fail-on-violation is ignored. Stop with Ctrl-C.

Examples:
% plcheck watch -policy policy.json Main_OB1.scl
`

// Run checks the files of flags, then watches them and reports the changed files again until ctx is done.
// Files that cannot be read after a change are logged and skipped; the watch goes on.
func Run(ctx context.Context, flags check.Flags, stdout io.Writer, stderr io.Writer) error {
	session, err := check.NewSession(flags, stderr)
	if err != nil {
		return err
	}
	paths := flags.FlagSet.Args()
	results, err := session.CheckFiles(paths)
	if err != nil {
		return err
	}
	if err := session.Write(stdout, results); err != nil {
		return err
	}

	w, err := watch.New(session.Logger, paths, watch.DefaultInterval)
	if err != nil {
		return err
	}
	defer w.Close()
	session.Logger.Infof("%s", formatutil.Faint("Watching ", len(paths), " file(s)"))

	// the watcher reports absolute paths; reports keep the names given on the command line
	names := map[string]string{}
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			names[abs] = p
		}
	}
	return w.Run(ctx, func(changed []string) {
		for _, abs := range changed {
			name, ok := names[abs]
			if !ok {
				name = abs
			}
			results, err := session.CheckFiles([]string{name})
			if err != nil {
				session.Logger.Warnf("%v", err)
				continue
			}
			io.WriteString(stdout, "\n")
			if err := session.Write(stdout, results); err != nil {
				session.Logger.Errorf("failed to write report: %v", err)
			}
		}
	})
}
