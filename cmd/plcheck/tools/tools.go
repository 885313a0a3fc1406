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

// Package tools contains utility types and functions for the plcheck sub-commands.
package tools

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/analysis/frontend"
	"github.com/awslabs/ar-plc-tools/analysis/policy"
)

// ErrViolations is returned by the sub-commands run with -fail-on-violation when some rule reports violations.
var ErrViolations = errors.New("violations found")

// Report formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// UnparsedCommonFlags represents an unparsed CLI sub-command flags.
type UnparsedCommonFlags struct {
	FlagSet    *flag.FlagSet
	ConfigPath *string
	Verbose    *bool
	Dialect    *string
}

// NewUnparsedCommonFlags returns an unparsed flag set with a given name.
// This is useful for creating sub-commands that have the flags -config, -verbose and -dialect but need other
// flags in addition.
func NewUnparsedCommonFlags(name string) UnparsedCommonFlags {
	cmd := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := cmd.String("config", "", "config file path for analysis")
	verbose := cmd.Bool("verbose", false, "debug logging on standard error")
	dialect := cmd.String("dialect", "auto", "source dialect: scl, il or auto")
	return UnparsedCommonFlags{
		FlagSet:    cmd,
		ConfigPath: configPath,
		Verbose:    verbose,
		Dialect:    dialect,
	}
}

// CommonFlags represents a parsed CLI sub-command flags.
// E.g., for the command `plcheck check ...`, "check" is the sub-command.
type CommonFlags struct {
	FlagSet    *flag.FlagSet
	ConfigPath string
	Verbose    bool
	Dialect    frontend.Dialect
}

// Parse parses args and validates the common flags
func (f UnparsedCommonFlags) Parse(args []string) (CommonFlags, error) {
	if err := f.FlagSet.Parse(args); err != nil {
		return CommonFlags{}, fmt.Errorf("failed to parse command %s with args %v: %w", f.FlagSet.Name(), args, err)
	}
	dialect, err := frontend.ParseDialect(*f.Dialect)
	if err != nil {
		return CommonFlags{}, fmt.Errorf("-dialect %q: %w", *f.Dialect, err)
	}
	return CommonFlags{
		FlagSet:    f.FlagSet,
		ConfigPath: *f.ConfigPath,
		Verbose:    *f.Verbose,
		Dialect:    dialect,
	}, nil
}

// NewCommonFlags returns a parsed flag set with a given name.
// Returns an error if args are invalid.
// Prints cmdUsage along with flag docs as the --help message.
func NewCommonFlags(name string, args []string, cmdUsage string) (CommonFlags, error) {
	flags := NewUnparsedCommonFlags(name)
	SetUsage(flags.FlagSet, cmdUsage)
	return flags.Parse(args)
}

// SetUsage sets cmd's usage (for --help flag) to output the string cmdUsage
// followed by each flag's documentation.
func SetUsage(cmd *flag.FlagSet, cmdUsage string) {
	cmd.Usage = func() {
		out := cmd.Output()
		fmt.Fprintf(out, "%s\n", cmdUsage)
		fmt.Fprintf(out, "Options:\n")
		cmd.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(out, "  %s: %s (default: %q)\n", f.Name, f.Usage, f.DefValue)
		})
	}
}

// LoadConfig loads the config file from configPath, or the default config if configPath is empty. With
// verbose, the log level is raised to at least debug. The returned logger writes to logOutput.
func LoadConfig(configPath string, verbose bool, logOutput io.Writer) (*config.Config, *config.LogGroup, error) {
	cfg := config.NewDefault()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
		}
	}
	if verbose && cfg.LogLevel < int(config.DebugLevel) {
		cfg.LogLevel = int(config.DebugLevel)
	}
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(logOutput)
	return cfg, logger, nil
}

// LoadPolicy loads the policy file at path. An empty path is the empty policy.
// A file that cannot be read is an error. A file that can be read but does not decode to a valid policy is
// returned as policyErr, so that the rules still run with the empty policy.
func LoadPolicy(path string) (pol policy.Policy, policyErr error, err error) {
	if path == "" {
		return policy.Policy{}, nil, nil
	}
	pol, perr := policy.Load(path)
	var decodeErr *policy.Error
	if perr != nil && !errors.As(perr, &decodeErr) {
		return policy.Policy{}, nil, perr
	}
	return pol, perr, nil
}

// CheckFormat returns an error if format is not a report format
func CheckFormat(format string) error {
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("-format %q: expected %s or %s", format, FormatText, FormatJSON)
	}
	return nil
}
